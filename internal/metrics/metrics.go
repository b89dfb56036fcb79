// Package metrics turns MongoDB driver events into Prometheus collectors.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const namespace = "docbridge"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector owns a dedicated registry; nothing is registered globally.
type Collector struct {
	reg *prometheus.Registry

	cmdDuration *prometheus.HistogramVec
	cmdTotal    *prometheus.CounterVec
	cmdInFlight prometheus.Gauge

	poolCheckedOut prometheus.Gauge
	poolOpen       prometheus.Gauge
	poolEvents     *prometheus.CounterVec
}

// New builds a Collector with its own registry, including the Go runtime and
// process collectors.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		cmdDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "mongo",
				Name:      "command_duration_seconds",
				Help:      "Duration of MongoDB commands in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command", "outcome"},
		),
		cmdTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mongo",
				Name:      "commands_total",
				Help:      "Total number of MongoDB commands",
			},
			[]string{"command", "outcome"},
		),
		cmdInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mongo",
			Name:      "commands_in_flight",
			Help:      "MongoDB commands started but not finished",
		}),
		poolCheckedOut: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mongo_pool",
			Name:      "checked_out_connections",
			Help:      "Connections currently checked out of the pool",
		}),
		poolOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mongo_pool",
			Name:      "open_connections",
			Help:      "Connections currently open",
		}),
		poolEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mongo_pool",
				Name:      "events_total",
				Help:      "Connection pool events by type",
			},
			[]string{"type"},
		),
	}

	c.reg.MustRegister(
		c.cmdDuration, c.cmdTotal, c.cmdInFlight,
		c.poolCheckedOut, c.poolOpen, c.poolEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the registry so HTTP route metrics can share it.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}

// CommandMonitor returns a driver command monitor feeding the collectors.
func (c *Collector) CommandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(_ context.Context, _ *event.CommandStartedEvent) {
			c.cmdInFlight.Inc()
		},
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			c.finished(e.CommandFinishedEvent, OutcomeOK)
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			c.finished(e.CommandFinishedEvent, OutcomeError)
		},
	}
}

func (c *Collector) finished(e event.CommandFinishedEvent, outcome string) {
	c.cmdInFlight.Dec()
	c.cmdDuration.WithLabelValues(e.CommandName, outcome).Observe(e.Duration.Seconds())
	c.cmdTotal.WithLabelValues(e.CommandName, outcome).Inc()
}

// PoolMonitor returns a driver pool monitor feeding the pool gauges.
func (c *Collector) PoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			c.poolEvents.WithLabelValues(e.Type).Inc()
			switch e.Type {
			case event.ConnectionCreated:
				c.poolOpen.Inc()
			case event.ConnectionClosed:
				c.poolOpen.Dec()
			case event.ConnectionCheckedOut:
				c.poolCheckedOut.Inc()
			case event.ConnectionCheckedIn:
				c.poolCheckedOut.Dec()
			}
		},
	}
}

// ClientOptions carries both monitors, ready to pass to clients/mongo.Init.
func (c *Collector) ClientOptions() *options.ClientOptions {
	return options.Client().
		SetMonitor(c.CommandMonitor()).
		SetPoolMonitor(c.PoolMonitor())
}
