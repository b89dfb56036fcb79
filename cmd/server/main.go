package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docbridge/cmd/server/handlers"
	mongo "docbridge/internal/clients/mongo" // mongo client singleton
	"docbridge/internal/config"
	"docbridge/internal/docstore"
	"docbridge/internal/logger"
	"docbridge/internal/metrics"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Create bootstrap logger for early errors
	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logg.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		logg.Warn("failed to set GOMAXPROCS", "err", err)
	}

	if cfg.PyroscopeServerAddress != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "docbridge.server",
			ServerAddress:   cfg.PyroscopeServerAddress,
			Tags:            map[string]string{"db": cfg.MongoDBName},
		})
		if err != nil {
			logg.Warn("pyroscope start failed, continuing without profiling", "err", err)
		} else {
			defer func() { _ = profiler.Stop() }()
		}
	}

	mc := metrics.New()

	_, db, err := mongo.Init(ctx, cfg, logg, mc.ClientOptions())
	if err != nil {
		logg.Error("mongo init", "err", err)
		os.Exit(1)
	}
	logg.Info("connected to mongo", "db", db.Name())

	logg.Info("starting docbridge", "port", cfg.AppPort)

	app := setupRouter(cfg, docstore.NewHandle(db), handlers.PingPrimary, mc)
	portStr := fmt.Sprintf(":%d", cfg.AppPort)

	g.Go(func() error {
		err := app.Listen(portStr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	// Graceful shutdown
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 25*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return mongo.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}
