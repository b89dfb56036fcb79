package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// DefaultAppName is reported to the server in the client handshake.
	DefaultAppName = "docbridge"
	// DefaultConnectTimeout bounds dialing a single server.
	DefaultConnectTimeout = 10 * time.Second
	// PingTimeout bounds the primary ping that confirms a new connection.
	PingTimeout = 10 * time.Second
)

// ErrInvalidConnectArgs is returned when the URI or database name cannot be used.
var ErrInvalidConnectArgs = errors.New("invalid connect arguments")

var validate = validator.New()

type connectArgs struct {
	URI    string `validate:"required,startswith=mongodb"`
	DBName string `validate:"required,max=63,excludesall=/.$"`
}

// DefaultClientOptions returns the options applied when a caller supplies none:
// Stable API v1, app name and connect timeout. Topology discovery is left on
// (no direct connection) and the URI is parsed by ApplyURI in Connect.
func DefaultClientOptions(appName string, connectTimeout time.Duration) *options.ClientOptions {
	if appName == "" {
		appName = DefaultAppName
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	return options.Client().
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(connectTimeout).
		SetAppName(appName)
}

// ValidateConnectArgs checks uri and dbName without dialing.
func ValidateConnectArgs(uri, dbName string) error {
	if err := validate.Struct(connectArgs{URI: uri, DBName: dbName}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConnectArgs, err)
	}
	return nil
}

// Connect establishes a client for uri, confirms it with a primary ping and
// returns the client together with the database named dbName.
//
// When opts is empty DefaultClientOptions applies; otherwise opts are merged
// over ApplyURI(uri) in order. Connection and ping errors are returned as the
// driver reported them. A client whose ping failed is disconnected first.
func Connect(ctx context.Context, uri, dbName string, log *slog.Logger, opts ...*options.ClientOptions) (*mongo.Client, *mongo.Database, error) {
	if err := ValidateConnectArgs(uri, dbName); err != nil {
		return nil, nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	if len(opts) == 0 {
		opts = []*options.ClientOptions{DefaultClientOptions(DefaultAppName, DefaultConnectTimeout)}
	}
	merged := make([]*options.ClientOptions, 0, len(opts)+1)
	merged = append(merged, options.Client().ApplyURI(uri))
	merged = append(merged, opts...)

	cli, err := drv.Connect(ctx, merged...)
	if err != nil {
		log.Error("failed to connect to mongo", "err", err)
		return nil, nil, err
	}

	pingCtx, cancel := WithOpTimeout(ctx, PingTimeout)
	defer cancel()

	if err := drv.Ping(pingCtx, cli); err != nil {
		log.Error("failed to ping mongo", "err", err)

		dctx, dcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer dcancel()
		if derr := drv.Disconnect(dctx, cli); derr != nil {
			log.Warn("failed to disconnect after ping failure", "err", derr)
		}
		return nil, nil, err
	}

	log.Info("successfully connected to mongo", "db", dbName)
	return cli, cli.Database(dbName), nil
}
