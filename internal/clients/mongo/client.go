package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"docbridge/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrNotInitialized is returned by Shutdown when Init never succeeded.
	ErrNotInitialized = errors.New("mongo client not initialized")
	// ErrShutdown is returned by Shutdown once the client is already shut down.
	ErrShutdown = errors.New("mongo client already shut down")
)

var (
	client   *mongo.Client
	db       *mongo.Database
	shutDown bool
	mu       sync.Mutex
)

// Init initializes the process-wide MongoDB connection (first successful call
// wins, thread-safe). Failed attempts leave nothing behind, so a later call
// retries. extra options are merged after the config-derived defaults.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger, extra ...*options.ClientOptions) (*mongo.Client, *mongo.Database, error) {
	mu.Lock()
	defer mu.Unlock()

	if client != nil && db != nil {
		return client, db, nil
	}

	opts := append([]*options.ClientOptions{
		DefaultClientOptions(cfg.MongoAppName, cfg.ConnectTimeout()),
	}, extra...)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout()+PingTimeout)
	defer cancel()

	cli, database, err := Connect(ctx, cfg.MongoURI, cfg.MongoDBName, log, opts...)
	if err != nil {
		return nil, nil, err
	}

	client = cli
	db = database
	shutDown = false

	return client, db, nil
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.Lock()
	defer mu.Unlock()
	return db
}

// Shutdown disconnects the singleton client. It is safe to call more than
// once: later calls report ErrShutdown.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if client == nil {
		if shutDown {
			return ErrShutdown
		}
		shutDown = true
		return ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := drv.Disconnect(ctx, client)

	client = nil
	db = nil
	shutDown = true

	return err
}
