// Package docstore wraps MongoDB collection operations with argument checks.
//
// Every operation validates its arguments, makes exactly one driver call and
// returns the driver's result or error unmodified. Each operation also has an
// Async twin that reports argument problems synchronously and otherwise
// returns an async.Task settled by the driver call.
package docstore

import (
	"context"

	"docbridge/internal/async"
	clientsmongo "docbridge/internal/clients/mongo"
	"docbridge/internal/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection is the part of *mongo.Collection the operations use.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	InsertMany(ctx context.Context, documents any, opts ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateManyOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error)
}

var _ Collection = (*mongo.Collection)(nil)

// Handle is a database-scoped entry point for the operations.
type Handle interface {
	Name() string
	Collection(name string) Collection
}

// DatabaseHandle is the Handle backed by a live *mongo.Database.
// docstore never disconnects the underlying client.
type DatabaseHandle struct {
	db *mongo.Database
}

// NewHandle wraps db.
func NewHandle(db *mongo.Database) *DatabaseHandle {
	return &DatabaseHandle{db: db}
}

// Name returns the database name.
func (h *DatabaseHandle) Name() string { return h.db.Name() }

// Collection returns the named collection.
func (h *DatabaseHandle) Collection(name string) Collection { return h.db.Collection(name) }

// Database exposes the wrapped database.
func (h *DatabaseHandle) Database() *mongo.Database { return h.db }

// Client exposes the client owning the database, for callers that manage its lifetime.
func (h *DatabaseHandle) Client() *mongo.Client { return h.db.Client() }

// Connect opens a client for uri and returns a handle on dbName. Without opts
// the defaults of clients/mongo.DefaultClientOptions apply. Connection errors
// are returned as the driver produced them.
func Connect(ctx context.Context, uri, dbName string, opts ...*options.ClientOptions) (*DatabaseHandle, error) {
	_, db, err := clientsmongo.Connect(ctx, uri, dbName, logger.L(), opts...)
	if err != nil {
		return nil, err
	}
	return NewHandle(db), nil
}

// ConnectAsync is Connect as a Task. uri and dbName are checked before the
// task starts.
func ConnectAsync(ctx context.Context, uri, dbName string, opts ...*options.ClientOptions) (*async.Task[*DatabaseHandle], error) {
	if err := clientsmongo.ValidateConnectArgs(uri, dbName); err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (*DatabaseHandle, error) {
		return Connect(ctx, uri, dbName, opts...)
	}), nil
}

func checkHandle(op string, h Handle) error {
	if isNil(h) {
		return argErr(op, "handle", ErrInvalidHandle, "handle is nil")
	}
	if dh, ok := h.(*DatabaseHandle); ok && dh.db == nil {
		return argErr(op, "handle", ErrInvalidHandle, "handle is not connected to a database")
	}
	return nil
}

func checkKey(op, key string) error {
	if key == "" {
		return argErr(op, "key", ErrInvalidKey, "collection key must be a non-empty string")
	}
	return nil
}

// collection runs the checks every operation shares and resolves the collection.
func collection(op string, h Handle, key string) (Collection, error) {
	if err := checkHandle(op, h); err != nil {
		return nil, err
	}
	if err := checkKey(op, key); err != nil {
		return nil, err
	}
	return h.Collection(key), nil
}

func checkFilter(op string, filter any) error {
	if isNil(filter) {
		return argErr(op, "filter", ErrInvalidFilter, "filter must be a non-nil document, use bson.M{} to match everything")
	}
	if !isDocument(filter) {
		return argErr(op, "filter", ErrInvalidFilter, "filter must be a document, got %T", filter)
	}
	return nil
}
