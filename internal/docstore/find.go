package docstore

import (
	"context"
	"errors"

	"docbridge/internal/async"
	"docbridge/internal/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// FindOne returns the first document matching filter, or nil when none does.
func FindOne(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.FindOneOptions]) (bson.M, error) {
	coll, err := prepareLookup("FindOne", h, key, filter)
	if err != nil {
		return nil, err
	}
	return findOne(ctx, coll, filter, opts)
}

// FindOneAsync is FindOne as a Task.
func FindOneAsync(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.FindOneOptions]) (*async.Task[bson.M], error) {
	coll, err := prepareLookup("FindOneAsync", h, key, filter)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (bson.M, error) {
		return findOne(ctx, coll, filter, opts)
	}), nil
}

func findOne(ctx context.Context, coll Collection, filter any, opts []options.Lister[options.FindOneOptions]) (bson.M, error) {
	var doc bson.M
	if err := coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// Find returns a cursor over the documents matching filter. The caller owns
// the cursor and must close it.
func Find(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	coll, err := prepareLookup("Find", h, key, filter)
	if err != nil {
		return nil, err
	}
	return coll.Find(ctx, filter, opts...)
}

// FindAsync is Find as a Task.
func FindAsync(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.FindOptions]) (*async.Task[*mongo.Cursor], error) {
	coll, err := prepareLookup("FindAsync", h, key, filter)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (*mongo.Cursor, error) {
		return coll.Find(ctx, filter, opts...)
	}), nil
}

// FindMany drains the cursor of Find into a slice, in the order the server
// returns documents. No match yields an empty, non-nil slice.
func FindMany(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.FindOptions]) ([]bson.M, error) {
	coll, err := prepareLookup("FindMany", h, key, filter)
	if err != nil {
		return nil, err
	}
	return findMany(ctx, coll, filter, opts)
}

// FindManyAsync is FindMany as a Task.
func FindManyAsync(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.FindOptions]) (*async.Task[[]bson.M], error) {
	coll, err := prepareLookup("FindManyAsync", h, key, filter)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) ([]bson.M, error) {
		return findMany(ctx, coll, filter, opts)
	}), nil
}

func findMany(ctx context.Context, coll Collection, filter any, opts []options.Lister[options.FindOptions]) ([]bson.M, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Debug("failed to close cursor", "error", cerr)
		}
	}(context.WithoutCancel(ctx))

	docs := make([]bson.M, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func prepareLookup(op string, h Handle, key string, filter any) (Collection, error) {
	coll, err := collection(op, h, key)
	if err != nil {
		return nil, err
	}
	if err := checkFilter(op, filter); err != nil {
		return nil, err
	}
	return coll, nil
}
