package docstore

import (
	"context"

	"docbridge/internal/async"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DeleteOne removes the first document matching filter. No match is not an
// error: the result reports DeletedCount 0.
func DeleteOne(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	coll, err := prepareDelete("DeleteOne", h, key, filter)
	if err != nil {
		return nil, err
	}
	return coll.DeleteOne(ctx, filter, opts...)
}

// DeleteOneAsync is DeleteOne as a Task.
func DeleteOneAsync(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*async.Task[*mongo.DeleteResult], error) {
	coll, err := prepareDelete("DeleteOneAsync", h, key, filter)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (*mongo.DeleteResult, error) {
		return coll.DeleteOne(ctx, filter, opts...)
	}), nil
}

// DeleteMany removes every document matching filter.
func DeleteMany(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error) {
	coll, err := prepareDelete("DeleteMany", h, key, filter)
	if err != nil {
		return nil, err
	}
	return coll.DeleteMany(ctx, filter, opts...)
}

// DeleteManyAsync is DeleteMany as a Task.
func DeleteManyAsync(ctx context.Context, h Handle, key string, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*async.Task[*mongo.DeleteResult], error) {
	coll, err := prepareDelete("DeleteManyAsync", h, key, filter)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (*mongo.DeleteResult, error) {
		return coll.DeleteMany(ctx, filter, opts...)
	}), nil
}

// Deletes share the handle, key and filter checks of the other writes.
func prepareDelete(op string, h Handle, key string, filter any) (Collection, error) {
	coll, err := collection(op, h, key)
	if err != nil {
		return nil, err
	}
	if err := checkFilter(op, filter); err != nil {
		return nil, err
	}
	return coll, nil
}
