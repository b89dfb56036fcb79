package docstore

import (
	"context"

	"docbridge/internal/async"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UpdateOne applies update to the first document matching filter.
// update must pass ValidateUpdate.
func UpdateOne(
	ctx context.Context,
	h Handle,
	key string,
	filter any,
	update bson.M,
	opts ...options.Lister[options.UpdateOneOptions],
) (*mongo.UpdateResult, error) {
	coll, err := prepareUpdate("UpdateOne", h, key, filter, update)
	if err != nil {
		return nil, err
	}
	return coll.UpdateOne(ctx, filter, update, opts...)
}

// UpdateOneAsync is UpdateOne as a Task.
func UpdateOneAsync(
	ctx context.Context,
	h Handle,
	key string,
	filter any,
	update bson.M,
	opts ...options.Lister[options.UpdateOneOptions],
) (*async.Task[*mongo.UpdateResult], error) {
	coll, err := prepareUpdate("UpdateOneAsync", h, key, filter, update)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (*mongo.UpdateResult, error) {
		return coll.UpdateOne(ctx, filter, update, opts...)
	}), nil
}

// UpdateMany applies update to every document matching filter.
// update must pass ValidateUpdate.
func UpdateMany(
	ctx context.Context,
	h Handle,
	key string,
	filter any,
	update bson.M,
	opts ...options.Lister[options.UpdateManyOptions],
) (*mongo.UpdateResult, error) {
	coll, err := prepareUpdate("UpdateMany", h, key, filter, update)
	if err != nil {
		return nil, err
	}
	return coll.UpdateMany(ctx, filter, update, opts...)
}

// UpdateManyAsync is UpdateMany as a Task.
func UpdateManyAsync(
	ctx context.Context,
	h Handle,
	key string,
	filter any,
	update bson.M,
	opts ...options.Lister[options.UpdateManyOptions],
) (*async.Task[*mongo.UpdateResult], error) {
	coll, err := prepareUpdate("UpdateManyAsync", h, key, filter, update)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (*mongo.UpdateResult, error) {
		return coll.UpdateMany(ctx, filter, update, opts...)
	}), nil
}

func prepareUpdate(op string, h Handle, key string, filter any, update bson.M) (Collection, error) {
	coll, err := collection(op, h, key)
	if err != nil {
		return nil, err
	}
	if err := checkFilter(op, filter); err != nil {
		return nil, err
	}
	if err := validateUpdate(op, update); err != nil {
		return nil, err
	}
	return coll, nil
}
