package docstore

import (
	"context"

	"docbridge/internal/async"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// InsertOne inserts doc into the key collection. A non-zero id overwrites
// doc["_id"] before the insert; with a zero id the driver generates one, and
// after a successful insert it is written back to doc. doc belongs to the
// call until it returns.
func InsertOne(
	ctx context.Context,
	h Handle,
	key string,
	doc bson.M,
	id bson.ObjectID,
	opts ...options.Lister[options.InsertOneOptions],
) (*mongo.InsertOneResult, error) {
	coll, err := prepareInsertOne("InsertOne", h, key, doc, id)
	if err != nil {
		return nil, err
	}
	return insertOne(ctx, coll, doc, opts)
}

// InsertOneAsync is InsertOne as a Task. doc belongs to the task until it settles.
func InsertOneAsync(
	ctx context.Context,
	h Handle,
	key string,
	doc bson.M,
	id bson.ObjectID,
	opts ...options.Lister[options.InsertOneOptions],
) (*async.Task[*mongo.InsertOneResult], error) {
	coll, err := prepareInsertOne("InsertOneAsync", h, key, doc, id)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (*mongo.InsertOneResult, error) {
		return insertOne(ctx, coll, doc, opts)
	}), nil
}

func prepareInsertOne(op string, h Handle, key string, doc bson.M, id bson.ObjectID) (Collection, error) {
	coll, err := collection(op, h, key)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, argErr(op, "document", ErrInvalidDocument, "document is nil")
	}
	injectID(doc, id)
	return coll, nil
}

func insertOne(ctx context.Context, coll Collection, doc bson.M, opts []options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	res, err := coll.InsertOne(ctx, doc, opts...)
	if err != nil {
		return res, err
	}
	adoptID(doc, res.InsertedID)
	return res, nil
}

// InsertMany inserts docs into the key collection in order. ids are assigned
// positionally: ids[i] overwrites docs[i]["_id"] unless it is zero; ids beyond
// len(docs) are ignored and documents past len(ids) keep whatever _id they
// have (the driver generates missing ones, written back on success).
func InsertMany(
	ctx context.Context,
	h Handle,
	key string,
	docs []bson.M,
	ids []bson.ObjectID,
	opts ...options.Lister[options.InsertManyOptions],
) (*mongo.InsertManyResult, error) {
	coll, err := prepareInsertMany("InsertMany", h, key, docs, ids)
	if err != nil {
		return nil, err
	}
	return insertMany(ctx, coll, docs, opts)
}

// InsertManyAsync is InsertMany as a Task. docs belong to the task until it settles.
func InsertManyAsync(
	ctx context.Context,
	h Handle,
	key string,
	docs []bson.M,
	ids []bson.ObjectID,
	opts ...options.Lister[options.InsertManyOptions],
) (*async.Task[*mongo.InsertManyResult], error) {
	coll, err := prepareInsertMany("InsertManyAsync", h, key, docs, ids)
	if err != nil {
		return nil, err
	}
	return async.Go(ctx, func(ctx context.Context) (*mongo.InsertManyResult, error) {
		return insertMany(ctx, coll, docs, opts)
	}), nil
}

func prepareInsertMany(op string, h Handle, key string, docs []bson.M, ids []bson.ObjectID) (Collection, error) {
	coll, err := collection(op, h, key)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		return nil, argErr(op, "documents", ErrInvalidDocument, "documents must be a slice, got nil")
	}
	for i, doc := range docs {
		if doc == nil {
			return nil, argErr(op, "documents", ErrInvalidDocument, "document at index %d is nil", i)
		}
	}
	for i := 0; i < len(docs) && i < len(ids); i++ {
		injectID(docs[i], ids[i])
	}
	return coll, nil
}

func insertMany(ctx context.Context, coll Collection, docs []bson.M, opts []options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error) {
	res, err := coll.InsertMany(ctx, docs, opts...)
	if err != nil {
		return res, err
	}
	for i := 0; i < len(docs) && i < len(res.InsertedIDs); i++ {
		adoptID(docs[i], res.InsertedIDs[i])
	}
	return res, nil
}
