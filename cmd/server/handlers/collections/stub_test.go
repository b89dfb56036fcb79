package collections

import (
	"context"
	"sync"

	"docbridge/internal/docstore"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// call records one driver call made through stubStore.
type call struct {
	method   string
	key      string
	filter   any
	update   any
	document any
	findOpts *options.FindOptions
}

// stubStore records calls and answers with canned results.
type stubStore struct {
	mu    sync.Mutex
	calls []call

	err  error
	docs []bson.M // served by FindOne/Find
	upID any
}

func (s *stubStore) Name() string { return "stub" }

func (s *stubStore) Collection(name string) docstore.Collection {
	return &stubCollection{store: s, key: name}
}

func (s *stubStore) record(c call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	return s.err
}

func (s *stubStore) last() call {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return call{}
	}
	return s.calls[len(s.calls)-1]
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubCollection struct {
	store *stubStore
	key   string
}

func (c *stubCollection) InsertOne(_ context.Context, document any, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	if err := c.store.record(call{method: "InsertOne", key: c.key, document: document}); err != nil {
		return nil, err
	}
	doc := document.(bson.M)
	id, ok := doc["_id"]
	if !ok {
		id = bson.NewObjectID()
	}
	return &mongo.InsertOneResult{InsertedID: id, Acknowledged: true}, nil
}

func (c *stubCollection) InsertMany(_ context.Context, documents any, _ ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error) {
	if err := c.store.record(call{method: "InsertMany", key: c.key, document: documents}); err != nil {
		return nil, err
	}
	res := &mongo.InsertManyResult{Acknowledged: true}
	for _, doc := range documents.([]bson.M) {
		id, ok := doc["_id"]
		if !ok {
			id = bson.NewObjectID()
		}
		res.InsertedIDs = append(res.InsertedIDs, id)
	}
	return res, nil
}

func (c *stubCollection) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	if err := c.store.record(call{method: "FindOne", key: c.key, filter: filter}); err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	if len(c.store.docs) == 0 {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(c.store.docs[0], nil, nil)
}

func (c *stubCollection) Find(_ context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	fo := &options.FindOptions{}
	for _, o := range opts {
		for _, set := range o.List() {
			_ = set(fo)
		}
	}
	if err := c.store.record(call{method: "Find", key: c.key, filter: filter, findOpts: fo}); err != nil {
		return nil, err
	}
	docs := make([]any, 0, len(c.store.docs))
	for _, d := range c.store.docs {
		docs = append(docs, d)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (c *stubCollection) updateResult() *mongo.UpdateResult {
	res := &mongo.UpdateResult{MatchedCount: 2, ModifiedCount: 2, Acknowledged: true}
	if c.store.upID != nil {
		res.UpsertedCount, res.UpsertedID = 1, c.store.upID
	}
	return res
}

func (c *stubCollection) UpdateOne(_ context.Context, filter, update any, _ ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	if err := c.store.record(call{method: "UpdateOne", key: c.key, filter: filter, update: update}); err != nil {
		return nil, err
	}
	return c.updateResult(), nil
}

func (c *stubCollection) UpdateMany(_ context.Context, filter, update any, _ ...options.Lister[options.UpdateManyOptions]) (*mongo.UpdateResult, error) {
	if err := c.store.record(call{method: "UpdateMany", key: c.key, filter: filter, update: update}); err != nil {
		return nil, err
	}
	return c.updateResult(), nil
}

func (c *stubCollection) DeleteOne(_ context.Context, filter any, _ ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	if err := c.store.record(call{method: "DeleteOne", key: c.key, filter: filter}); err != nil {
		return nil, err
	}
	return &mongo.DeleteResult{DeletedCount: 1, Acknowledged: true}, nil
}

func (c *stubCollection) DeleteMany(_ context.Context, filter any, _ ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error) {
	if err := c.store.record(call{method: "DeleteMany", key: c.key, filter: filter}); err != nil {
		return nil, err
	}
	return &mongo.DeleteResult{DeletedCount: 3, Acknowledged: true}, nil
}
