// Package docstoretest provides an in-memory docstore.Handle for tests.
package docstoretest

import (
	"context"
	"reflect"
	"sync"

	"docbridge/internal/docstore"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store serves in-memory collections keyed by name.
type Store struct {
	mu    sync.Mutex
	colls map[string]*Collection
}

var _ docstore.Handle = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{colls: map[string]*Collection{}}
}

// Name implements docstore.Handle.
func (s *Store) Name() string { return "docstoretest" }

// Collection implements docstore.Handle.
func (s *Store) Collection(name string) docstore.Collection {
	return s.Coll(name)
}

// Coll returns the named collection, creating it on first use.
func (s *Store) Coll(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colls[name]
	if !ok {
		c = &Collection{}
		s.colls[name] = c
	}
	return c
}

// Calls counts driver calls over every collection.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.colls {
		n += c.Calls()
	}
	return n
}

// Collection stores copies of documents and understands equality filters
// on top-level fields plus $set updates.
type Collection struct {
	mu    sync.Mutex
	docs  []bson.M
	calls int
	err   error
}

var _ docstore.Collection = (*Collection)(nil)

// FailWith makes every later call return err unmodified. nil restores normal behavior.
func (c *Collection) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Calls counts calls made on c.
func (c *Collection) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Docs returns copies of the stored documents in insertion order.
func (c *Collection) Docs() []bson.M {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bson.M, len(c.docs))
	for i, d := range c.docs {
		out[i] = cloneDoc(d)
	}
	return out
}

func (c *Collection) enter() error {
	c.mu.Lock()
	c.calls++
	return c.err
}

func cloneDoc(doc any) bson.M {
	raw, err := bson.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func matches(doc bson.M, filter any) bool {
	f, ok := filter.(bson.M)
	if !ok {
		return true
	}
	for k, want := range f {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

func (c *Collection) insert(doc any) any {
	stored := cloneDoc(doc)
	if _, ok := stored["_id"]; !ok {
		stored["_id"] = bson.NewObjectID()
	}
	c.docs = append(c.docs, stored)
	return stored["_id"]
}

func (c *Collection) InsertOne(_ context.Context, document any, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	err := c.enter()
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &mongo.InsertOneResult{InsertedID: c.insert(document), Acknowledged: true}, nil
}

func (c *Collection) InsertMany(_ context.Context, documents any, _ ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error) {
	err := c.enter()
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	docs := reflect.ValueOf(documents)
	if docs.Len() == 0 {
		return nil, mongo.ErrEmptySlice
	}
	res := &mongo.InsertManyResult{Acknowledged: true}
	for i := range docs.Len() {
		res.InsertedIDs = append(res.InsertedIDs, c.insert(docs.Index(i).Interface()))
	}
	return res, nil
}

func (c *Collection) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	err := c.enter()
	defer c.mu.Unlock()
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	for _, doc := range c.docs {
		if matches(doc, filter) {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (c *Collection) Find(_ context.Context, filter any, _ ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	err := c.enter()
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]any, 0)
	for _, doc := range c.docs {
		if matches(doc, filter) {
			out = append(out, doc)
		}
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

func (c *Collection) update(filter, update any, many bool) (*mongo.UpdateResult, error) {
	res := &mongo.UpdateResult{Acknowledged: true}
	u, _ := update.(bson.M)
	set, _ := u["$set"].(bson.M)
	for _, doc := range c.docs {
		if !matches(doc, filter) {
			continue
		}
		res.MatchedCount++
		for k, v := range set {
			doc[k] = v
		}
		res.ModifiedCount++
		if !many {
			break
		}
	}
	return res, nil
}

func (c *Collection) UpdateOne(_ context.Context, filter, update any, _ ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	err := c.enter()
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.update(filter, update, false)
}

func (c *Collection) UpdateMany(_ context.Context, filter, update any, _ ...options.Lister[options.UpdateManyOptions]) (*mongo.UpdateResult, error) {
	err := c.enter()
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.update(filter, update, true)
}

func (c *Collection) remove(filter any, many bool) *mongo.DeleteResult {
	res := &mongo.DeleteResult{Acknowledged: true}
	kept := c.docs[:0]
	for _, doc := range c.docs {
		if matches(doc, filter) && (many || res.DeletedCount == 0) {
			res.DeletedCount++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return res
}

func (c *Collection) DeleteOne(_ context.Context, filter any, _ ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	err := c.enter()
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.remove(filter, false), nil
}

func (c *Collection) DeleteMany(_ context.Context, filter any, _ ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error) {
	err := c.enter()
	defer c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.remove(filter, true), nil
}
