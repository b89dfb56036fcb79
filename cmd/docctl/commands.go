package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"docbridge/internal/docstore"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// run dispatches a parsed command against h and prints results to w.
func run(ctx context.Context, c *cliFlags, cmd string, h docstore.Handle, w io.Writer) error {
	switch cmd {
	case "ping":
		_, err := fmt.Fprintf(w, "ok %s\n", h.Name())
		return err

	case "insert <key> <doc>":
		return insertOne(ctx, h, w, c.Insert.Key, c.Insert.Doc, c.Insert.ID)

	case "insert-many <key> <docs>":
		return insertMany(ctx, h, w, c.InsertMany.Key, c.InsertMany.Docs, c.InsertMany.IDs)

	case "find <key> <filter>":
		return find(ctx, h, w, c)

	case "update <key> <filter> <update>":
		return update(ctx, h, w, c)

	case "delete <key> <filter>":
		return remove(ctx, h, w, c.Delete.Key, c.Delete.Filter, c.Delete.Many)

	case "seed <key>":
		seed := c.Seed.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		n, err := seedOrders(ctx, h, c.Seed.Key, seedPlan{
			count:   c.Seed.Count,
			batch:   c.Seed.Batch,
			workers: c.Seed.Workers,
		}, gofakeit.New(seed))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "inserted %d documents into %s\n", n, c.Seed.Key)
		return err

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func insertOne(ctx context.Context, h docstore.Handle, w io.Writer, key, rawDoc, rawID string) error {
	doc, err := parseDoc("doc", rawDoc)
	if err != nil {
		return err
	}
	var id any
	if rawID != "" {
		id = rawID
	}
	oid, err := docstore.ParseID(id)
	if err != nil {
		return err
	}

	res, err := docstore.InsertOne(ctx, h, key, doc, oid)
	if err != nil {
		return err
	}
	return writeExtJSON(w, bson.D{
		{Key: "acknowledged", Value: res.Acknowledged},
		{Key: "insertedId", Value: res.InsertedID},
	})
}

func insertMany(ctx context.Context, h docstore.Handle, w io.Writer, key, rawDocs string, rawIDs []string) error {
	docs, err := parseDocs(rawDocs)
	if err != nil {
		return err
	}
	ids, err := parseIDs(rawIDs)
	if err != nil {
		return err
	}

	res, err := docstore.InsertMany(ctx, h, key, docs, ids)
	if err != nil {
		return err
	}
	return writeExtJSON(w, bson.D{
		{Key: "acknowledged", Value: res.Acknowledged},
		{Key: "insertedIds", Value: res.InsertedIDs},
	})
}

func find(ctx context.Context, h docstore.Handle, w io.Writer, c *cliFlags) error {
	f := c.Find
	filter, err := parseDoc("filter", f.Filter)
	if err != nil {
		return err
	}
	var sort bson.D
	if f.Sort != "" {
		if err := bson.UnmarshalExtJSON([]byte(f.Sort), false, &sort); err != nil {
			return fmt.Errorf("sort: %w", err)
		}
	}
	var projection bson.M
	if f.Projection != "" {
		if projection, err = parseDoc("projection", f.Projection); err != nil {
			return err
		}
	}

	if f.One {
		opts := options.FindOne().SetSkip(f.Skip)
		if sort != nil {
			opts.SetSort(sort)
		}
		if projection != nil {
			opts.SetProjection(projection)
		}
		doc, err := docstore.FindOne(ctx, h, f.Key, filter, opts)
		if err != nil {
			return err
		}
		if doc == nil {
			_, err = io.WriteString(w, "null\n")
			return err
		}
		return writeExtJSON(w, doc)
	}

	opts := options.Find().SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if sort != nil {
		opts.SetSort(sort)
	}
	if projection != nil {
		opts.SetProjection(projection)
	}

	cursor, err := docstore.Find(ctx, h, f.Key, filter, opts)
	if err != nil {
		return err
	}
	defer func() { _ = cursor.Close(context.WithoutCancel(ctx)) }()

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		if err := writeExtJSON(w, doc); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func update(ctx context.Context, h docstore.Handle, w io.Writer, c *cliFlags) error {
	u := c.Update
	filter, err := parseDoc("filter", u.Filter)
	if err != nil {
		return err
	}
	expr, err := parseDoc("update", u.Update)
	if err != nil {
		return err
	}

	var res *mongo.UpdateResult
	if u.Many {
		res, err = docstore.UpdateMany(ctx, h, u.Key, filter, expr, options.UpdateMany().SetUpsert(u.Upsert))
	} else {
		res, err = docstore.UpdateOne(ctx, h, u.Key, filter, expr, options.UpdateOne().SetUpsert(u.Upsert))
	}
	if err != nil {
		return err
	}
	return writeExtJSON(w, bson.D{
		{Key: "acknowledged", Value: res.Acknowledged},
		{Key: "matchedCount", Value: res.MatchedCount},
		{Key: "modifiedCount", Value: res.ModifiedCount},
		{Key: "upsertedCount", Value: res.UpsertedCount},
		{Key: "upsertedId", Value: res.UpsertedID},
	})
}

func remove(ctx context.Context, h docstore.Handle, w io.Writer, key, rawFilter string, many bool) error {
	filter, err := parseDoc("filter", rawFilter)
	if err != nil {
		return err
	}

	var res *mongo.DeleteResult
	if many {
		res, err = docstore.DeleteMany(ctx, h, key, filter)
	} else {
		res, err = docstore.DeleteOne(ctx, h, key, filter)
	}
	if err != nil {
		return err
	}
	return writeExtJSON(w, bson.D{
		{Key: "acknowledged", Value: res.Acknowledged},
		{Key: "deletedCount", Value: res.DeletedCount},
	})
}

var errNotArray = errors.New("docs must be an Extended JSON array of documents")

// parseDoc decodes a relaxed Extended JSON document. arg names it in errors.
func parseDoc(arg, s string) (bson.M, error) {
	var doc bson.M
	if err := bson.UnmarshalExtJSON([]byte(s), false, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", arg, err)
	}
	return doc, nil
}

// parseDocs decodes a relaxed Extended JSON array of documents.
func parseDocs(s string) ([]bson.M, error) {
	var wrapped struct {
		Docs []bson.M `bson:"docs"`
	}
	if err := bson.UnmarshalExtJSON([]byte(`{"docs": `+s+`}`), false, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %w", errNotArray, err)
	}
	if wrapped.Docs == nil {
		return nil, errNotArray
	}
	return wrapped.Docs, nil
}

func parseIDs(hexes []string) ([]bson.ObjectID, error) {
	if len(hexes) == 0 {
		return nil, nil
	}
	vs := make([]any, len(hexes))
	for i, s := range hexes {
		vs[i] = s
	}
	return docstore.ParseIDs(vs)
}

func writeExtJSON(w io.Writer, v any) error {
	b, err := bson.MarshalExtJSON(v, false, false)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
