package docstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"docbridge/internal/docstore"
	"docbridge/internal/docstore/docstoretest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const ordersKey = "orders"

func TestInsertOneGeneratesIdentifierAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	doc := bson.M{"name": "a"}
	res, err := docstore.InsertOne(ctx, h, ordersKey, doc, bson.NilObjectID)
	require.NoError(t, err)
	require.True(t, res.Acknowledged)

	id, ok := res.InsertedID.(bson.ObjectID)
	require.True(t, ok, "driver-generated identifier should be an ObjectID")
	assert.False(t, id.IsZero())
	assert.Equal(t, id, doc["_id"], "generated identifier is written back")

	found, err := docstore.FindOne(ctx, h, ordersKey, bson.M{"_id": id})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": "a", "_id": id}, found)
}

func TestInsertOneInjectedIdentifierOverwrites(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	id := bson.NewObjectID()
	doc := bson.M{"_id": "caller-chosen", "name": "b"}

	res, err := docstore.InsertOne(ctx, h, ordersKey, doc, id)
	require.NoError(t, err)
	assert.Equal(t, id, res.InsertedID)
	assert.Equal(t, id, doc["_id"])

	found, err := docstore.FindOne(ctx, h, ordersKey, bson.M{"_id": id})
	require.NoError(t, err)
	assert.Equal(t, doc, found)
}

func TestInsertManyShorterIdentifierSlice(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	ids := []bson.ObjectID{bson.NewObjectID()}
	docs := []bson.M{{"n": "1"}, {"n": "2"}, {"n": "3"}}

	res, err := docstore.InsertMany(ctx, h, ordersKey, docs, ids)
	require.NoError(t, err)
	require.True(t, res.Acknowledged)
	require.Len(t, res.InsertedIDs, 3)

	assert.Equal(t, ids[0], res.InsertedIDs[0])
	for i := 1; i < 3; i++ {
		gen, ok := res.InsertedIDs[i].(bson.ObjectID)
		require.True(t, ok)
		assert.NotEqual(t, ids[0], gen)
		assert.Equal(t, gen, docs[i]["_id"])
	}
}

func TestInsertManyExtraIdentifiersIgnored(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	ids := []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()}
	docs := []bson.M{{"n": "1"}}

	res, err := docstore.InsertMany(ctx, h, ordersKey, docs, ids)
	require.NoError(t, err)
	assert.Equal(t, []any{ids[0]}, res.InsertedIDs)
}

func TestInsertManyZeroIdentifierLeavesExistingID(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	docs := []bson.M{{"_id": "keep-me"}, {"n": "2"}}
	ids := []bson.ObjectID{bson.NilObjectID, bson.NewObjectID()}

	res, err := docstore.InsertMany(ctx, h, ordersKey, docs, ids)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", res.InsertedIDs[0])
	assert.Equal(t, ids[1], res.InsertedIDs[1])
}

func TestFindManyReturnsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	const n = 5
	docs := make([]bson.M, n)
	for i := range n {
		docs[i] = bson.M{"seq": fmt.Sprintf("doc-%d", i), "kind": "probe"}
	}
	_, err := docstore.InsertMany(ctx, h, ordersKey, docs, nil)
	require.NoError(t, err)

	got, err := docstore.FindMany(ctx, h, ordersKey, bson.M{"kind": "probe"})
	require.NoError(t, err)
	require.Len(t, got, n)
	for i := range n {
		assert.Equal(t, docs[i], got[i])
	}
}

func TestFindManyNoMatchIsEmptySlice(t *testing.T) {
	got, err := docstore.FindMany(context.Background(), docstoretest.NewStore(), ordersKey, bson.M{"kind": "none"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindManyStopsWhenCursorAcquisitionFails(t *testing.T) {
	h := docstoretest.NewStore()
	boom := errors.New("cursor acquisition failed")
	h.Coll(ordersKey).FailWith(boom)

	got, err := docstore.FindMany(context.Background(), h, ordersKey, bson.M{})
	assert.Nil(t, got)
	assert.Same(t, boom, err)
	assert.Equal(t, 1, h.Calls(), "only the Find call reaches the driver")
}

func TestFindReturnsLiveCursor(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	_, err := docstore.InsertMany(ctx, h, ordersKey, []bson.M{{"n": "1"}, {"n": "2"}}, nil)
	require.NoError(t, err)

	cursor, err := docstore.Find(ctx, h, ordersKey, bson.M{})
	require.NoError(t, err)
	defer cursor.Close(ctx)

	var seen []string
	for cursor.Next(ctx) {
		var doc bson.M
		require.NoError(t, cursor.Decode(&doc))
		seen = append(seen, doc["n"].(string))
	}
	require.NoError(t, cursor.Err())
	assert.Equal(t, []string{"1", "2"}, seen)
}

func TestFindOneNoMatchReturnsNil(t *testing.T) {
	doc, err := docstore.FindOne(context.Background(), docstoretest.NewStore(), ordersKey, bson.M{"_id": bson.NewObjectID()})
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestUpdateAppliesValidExpression(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	_, err := docstore.InsertMany(ctx, h, ordersKey, []bson.M{
		{"status": "open"}, {"status": "open"}, {"status": "closed"},
	}, nil)
	require.NoError(t, err)

	one, err := docstore.UpdateOne(ctx, h, ordersKey, bson.M{"status": "open"}, bson.M{"$set": bson.M{"status": "held"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), one.MatchedCount)
	assert.Equal(t, int64(1), one.ModifiedCount)

	many, err := docstore.UpdateMany(ctx, h, ordersKey, bson.M{"status": "closed"}, bson.M{"$set": bson.M{"status": "archived"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), many.MatchedCount)

	archived, err := docstore.FindMany(ctx, h, ordersKey, bson.M{"status": "archived"})
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestUpdateRejectsUnknownOperatorBeforeDispatch(t *testing.T) {
	h := docstoretest.NewStore()

	_, err := docstore.UpdateOne(context.Background(), h, ordersKey, bson.M{}, bson.M{"foo": bson.M{"bar": 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, docstore.ErrInvalidUpdate)
	assert.ErrorIs(t, err, docstore.ErrInvalidArgument)
	for _, op := range docstore.UpdateOperators() {
		assert.Contains(t, err.Error(), op, "error names the valid operator set")
	}
	assert.Zero(t, h.Calls())
}

func TestDeleteManyZeroMatches(t *testing.T) {
	res, err := docstore.DeleteMany(context.Background(), docstoretest.NewStore(), ordersKey, bson.M{"status": "expired"})
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	assert.Equal(t, int64(0), res.DeletedCount)
}

func TestDeleteOneRemovesSingleMatch(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()

	_, err := docstore.InsertMany(ctx, h, ordersKey, []bson.M{{"status": "expired"}, {"status": "expired"}}, nil)
	require.NoError(t, err)

	res, err := docstore.DeleteOne(ctx, h, ordersKey, bson.M{"status": "expired"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)

	res, err = docstore.DeleteMany(ctx, h, ordersKey, bson.M{"status": "expired"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)
}

func TestDriverErrorsPassThroughUnmodified(t *testing.T) {
	ctx := context.Background()
	h := docstoretest.NewStore()
	boom := errors.New("write concern failed")
	h.Coll(ordersKey).FailWith(boom)

	_, err := docstore.InsertOne(ctx, h, ordersKey, bson.M{}, bson.NilObjectID)
	assert.Same(t, boom, err)
	_, err = docstore.InsertMany(ctx, h, ordersKey, []bson.M{{}}, nil)
	assert.Same(t, boom, err)
	_, err = docstore.FindOne(ctx, h, ordersKey, bson.M{})
	assert.Same(t, boom, err)
	_, err = docstore.Find(ctx, h, ordersKey, bson.M{})
	assert.Same(t, boom, err)
	_, err = docstore.UpdateOne(ctx, h, ordersKey, bson.M{}, bson.M{"$inc": bson.M{"n": 1}})
	assert.Same(t, boom, err)
	_, err = docstore.UpdateMany(ctx, h, ordersKey, bson.M{}, bson.M{"$inc": bson.M{"n": 1}})
	assert.Same(t, boom, err)
	_, err = docstore.DeleteOne(ctx, h, ordersKey, bson.M{})
	assert.Same(t, boom, err)
	_, err = docstore.DeleteMany(ctx, h, ordersKey, bson.M{})
	assert.Same(t, boom, err)

	var argErr *docstore.ArgumentError
	assert.False(t, errors.As(err, &argErr))
}

func TestEmptyInsertManyIsDriverError(t *testing.T) {
	_, err := docstore.InsertMany(context.Background(), docstoretest.NewStore(), ordersKey, []bson.M{}, nil)
	assert.ErrorIs(t, err, mongo.ErrEmptySlice)
	assert.NotErrorIs(t, err, docstore.ErrInvalidArgument)
}

func TestPreconditionsFailBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	var nilHandle *docstore.DatabaseHandle
	var nilStore *docstoretest.Store

	tests := []struct {
		name     string
		call     func(h docstore.Handle) error
		sentinel error
	}{
		{
			name: "insert one nil handle",
			call: func(docstore.Handle) error {
				_, err := docstore.InsertOne(ctx, nil, ordersKey, bson.M{}, bson.NilObjectID)
				return err
			},
			sentinel: docstore.ErrInvalidHandle,
		},
		{
			name: "insert one typed nil handle",
			call: func(docstore.Handle) error {
				_, err := docstore.InsertOne(ctx, nilHandle, ordersKey, bson.M{}, bson.NilObjectID)
				return err
			},
			sentinel: docstore.ErrInvalidHandle,
		},
		{
			name: "find one typed nil store",
			call: func(docstore.Handle) error {
				_, err := docstore.FindOne(ctx, nilStore, ordersKey, bson.M{})
				return err
			},
			sentinel: docstore.ErrInvalidHandle,
		},
		{
			name: "delete many typed nil store",
			call: func(docstore.Handle) error {
				_, err := docstore.DeleteMany(ctx, nilStore, ordersKey, bson.M{})
				return err
			},
			sentinel: docstore.ErrInvalidHandle,
		},
		{
			name: "handle without database",
			call: func(docstore.Handle) error {
				_, err := docstore.FindMany(ctx, docstore.NewHandle(nil), ordersKey, bson.M{})
				return err
			},
			sentinel: docstore.ErrInvalidHandle,
		},
		{
			name: "insert one empty key",
			call: func(h docstore.Handle) error {
				_, err := docstore.InsertOne(ctx, h, "", bson.M{}, bson.NilObjectID)
				return err
			},
			sentinel: docstore.ErrInvalidKey,
		},
		{
			name: "insert one nil document",
			call: func(h docstore.Handle) error {
				_, err := docstore.InsertOne(ctx, h, ordersKey, nil, bson.NewObjectID())
				return err
			},
			sentinel: docstore.ErrInvalidDocument,
		},
		{
			name: "insert many nil slice",
			call: func(h docstore.Handle) error {
				_, err := docstore.InsertMany(ctx, h, ordersKey, nil, nil)
				return err
			},
			sentinel: docstore.ErrInvalidDocument,
		},
		{
			name: "insert many nil entry",
			call: func(h docstore.Handle) error {
				_, err := docstore.InsertMany(ctx, h, ordersKey, []bson.M{{"n": "1"}, nil}, nil)
				return err
			},
			sentinel: docstore.ErrInvalidDocument,
		},
		{
			name: "find one nil filter",
			call: func(h docstore.Handle) error {
				_, err := docstore.FindOne(ctx, h, ordersKey, nil)
				return err
			},
			sentinel: docstore.ErrInvalidFilter,
		},
		{
			name: "find scalar filter",
			call: func(h docstore.Handle) error {
				_, err := docstore.Find(ctx, h, ordersKey, "status")
				return err
			},
			sentinel: docstore.ErrInvalidFilter,
		},
		{
			name: "find many typed nil filter",
			call: func(h docstore.Handle) error {
				var f bson.M
				_, err := docstore.FindMany(ctx, h, ordersKey, f)
				return err
			},
			sentinel: docstore.ErrInvalidFilter,
		},
		{
			name: "update one nil update",
			call: func(h docstore.Handle) error {
				_, err := docstore.UpdateOne(ctx, h, ordersKey, bson.M{}, nil)
				return err
			},
			sentinel: docstore.ErrInvalidUpdate,
		},
		{
			name: "update many operator with scalar value",
			call: func(h docstore.Handle) error {
				_, err := docstore.UpdateMany(ctx, h, ordersKey, bson.M{}, bson.M{"$set": 5})
				return err
			},
			sentinel: docstore.ErrInvalidUpdate,
		},
		{
			name: "update many operator with nil value",
			call: func(h docstore.Handle) error {
				_, err := docstore.UpdateMany(ctx, h, ordersKey, bson.M{}, bson.M{"$inc": nil})
				return err
			},
			sentinel: docstore.ErrInvalidUpdate,
		},
		{
			name: "update one nil filter",
			call: func(h docstore.Handle) error {
				_, err := docstore.UpdateOne(ctx, h, ordersKey, nil, bson.M{"$set": bson.M{"a": "b"}})
				return err
			},
			sentinel: docstore.ErrInvalidFilter,
		},
		{
			name: "delete one nil filter",
			call: func(h docstore.Handle) error {
				_, err := docstore.DeleteOne(ctx, h, ordersKey, nil)
				return err
			},
			sentinel: docstore.ErrInvalidFilter,
		},
		{
			name: "delete many empty key",
			call: func(h docstore.Handle) error {
				_, err := docstore.DeleteMany(ctx, h, "", bson.M{})
				return err
			},
			sentinel: docstore.ErrInvalidKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := docstoretest.NewStore()
			err := tt.call(h)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, docstore.ErrInvalidArgument)

			var argErr *docstore.ArgumentError
			require.True(t, errors.As(err, &argErr))
			assert.NotEmpty(t, argErr.Op)
			assert.Zero(t, h.Calls(), "no driver call on precondition failure")
		})
	}
}
