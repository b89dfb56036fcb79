//go:build e2e

package test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCollectionsLifecycleE2E(t *testing.T) {
	env := SetupTestEnvironment(t)
	orders := collectionsEndpoint + "/orders"
	oid := bson.NewObjectID()

	ExecuteHTTPJSONSteps(t, []HTTPJSONStep{
		{
			Name:           "insert one with explicit id",
			Method:         http.MethodPost,
			URL:            orders + "/insert-one",
			Body:           fmt.Sprintf(`{"document": {"sku": "a-1", "qty": 1}, "id": {"$oid": %q}}`, oid.Hex()),
			ExpectedStatus: http.StatusCreated,
			Validator: func(t *testing.T, r bson.M) {
				assert.Equal(t, oid, r["insertedId"])
			},
		},
		{
			Name:           "duplicate id conflicts",
			Method:         http.MethodPost,
			URL:            orders + "/insert-one",
			Body:           fmt.Sprintf(`{"document": {}, "id": %q}`, oid.Hex()),
			ExpectedStatus: http.StatusConflict,
			Validator:      ErrorMessageValidator("duplicate key"),
		},
		{
			Name:           "insert many",
			Method:         http.MethodPost,
			URL:            orders + "/insert-many",
			Body:           `{"documents": [{"sku": "b-1", "qty": 2}, {"sku": "b-2", "qty": 3}]}`,
			ExpectedStatus: http.StatusCreated,
			Validator: func(t *testing.T, r bson.M) {
				ids, ok := r["insertedIds"].(bson.A)
				require.True(t, ok)
				assert.Len(t, ids, 2)
			},
		},
		{
			Name:           "find sorted with limit",
			Method:         http.MethodPost,
			URL:            orders + "/find",
			Body:           `{"filter": {}, "sort": {"qty": -1}, "limit": 2, "projection": {"_id": 0, "sku": 1}}`,
			ExpectedStatus: http.StatusOK,
			Validator: func(t *testing.T, r bson.M) {
				docs, ok := r["documents"].(bson.A)
				require.True(t, ok)
				require.Len(t, docs, 2)
				assert.Equal(t, bson.D{{Key: "sku", Value: "b-2"}}, docs[0])
				assert.Equal(t, bson.D{{Key: "sku", Value: "b-1"}}, docs[1])
			},
		},
		{
			Name:           "find one by id",
			Method:         http.MethodPost,
			URL:            orders + "/find-one",
			Body:           fmt.Sprintf(`{"filter": {"_id": {"$oid": %q}}}`, oid.Hex()),
			ExpectedStatus: http.StatusOK,
			Validator: func(t *testing.T, r bson.M) {
				doc, ok := r["document"].(bson.D)
				require.True(t, ok)
				assert.Contains(t, doc, bson.E{Key: "sku", Value: "a-1"})
			},
		},
		{
			Name:           "update rejects replacement document",
			Method:         http.MethodPost,
			URL:            orders + "/update-many",
			Body:           `{"filter": {}, "update": {"qty": 0}}`,
			ExpectedStatus: http.StatusBadRequest,
			Validator:      ErrorMessageValidator("$inc"),
		},
		{
			Name:           "update many",
			Method:         http.MethodPost,
			URL:            orders + "/update-many",
			Body:           `{"filter": {"sku": {"$regex": "^b-"}}, "update": {"$inc": {"qty": 10}}}`,
			ExpectedStatus: http.StatusOK,
			Validator:      CountValidator("modifiedCount", 2),
		},
		{
			Name:           "update one upserts",
			Method:         http.MethodPost,
			URL:            orders + "/update-one",
			Body:           `{"filter": {"sku": "c-1"}, "update": {"$set": {"qty": 7}}, "upsert": true}`,
			ExpectedStatus: http.StatusOK,
			Validator:      CountValidator("upsertedCount", 1),
		},
		{
			Name:           "delete one",
			Method:         http.MethodPost,
			URL:            orders + "/delete-one",
			Body:           `{"filter": {"sku": "c-1"}}`,
			ExpectedStatus: http.StatusOK,
			Validator:      CountValidator("deletedCount", 1),
		},
		{
			Name:           "delete many with no match",
			Method:         http.MethodPost,
			URL:            orders + "/delete-many",
			Body:           `{"filter": {"sku": "zzz"}}`,
			ExpectedStatus: http.StatusOK,
			Validator:      CountValidator("deletedCount", 0),
		},
		{
			Name:           "delete many",
			Method:         http.MethodPost,
			URL:            orders + "/delete-many",
			Body:           `{"filter": {}}`,
			ExpectedStatus: http.StatusOK,
			Validator:      CountValidator("deletedCount", 3),
		},
		{
			Name:           "find after delete is empty",
			Method:         http.MethodPost,
			URL:            orders + "/find",
			Body:           `{"filter": {}}`,
			ExpectedStatus: http.StatusOK,
			Validator: func(t *testing.T, r bson.M) {
				docs, ok := r["documents"].(bson.A)
				require.True(t, ok)
				assert.Empty(t, docs)
			},
		},
	}, env.BaseURL)
}
