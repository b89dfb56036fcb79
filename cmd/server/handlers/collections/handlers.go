// Package collections exposes the docstore operations over HTTP.
//
// Request and response bodies are relaxed Extended JSON, so identifiers travel
// as {"$oid": "..."} and dates as {"$date": ...}.
package collections

import (
	"context"
	"time"

	"docbridge/cmd/server/handlers/handlerutil"
	"docbridge/cmd/server/middlewares"
	"docbridge/internal/clients/mongo"
	"docbridge/internal/docstore"
	"docbridge/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Handlers contains the collection endpoints.
type Handlers struct {
	store     docstore.Handle
	validator *validator.Validate
	opTimeout time.Duration
}

// NewHandlers creates collection handlers over store. Each call is bounded
// by opTimeout unless the request context ends sooner.
func NewHandlers(store docstore.Handle, v *validator.Validate, opTimeout time.Duration) *Handlers {
	return &Handlers{store: store, validator: v, opTimeout: opTimeout}
}

// Register mounts the endpoints on r.
func (h *Handlers) Register(r fiber.Router) {
	r.Post("/:key/insert-one", h.InsertOne)
	r.Post("/:key/insert-many", h.InsertMany)
	r.Post("/:key/find-one", h.FindOne)
	r.Post("/:key/find", h.Find)
	r.Post("/:key/update-one", h.UpdateOne)
	r.Post("/:key/update-many", h.UpdateMany)
	r.Post("/:key/delete-one", h.DeleteOne)
	r.Post("/:key/delete-many", h.DeleteMany)
}

func (h *Handlers) begin(c *fiber.Ctx, req any, handlerName string) (string, context.Context, context.CancelFunc, error) {
	key, err := handlerutil.CollectionKey(c, h.validator, handlerName)
	if err != nil {
		return "", nil, nil, err
	}
	if err := handlerutil.ParseAndValidateBody(c, req, h.validator, handlerName); err != nil {
		return "", nil, nil, err
	}
	ctx, cancel := mongo.WithOpTimeout(c.UserContext(), h.opTimeout)
	return key, ctx, cancel, nil
}

func (h *Handlers) done(c *fiber.Ctx, handlerName, key string, start time.Time) {
	logger.L().Debug("operation done",
		"handler", handlerName,
		"key", key,
		"requestID", middlewares.RequestIDFrom(c),
		"subject", middlewares.Subject(c),
		"took", time.Since(start),
	)
}

// InsertOneRequest is the body of insert-one.
type InsertOneRequest struct {
	Document bson.M `bson:"document" validate:"required"`
	ID       any    `bson:"id"`
}

// InsertOneResponse is the result of insert-one.
type InsertOneResponse struct {
	Acknowledged bool `bson:"acknowledged"`
	InsertedID   any  `bson:"insertedId"`
}

// InsertOne inserts a single document.
// @Summary Insert one document
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Collection name"
// @Param request body collections.InsertOneRequest true "Insert one request"
// @Success 201 {object} collections.InsertOneResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Failure 504 {object} httperr.E
// @Router /collections/{key}/insert-one [post]
func (h *Handlers) InsertOne(c *fiber.Ctx) error {
	const name = "InsertOne"
	start := time.Now()

	var req InsertOneRequest
	key, ctx, cancel, err := h.begin(c, &req, name)
	if err != nil {
		return err
	}
	defer cancel()

	id, err := docstore.ParseID(req.ID)
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}

	res, err := docstore.InsertOne(ctx, h.store, key, req.Document, id)
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}
	h.done(c, name, key, start)

	return handlerutil.WriteExtJSON(c, fiber.StatusCreated, InsertOneResponse{
		Acknowledged: res.Acknowledged,
		InsertedID:   res.InsertedID,
	})
}

// InsertManyRequest is the body of insert-many.
type InsertManyRequest struct {
	Documents []bson.M `bson:"documents" validate:"required,min=1,dive,required"`
	IDs       []any    `bson:"ids"`
}

// InsertManyResponse is the result of insert-many. insertedIds is positional.
type InsertManyResponse struct {
	Acknowledged bool  `bson:"acknowledged"`
	InsertedIDs  []any `bson:"insertedIds"`
}

// InsertMany inserts documents in order, assigning ids positionally.
// @Summary Insert documents in order
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Collection name"
// @Param request body collections.InsertManyRequest true "Insert many request. ids are assigned by position"
// @Success 201 {object} collections.InsertManyResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Failure 504 {object} httperr.E
// @Router /collections/{key}/insert-many [post]
func (h *Handlers) InsertMany(c *fiber.Ctx) error {
	const name = "InsertMany"
	start := time.Now()

	var req InsertManyRequest
	key, ctx, cancel, err := h.begin(c, &req, name)
	if err != nil {
		return err
	}
	defer cancel()

	ids, err := docstore.ParseIDs(req.IDs)
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}

	res, err := docstore.InsertMany(ctx, h.store, key, req.Documents, ids)
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}
	h.done(c, name, key, start)

	return handlerutil.WriteExtJSON(c, fiber.StatusCreated, InsertManyResponse{
		Acknowledged: res.Acknowledged,
		InsertedIDs:  res.InsertedIDs,
	})
}

// FindOneRequest is the body of find-one.
type FindOneRequest struct {
	Filter     bson.M `bson:"filter" validate:"required"`
	Projection bson.M `bson:"projection"`
}

// FindOneResponse wraps the matched document, null when nothing matched.
type FindOneResponse struct {
	Document any `bson:"document"`
}

// FindOne returns the first match, or {"document": null}.
// @Summary Find the first matching document
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Collection name"
// @Param request body collections.FindOneRequest true "Find one request"
// @Success 200 {object} collections.FindOneResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Failure 504 {object} httperr.E
// @Router /collections/{key}/find-one [post]
func (h *Handlers) FindOne(c *fiber.Ctx) error {
	const name = "FindOne"
	start := time.Now()

	var req FindOneRequest
	key, ctx, cancel, err := h.begin(c, &req, name)
	if err != nil {
		return err
	}
	defer cancel()

	opts := options.FindOne()
	if req.Projection != nil {
		opts.SetProjection(req.Projection)
	}

	doc, err := docstore.FindOne(ctx, h.store, key, req.Filter, opts)
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}
	h.done(c, name, key, start)

	var out any
	if doc != nil {
		out = doc
	}
	return handlerutil.WriteExtJSON(c, fiber.StatusOK, FindOneResponse{Document: out})
}

// maxFindLimit bounds find. An omitted or zero limit means maxFindLimit.
const maxFindLimit = 10000

// FindRequest is the body of find. sort keeps key order.
type FindRequest struct {
	Filter     bson.M `bson:"filter" validate:"required"`
	Sort       bson.D `bson:"sort"`
	Limit      int64  `bson:"limit" validate:"gte=0,lte=10000"`
	Skip       int64  `bson:"skip" validate:"gte=0"`
	Projection bson.M `bson:"projection"`
}

// FindResponse lists the matched documents, [] when nothing matched.
type FindResponse struct {
	Documents []bson.M `bson:"documents"`
}

// Find returns every match, materialized.
// @Summary Find every matching document
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Collection name"
// @Param request body collections.FindRequest true "Find request. limit defaults to and may not exceed 10000"
// @Success 200 {object} collections.FindResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Failure 504 {object} httperr.E
// @Router /collections/{key}/find [post]
func (h *Handlers) Find(c *fiber.Ctx) error {
	const name = "Find"
	start := time.Now()

	var req FindRequest
	key, ctx, cancel, err := h.begin(c, &req, name)
	if err != nil {
		return err
	}
	defer cancel()

	opts := options.Find()
	if len(req.Sort) > 0 {
		opts.SetSort(req.Sort)
	}
	limit := req.Limit
	if limit == 0 {
		limit = maxFindLimit
	}
	opts.SetLimit(limit)
	if req.Skip > 0 {
		opts.SetSkip(req.Skip)
	}
	if req.Projection != nil {
		opts.SetProjection(req.Projection)
	}

	docs, err := docstore.FindMany(ctx, h.store, key, req.Filter, opts)
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}
	h.done(c, name, key, start)

	return handlerutil.WriteExtJSON(c, fiber.StatusOK, FindResponse{Documents: docs})
}

// UpdateRequest is the body of update-one and update-many.
type UpdateRequest struct {
	Filter bson.M `bson:"filter" validate:"required"`
	Update bson.M `bson:"update" validate:"required"`
	Upsert bool   `bson:"upsert"`
}

// UpdateResponse is the result of update-one and update-many.
type UpdateResponse struct {
	Acknowledged  bool  `bson:"acknowledged"`
	MatchedCount  int64 `bson:"matchedCount"`
	ModifiedCount int64 `bson:"modifiedCount"`
	UpsertedCount int64 `bson:"upsertedCount"`
	UpsertedID    any   `bson:"upsertedId"`
}

// UpdateOne updates the first match.
// @Summary Update the first matching document
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Collection name"
// @Param request body collections.UpdateRequest true "Update request. update must use one of $set, $setOrInsert, $unset, $currentDate, $inc, $min, $max, $mul or $rename"
// @Success 200 {object} collections.UpdateResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Failure 504 {object} httperr.E
// @Router /collections/{key}/update-one [post]
func (h *Handlers) UpdateOne(c *fiber.Ctx) error {
	const name = "UpdateOne"
	start := time.Now()

	var req UpdateRequest
	key, ctx, cancel, err := h.begin(c, &req, name)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := docstore.UpdateOne(ctx, h.store, key, req.Filter, req.Update,
		options.UpdateOne().SetUpsert(req.Upsert))
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}
	h.done(c, name, key, start)

	return handlerutil.WriteExtJSON(c, fiber.StatusOK, updateResult(res.Acknowledged,
		res.MatchedCount, res.ModifiedCount, res.UpsertedCount, res.UpsertedID))
}

// UpdateMany updates every match.
// @Summary Update every matching document
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Collection name"
// @Param request body collections.UpdateRequest true "Update request. update must use one of $set, $setOrInsert, $unset, $currentDate, $inc, $min, $max, $mul or $rename"
// @Success 200 {object} collections.UpdateResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Failure 504 {object} httperr.E
// @Router /collections/{key}/update-many [post]
func (h *Handlers) UpdateMany(c *fiber.Ctx) error {
	const name = "UpdateMany"
	start := time.Now()

	var req UpdateRequest
	key, ctx, cancel, err := h.begin(c, &req, name)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := docstore.UpdateMany(ctx, h.store, key, req.Filter, req.Update,
		options.UpdateMany().SetUpsert(req.Upsert))
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}
	h.done(c, name, key, start)

	return handlerutil.WriteExtJSON(c, fiber.StatusOK, updateResult(res.Acknowledged,
		res.MatchedCount, res.ModifiedCount, res.UpsertedCount, res.UpsertedID))
}

func updateResult(ack bool, matched, modified, upserted int64, upsertedID any) UpdateResponse {
	return UpdateResponse{
		Acknowledged:  ack,
		MatchedCount:  matched,
		ModifiedCount: modified,
		UpsertedCount: upserted,
		UpsertedID:    upsertedID,
	}
}

// DeleteRequest is the body of delete-one and delete-many.
type DeleteRequest struct {
	Filter bson.M `bson:"filter" validate:"required"`
}

// DeleteResponse is the result of delete-one and delete-many.
type DeleteResponse struct {
	Acknowledged bool  `bson:"acknowledged"`
	DeletedCount int64 `bson:"deletedCount"`
}

// DeleteOne removes the first match.
// @Summary Delete the first matching document
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Collection name"
// @Param request body collections.DeleteRequest true "Delete request"
// @Success 200 {object} collections.DeleteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Failure 504 {object} httperr.E
// @Router /collections/{key}/delete-one [post]
func (h *Handlers) DeleteOne(c *fiber.Ctx) error {
	const name = "DeleteOne"
	start := time.Now()

	var req DeleteRequest
	key, ctx, cancel, err := h.begin(c, &req, name)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := docstore.DeleteOne(ctx, h.store, key, req.Filter)
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}
	h.done(c, name, key, start)

	return handlerutil.WriteExtJSON(c, fiber.StatusOK, DeleteResponse{
		Acknowledged: res.Acknowledged,
		DeletedCount: res.DeletedCount,
	})
}

// DeleteMany removes every match.
// @Summary Delete every matching document
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Collection name"
// @Param request body collections.DeleteRequest true "Delete request"
// @Success 200 {object} collections.DeleteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Failure 504 {object} httperr.E
// @Router /collections/{key}/delete-many [post]
func (h *Handlers) DeleteMany(c *fiber.Ctx) error {
	const name = "DeleteMany"
	start := time.Now()

	var req DeleteRequest
	key, ctx, cancel, err := h.begin(c, &req, name)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := docstore.DeleteMany(ctx, h.store, key, req.Filter)
	if err != nil {
		return handlerutil.HandleStoreError(c, err, name, key)
	}
	h.done(c, name, key, start)

	return handlerutil.WriteExtJSON(c, fiber.StatusOK, DeleteResponse{
		Acknowledged: res.Acknowledged,
		DeletedCount: res.DeletedCount,
	})
}
