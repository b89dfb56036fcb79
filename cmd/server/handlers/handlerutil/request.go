package handlerutil

import (
	"docbridge/cmd/server/handlers/httperr"
	"docbridge/cmd/server/middlewares"
	"docbridge/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Collection names may not contain "$".
const collectionKeyRule = "required,max=255,excludesall=$"

// CollectionKey extracts and validates the :key route parameter.
func CollectionKey(c *fiber.Ctx, v *validator.Validate, handlerName string) (string, error) {
	key := c.Params("key")
	if err := v.Var(key, collectionKeyRule); err != nil {
		logger.L().Warn("invalid collection key", "handler", handlerName, "key", key,
			"requestID", middlewares.RequestIDFrom(c), "error", err)
		return "", httperr.InvalidInput(err)
	}
	return key, nil
}

// ParseAndValidateBody decodes a relaxed Extended JSON body into req and validates it.
func ParseAndValidateBody(c *fiber.Ctx, req any, v *validator.Validate, handlerName string) error {
	if err := bson.UnmarshalExtJSON(c.Body(), false, req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName,
			"requestID", middlewares.RequestIDFrom(c), "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := v.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName,
			"requestID", middlewares.RequestIDFrom(c), "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// WriteExtJSON sends doc, a document or bson-tagged struct, as relaxed Extended JSON.
func WriteExtJSON(c *fiber.Ctx, status int, doc any) error {
	body, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		logger.L().Error("failed to encode response", "requestID", middlewares.RequestIDFrom(c), "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}

// HandleStoreError logs a failed docstore call and converts it to an HTTP error.
func HandleStoreError(c *fiber.Ctx, err error, handlerName, key string) error {
	e := httperr.FromStore(err)
	logFields := []any{
		"handler", handlerName,
		"key", key,
		"requestID", middlewares.RequestIDFrom(c),
		"status", e.Status,
		"error", err,
	}

	if e.Status < fiber.StatusInternalServerError {
		logger.L().Info("operation rejected", logFields...)
	} else {
		logger.L().Error("operation failed", logFields...)
	}
	return httperr.Fail(e)
}
