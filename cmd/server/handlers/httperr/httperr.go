package httperr

import (
	"context"
	"errors"

	"docbridge/internal/docstore"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// E represents an HTTP error with status code and message
type E struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e E) Error() string {
	return e.Message
}

// JSON returns the error as JSON response
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// InvalidInput wraps a validation error and returns the standard response.
func InvalidInput(err error) error {
	return Fail(E{
		Status:  fiber.StatusBadRequest,
		Message: "Invalid input: " + err.Error(),
	})
}

// InternalError returns an internal server error with the given message
func InternalError(message string) E {
	return E{Status: fiber.StatusInternalServerError, Message: message}
}

// Pre-defined HTTP errors
var (
	ErrBadRequest      = E{Status: fiber.StatusBadRequest, Message: "Bad Request"}
	ErrUnauthorized    = E{Status: fiber.StatusUnauthorized, Message: "Unauthorized"}
	ErrTooManyRequests = E{Status: fiber.StatusTooManyRequests, Message: "Too Many Requests"}
	ErrInternal        = InternalError("Internal Server Error")
)

// FromStore maps a docstore or driver error onto an HTTP error.
// Argument errors are the caller's fault; everything else came from the server.
func FromStore(err error) E {
	switch {
	case errors.Is(err, docstore.ErrInvalidArgument):
		return E{Status: fiber.StatusBadRequest, Message: err.Error()}
	case mongo.IsDuplicateKeyError(err):
		return E{Status: fiber.StatusConflict, Message: err.Error()}
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return E{Status: fiber.StatusGatewayTimeout, Message: err.Error()}
	default:
		return InternalError(err.Error())
	}
}

// Handler is the global error handler for Fiber
func Handler(c *fiber.Ctx, err error) error {
	var e E
	if errors.As(err, &e) {
		return e.JSON(c)
	}

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		return c.Status(fiberError.Code).JSON(E{
			Status:  fiberError.Code,
			Message: fiberError.Message,
		})
	}

	return ErrInternal.JSON(c)
}
