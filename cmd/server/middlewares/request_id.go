package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

// HeaderRequestID carries the request ULID in both directions.
const HeaderRequestID = "X-Request-ID"

const requestIDLocal = "requestID"

// RequestID assigns every request a ULID, reusing a well-formed incoming
// X-Request-ID, and echoes it in the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if _, err := ulid.ParseStrict(id); err != nil {
			id = ulid.Make().String()
		}
		c.Locals(requestIDLocal, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// RequestIDFrom returns the request ULID, or "" outside the RequestID middleware.
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}
