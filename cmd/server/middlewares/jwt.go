package middlewares

import (
	"errors"

	"docbridge/cmd/server/handlers/httperr"
	"docbridge/internal/config"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSubject is returned for a verified token without a "sub" claim.
var ErrMissingSubject = errors.New("invalid token: missing subject")

// JWT returns a configured Fiber middleware that:
//
//   - validates the HS256 Bearer token signature using cfg.JWTSecret
//   - makes sure the token carries a "sub" claim
//   - stores it in ctx.Locals("subject") for request logging.
//
// With an empty cfg.JWTSecret the API is open and the middleware passes through.
func JWT(cfg config.Config) fiber.Handler {
	if cfg.JWTSecret == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			token := c.Locals("user").(*jwt.Token)
			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: ErrMissingSubject.Error()})
			}

			c.Locals("subject", subject)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httperr.Fail(httperr.ErrUnauthorized)
		},
	})
}

// Subject returns the authenticated subject, or "" when the API is open.
func Subject(c *fiber.Ctx) string {
	s, _ := c.Locals("subject").(string)
	return s
}
