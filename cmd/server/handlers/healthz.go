package handlers

import (
	"context"
	"errors"
	"time"

	"docbridge/internal/clients/mongo"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const HealthzTimeout = 5 * time.Second

// ErrDatabaseNotInitialized is reported while the mongo singleton is unset.
var ErrDatabaseNotInitialized = errors.New("database not initialized")

// PingFunc checks the backing database.
type PingFunc func(ctx context.Context) error

// PingPrimary pings the primary through the process-wide client.
func PingPrimary(ctx context.Context) error {
	db := mongo.DB()
	if db == nil {
		return ErrDatabaseNotInitialized
	}
	return db.Client().Ping(ctx, readpref.Primary())
}

// Healthz returns a handler reporting {"status": "ok"} while ping succeeds.
// @Summary Health check
// @Description Ping the MongoDB primary
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func Healthz(ping PingFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "down",
				"error":  err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"status": "ok",
		})
	}
}
