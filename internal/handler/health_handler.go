package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	db    *sqlx.DB
	redis *redis.Client
}

func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	result := fiber.Map{"status": "ok", "database": "ok", "redis": "disabled"}

	if err := h.db.PingContext(ctx); err != nil {
		status = fiber.StatusServiceUnavailable
		result["status"] = "degraded"
		result["database"] = "unreachable"
	}

	if h.redis != nil {
		result["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			result["redis"] = "unreachable"
		}
	}

	return c.Status(status).JSON(result)
}
