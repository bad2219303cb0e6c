package middleware

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyMarker = "in-flight"
	idempotencyLock   = 30 * time.Second
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key from the same user on the same route. Requests without the
// header, or without Redis, pass through.
func Idempotency(client *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyHeader)
		if client == nil || key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return BadRequest("Idempotency-Key must be at most 128 characters")
		}

		ctx := c.UserContext()
		cacheKey := "idempotency:" + GetCurrentUserID(c) + ":" + c.Method() + ":" + c.Path() + ":" + key

		claimed, err := client.SetNX(ctx, cacheKey, idempotencyMarker, idempotencyLock).Result()
		if err != nil {
			log.Printf("idempotency store unavailable: %v", err)
			return c.Next()
		}

		if !claimed {
			raw, err := client.Get(ctx, cacheKey).Bytes()
			if errors.Is(err, redis.Nil) {
				return fiber.NewError(fiber.StatusConflict, "Request with this Idempotency-Key expired while in flight, please retry")
			}
			if err != nil {
				log.Printf("idempotency store unavailable: %v", err)
				return c.Next()
			}
			if string(raw) == idempotencyMarker {
				return fiber.NewError(fiber.StatusConflict, "A request with this Idempotency-Key is still in progress")
			}

			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err != nil {
				return err
			}
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, cached.ContentType)
			return c.Status(cached.Status).Send(cached.Body)
		}

		if err := c.Next(); err != nil {
			client.Del(ctx, cacheKey)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusBadRequest {
			client.Del(ctx, cacheKey)
			return nil
		}

		payload, err := json.Marshal(cachedResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err != nil {
			return err
		}
		if err := client.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
			log.Printf("failed to store idempotent response: %v", err)
		}
		return nil
	}
}
