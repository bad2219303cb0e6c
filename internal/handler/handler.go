package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"hirecircle/internal/service"
	"hirecircle/internal/service/listing"
)

const listingStaleHeader = "X-Listing-Stale"

type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Posting      *PostingHandler
	Application  *ApplicationHandler
	Notification *NotificationHandler
	Health       *HealthHandler
}

func NewHandlers(services *service.Services, db *sqlx.DB, redisClient *redis.Client) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(services.Identity),
		User:         NewUserHandler(),
		Posting:      NewPostingHandler(services.Postings),
		Application:  NewApplicationHandler(services.Applications, services.Resumes),
		Notification: NewNotificationHandler(services.Notification),
		Health:       NewHealthHandler(db, redisClient),
	}
}

// respondListing serves a listing, falling back to the last good rows when
// the store is unreachable.
func respondListing[T any](c *fiber.Ctx, rows []T, err error) error {
	if err != nil {
		if !listing.IsStale(rows, err) {
			return err
		}
		c.Set(listingStaleHeader, "true")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": rows})
}
