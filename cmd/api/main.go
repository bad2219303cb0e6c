package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"hirecircle/internal/config"
	"hirecircle/internal/database"
	"hirecircle/internal/domain"
	"hirecircle/internal/handler"
	"hirecircle/internal/middleware"
	"hirecircle/internal/pkg/i18n"
	"hirecircle/internal/service"
)

// Resumes may be up to 5MB plus multipart overhead.
const bodyLimit = 6 * 1024 * 1024

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := i18n.LoadEmbedded(); err != nil {
		log.Fatalf("Failed to load message catalogs: %v", err)
	}

	db, err := config.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if client, err := config.NewRedisClient(cfg); err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (rate limiting, idempotency and shared feed snapshots disabled)", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	var minioClient *minio.Client
	if client, err := config.NewMinIOClient(cfg); err != nil {
		log.Printf("Warning: Failed to connect to MinIO: %v (resume upload will not work)", err)
	} else {
		minioClient = client
	}

	services := service.NewServices(db, redisClient, minioClient, cfg)
	handlers := handler.NewHandlers(services, db, redisClient)

	app := newApp(cfg)
	setupRoutes(app, handlers, services, redisClient, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    bodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.IdempotencyHeader,
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	return app
}

func setupRoutes(app *fiber.App, h *handler.Handlers, services *service.Services, redisClient *redis.Client, cfg *config.Config) {
	app.Get("/health", h.Health.Check)

	v1 := app.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.RefreshToken)
	auth.Post("/logout", h.Auth.Logout)

	idempotent := middleware.Idempotency(redisClient, cfg.IdempotencyTTL)
	applyLimit := middleware.RateLimit(middleware.NewRedisLimiter(redisClient), middleware.ApplyKey, cfg.ApplyRateLimit, cfg.ApplyRateWindow)
	employer := middleware.RequireRole(services.Roles, domain.RoleEmployer)
	employee := middleware.RequireRole(services.Roles, domain.RoleEmployee)

	protected := v1.Group("", middleware.AuthRequired(services.Identity), middleware.RequireProfile(services.Roles))

	protected.Get("/me", h.User.GetProfile)

	postings := protected.Group("/postings")
	postings.Get("/", h.Posting.ListOpen)
	postings.Get("/mine", employer, h.Posting.ListMine)
	postings.Post("/", employer, idempotent, h.Posting.Create)
	postings.Get("/:id", h.Posting.Get)
	postings.Post("/:id/close", employer, h.Posting.Close)
	postings.Post("/:id/applications", employee, applyLimit, idempotent, h.Application.Submit)

	applications := protected.Group("/applications")
	applications.Get("/", h.Application.List)
	applications.Get("/:id", h.Application.Get)
	applications.Patch("/:id/status", employer, idempotent, h.Application.UpdateStatus)
	applications.Put("/:id/resume", employee, h.Application.UploadResume)
	applications.Get("/:id/resume", h.Application.GetResume)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Post("/read-all", h.Notification.MarkAllAsRead)
}
