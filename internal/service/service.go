package service

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"hirecircle/internal/config"
	"hirecircle/internal/gateway"
	"hirecircle/internal/repository"
	"hirecircle/internal/service/application"
	"hirecircle/internal/service/email"
	"hirecircle/internal/service/identity"
	"hirecircle/internal/service/listing"
	"hirecircle/internal/service/notification"
	"hirecircle/internal/service/posting"
	"hirecircle/internal/service/resume"
	"hirecircle/internal/service/role"
)

const (
	readRetries      = 3
	readRetryBackoff = 100 * time.Millisecond
)

type Services struct {
	Gateway      gateway.Gateway
	Identity     identity.Service
	Roles        role.Resolver
	Postings     posting.Service
	Applications application.Service
	Notification notification.Service
	Email        email.Service
	// Resumes is nil when object storage is unavailable.
	Resumes resume.Service
}

func NewServices(db *sqlx.DB, redisClient *redis.Client, minioClient *minio.Client, cfg *config.Config) *Services {
	repos := repository.NewRepositories(db)
	gw := gateway.WithRetry(gateway.NewSQLGateway(db), readRetries, readRetryBackoff)

	emailService := email.NewService(cfg)
	roles := role.NewResolver(gw)
	listings := listing.NewCache(redisClient, cfg.FeedSnapshotTTL)
	notificationService := notification.NewService(gw, notification.NewSnapshotStore(redisClient, cfg.FeedSnapshotTTL))
	applicationService := application.NewService(gw, roles, notificationService, emailService, listings, cfg.Locale)

	var resumeService resume.Service
	if minioClient != nil {
		resumeService = resume.NewService(resume.NewMinIOStorage(minioClient, cfg.MinIOBucket), applicationService, cfg.ResumeURLTTL)
	}

	return &Services{
		Gateway:      gw,
		Identity:     identity.NewService(repos.Credential, repos.Session, gw, emailService, cfg),
		Roles:        roles,
		Postings:     posting.NewService(gw, roles, listings),
		Applications: applicationService,
		Notification: notificationService,
		Email:        emailService,
		Resumes:      resumeService,
	}
}
