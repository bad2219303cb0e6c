package resume

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"hirecircle/internal/domain"
	"hirecircle/internal/service/application"
)

const MaxSize = 5 * 1024 * 1024

var allowedTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

type Upload struct {
	FileName    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

type Download struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service interface {
	Attach(ctx context.Context, session *domain.Session, applicationID string, upload Upload) (*domain.Application, error)
	DownloadURL(ctx context.Context, session *domain.Session, applicationID string) (*Download, error)
}

type service struct {
	storage      Storage
	applications application.Service
	urlTTL       time.Duration
}

func NewService(storage Storage, applications application.Service, urlTTL time.Duration) Service {
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	return &service{storage: storage, applications: applications, urlTTL: urlTTL}
}

// Attach stores the file and points the caller's application at it. A file
// that was stored but could not be recorded is removed again.
func (s *service) Attach(ctx context.Context, session *domain.Session, applicationID string, upload Upload) (*domain.Application, error) {
	ext, err := validateUpload(upload)
	if err != nil {
		return nil, err
	}

	existing, err := s.applications.Get(ctx, session, applicationID)
	if err != nil {
		return nil, err
	}
	if existing.ApplicantID != session.UserID {
		return nil, domain.Forbidden("only the applicant can attach a resume")
	}

	objectPath := fmt.Sprintf("resumes/%s/%s%s", applicationID, uuid.NewString(), ext)
	if err := s.storage.Upload(ctx, objectPath, upload.Reader, upload.Size, upload.ContentType); err != nil {
		return nil, domain.Persistence("failed to store resume", err)
	}

	app, err := s.applications.AttachResume(ctx, session, applicationID, objectPath)
	if err != nil {
		if rmErr := s.storage.Remove(context.WithoutCancel(ctx), objectPath); rmErr != nil {
			log.Printf("failed to remove orphaned resume %s: %v", objectPath, rmErr)
		}
		return nil, err
	}

	return app, nil
}

func (s *service) DownloadURL(ctx context.Context, session *domain.Session, applicationID string) (*Download, error) {
	app, err := s.applications.Get(ctx, session, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.HasResume() {
		return nil, domain.NotFound("no resume attached")
	}

	url, err := s.storage.PresignedURL(ctx, *app.ResumePath, "resume"+path.Ext(*app.ResumePath), s.urlTTL)
	if err != nil {
		return nil, domain.Persistence("failed to create resume link", err)
	}

	return &Download{URL: url, ExpiresAt: time.Now().UTC().Add(s.urlTTL)}, nil
}

func validateUpload(upload Upload) (string, error) {
	fields := make(map[string]string)

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(upload.ContentType, ";")[0]))
	ext, ok := allowedTypes[contentType]
	if !ok {
		fields["file"] = "must be a PDF or Word document"
	}
	if upload.Size <= 0 {
		fields["file"] = "is required"
	} else if upload.Size > MaxSize {
		fields["file"] = "must be 5MB or smaller"
	}

	if len(fields) > 0 {
		return "", domain.NewValidationError("invalid resume", fields)
	}
	return ext, nil
}
