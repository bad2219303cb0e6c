package resume

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// Storage keeps resume files outside the database.
type Storage interface {
	Upload(ctx context.Context, path string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, path string) error
	PresignedURL(ctx context.Context, path, downloadName string, expiry time.Duration) (string, error)
}

type minioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinIOStorage(client *minio.Client, bucket string) Storage {
	return &minioStorage{client: client, bucket: bucket}
}

func (s *minioStorage) Upload(ctx context.Context, path string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return nil
}

func (s *minioStorage) Remove(ctx context.Context, path string) error {
	return s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
}

func (s *minioStorage) PresignedURL(ctx context.Context, path, downloadName string, expiry time.Duration) (string, error) {
	params := make(url.Values)
	if downloadName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, expiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign resume: %w", err)
	}
	return u.String(), nil
}
