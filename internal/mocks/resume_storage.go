package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"
)

type ResumeStorage struct {
	mock.Mock
}

func (m *ResumeStorage) Upload(ctx context.Context, path string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, path, reader, size, contentType)
	return args.Error(0)
}

func (m *ResumeStorage) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *ResumeStorage) PresignedURL(ctx context.Context, path, downloadName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, path, downloadName, expiry)
	return args.String(0), args.Error(1)
}
