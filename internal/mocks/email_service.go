// Package mocks holds testify mocks for the service collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"hirecircle/internal/domain"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendRegistrationEmail(ctx context.Context, toEmail, fullName string) error {
	args := m.Called(ctx, toEmail, fullName)
	return args.Error(0)
}

func (m *EmailService) SendStatusChangeEmail(ctx context.Context, toEmail, applicantName, jobTitle string, status domain.ApplicationStatus) error {
	args := m.Called(ctx, toEmail, applicantName, jobTitle, status)
	return args.Error(0)
}
