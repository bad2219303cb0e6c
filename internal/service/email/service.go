package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"

	"github.com/resend/resend-go/v3"

	"hirecircle/internal/config"
	"hirecircle/internal/domain"
	"hirecircle/internal/pkg/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

type Service interface {
	SendRegistrationEmail(ctx context.Context, toEmail, fullName string) error
	SendStatusChangeEmail(ctx context.Context, toEmail, applicantName, jobTitle string, status domain.ApplicationStatus) error
}

type sender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type service struct {
	emails sender
	config *config.Config
}

func NewService(cfg *config.Config) Service {
	var emails sender
	if cfg.ResendAPIKey != "" {
		emails = resend.NewClient(cfg.ResendAPIKey).Emails
	}
	return &service{
		emails: emails,
		config: cfg,
	}
}

func (s *service) render(templateName string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		return "", fmt.Errorf("failed to parse email templates: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout.html", data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

func (s *service) sendEmail(toEmail, subject, templateName string, data interface{}) error {
	body, err := s.render(templateName, data)
	if err != nil {
		return err
	}

	if s.emails == nil {
		log.Printf("email disabled, dropping %q to %s", subject, toEmail)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("HireCircle <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    body,
		Subject: subject,
	}

	_, err = s.emails.Send(params)
	return err
}

func (s *service) SendRegistrationEmail(ctx context.Context, toEmail, fullName string) error {
	locale := s.config.Locale
	data := struct {
		Title string
		Name  string
		Link  string
	}{
		Title: i18n.Translate(locale, "EMAIL_WELCOME_TITLE"),
		Name:  fullName,
		Link:  fmt.Sprintf("https://%s/login", s.config.Domain),
	}
	return s.sendEmail(toEmail, i18n.Translate(locale, "EMAIL_WELCOME_SUBJECT"), "registration.html", data)
}

func (s *service) SendStatusChangeEmail(ctx context.Context, toEmail, applicantName, jobTitle string, status domain.ApplicationStatus) error {
	locale := s.config.Locale
	data := struct {
		Title    string
		Name     string
		JobTitle string
		Status   string
		Link     string
	}{
		Title:    i18n.Translate(locale, "EMAIL_STATUS_TITLE"),
		Name:     applicantName,
		JobTitle: jobTitle,
		Status:   StatusLabel(locale, status),
		Link:     fmt.Sprintf("https://%s/applications", s.config.Domain),
	}
	subject := i18n.Format(locale, "EMAIL_STATUS_SUBJECT", map[string]string{"job": jobTitle})
	return s.sendEmail(toEmail, subject, "status_change.html", data)
}

// StatusLabel is the human-readable name of an application status.
func StatusLabel(locale string, status domain.ApplicationStatus) string {
	switch status {
	case domain.StatusPending:
		return i18n.Translate(locale, "STATUS_PENDING")
	case domain.StatusInReview:
		return i18n.Translate(locale, "STATUS_IN_REVIEW")
	case domain.StatusAccepted:
		return i18n.Translate(locale, "STATUS_ACCEPTED")
	case domain.StatusRejected:
		return i18n.Translate(locale, "STATUS_REJECTED")
	default:
		return string(status)
	}
}
