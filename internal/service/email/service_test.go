package email

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirecircle/internal/config"
	"hirecircle/internal/domain"
	"hirecircle/internal/pkg/i18n"
)

type recordingSender struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (r *recordingSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	r.sent = append(r.sent, params)
	if r.err != nil {
		return nil, r.err
	}
	return &resend.SendEmailResponse{Id: "msg_1"}, nil
}

func newTestService(t *testing.T, locale string) (*service, *recordingSender) {
	t.Helper()
	require.NoError(t, i18n.LoadEmbedded())

	rec := &recordingSender{}
	return &service{
		emails: rec,
		config: &config.Config{FromEmail: "jobs@example.com", Domain: "hire.example.com", Locale: locale},
	}, rec
}

func TestSendStatusChangeEmail(t *testing.T) {
	svc, rec := newTestService(t, "en")

	err := svc.SendStatusChangeEmail(context.Background(), "jane@example.com", "Jane", "Backend Engineer", domain.StatusInReview)
	require.NoError(t, err)

	require.Len(t, rec.sent, 1)
	msg := rec.sent[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.To)
	assert.Equal(t, "HireCircle <jobs@example.com>", msg.From)
	assert.Equal(t, "Your application for Backend Engineer was updated", msg.Subject)
	assert.Contains(t, msg.Html, "Hi Jane")
	assert.Contains(t, msg.Html, "in review")
	assert.Contains(t, msg.Html, "https://hire.example.com/applications")
}

func TestSendRegistrationEmail_Localized(t *testing.T) {
	svc, rec := newTestService(t, "id")

	require.NoError(t, svc.SendRegistrationEmail(context.Background(), "budi@example.com", "Budi"))

	require.Len(t, rec.sent, 1)
	assert.Equal(t, "Selamat datang di HireCircle!", rec.sent[0].Subject)
}

func TestSendEmail_PropagatesSendFailure(t *testing.T) {
	svc, rec := newTestService(t, "en")
	rec.err = errors.New("rate limited")

	err := svc.SendRegistrationEmail(context.Background(), "x@example.com", "X")
	assert.EqualError(t, err, "rate limited")
}

func TestSendEmail_DisabledWithoutAPIKey(t *testing.T) {
	require.NoError(t, i18n.LoadEmbedded())
	svc := NewService(&config.Config{Locale: "en"})

	err := svc.SendStatusChangeEmail(context.Background(), "x@example.com", "X", "Role", domain.StatusAccepted)
	assert.NoError(t, err)
}
