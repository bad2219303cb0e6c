package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hirecircle/internal/config"
	"hirecircle/internal/domain"
	"hirecircle/internal/gateway"
	"hirecircle/internal/mocks"
	"hirecircle/internal/repository"
	"hirecircle/internal/service/identity"
	"hirecircle/internal/testutil"
)

var testConfig = &config.Config{
	JWTSecret:        "test-secret",
	JWTAccessExpiry:  15 * time.Minute,
	JWTRefreshExpiry: time.Hour,
}

type brokenProfileGateway struct {
	gateway.Gateway
}

func (b brokenProfileGateway) Insert(ctx context.Context, collection string, row gateway.Row, dest any) error {
	return domain.Persistence("insert "+collection+" failed", errors.New("disk full"))
}

func newService(t *testing.T, gw func(*sqlx.DB) gateway.Gateway) (identity.Service, *repository.Repositories) {
	t.Helper()
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	return identity.NewService(repos.Credential, repos.Session, gw(db), nil, testConfig), repos
}

func sqlGateway(db *sqlx.DB) gateway.Gateway { return gateway.NewSQLGateway(db) }

func validInput() domain.RegisterInput {
	return domain.RegisterInput{
		Email:    "Jane@Example.com",
		Password: "secret1",
		FullName: "  Jane Doe ",
		UserType: domain.RoleEmployee,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, repos := newService(t, sqlGateway)

		profile, err := svc.Register(ctx, validInput())
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", profile.FullName)
		assert.Equal(t, domain.RoleEmployee, profile.UserType)

		cred, err := repos.Credential.GetByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		require.NotNil(t, cred)
		assert.Equal(t, profile.ID, cred.ID)
		assert.NotEqual(t, "secret1", cred.PasswordHash)
	})

	t.Run("Validation Error", func(t *testing.T) {
		svc, _ := newService(t, sqlGateway)

		_, err := svc.Register(ctx, domain.RegisterInput{Email: "not-an-email", Password: "123", FullName: " ", UserType: "admin"})

		assert.ErrorIs(t, err, domain.ErrValidation)
		fields := domain.FieldErrors(err)
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
		assert.Contains(t, fields, "full_name")
		assert.Contains(t, fields, "user_type")
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		svc, _ := newService(t, sqlGateway)

		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		_, err = svc.Register(ctx, validInput())
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Profile Failure Removes Credential", func(t *testing.T) {
		svc, repos := newService(t, func(db *sqlx.DB) gateway.Gateway {
			return brokenProfileGateway{gateway.NewSQLGateway(db)}
		})

		_, err := svc.Register(ctx, validInput())
		assert.ErrorIs(t, err, domain.ErrPersistence)

		exists, err := repos.Credential.ExistsByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestRegister_SendsWelcomeEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	mockEmail := new(mocks.EmailService)
	svc := identity.NewService(repos.Credential, repos.Session, gateway.NewSQLGateway(db), mockEmail, testConfig)

	sent := make(chan struct{})
	mockEmail.On("SendRegistrationEmail", mock.Anything, "jane@example.com", "Jane Doe").
		Return(nil).
		Run(func(mock.Arguments) { close(sent) }).
		Once()

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("registration email was not sent")
	}
	mockEmail.AssertExpectations(t)
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, sqlGateway)

	profile, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		tokens, err := svc.Login(ctx, domain.LoginInput{Email: "jane@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, int64(900), tokens.ExpiresIn)

		session, err := svc.Authenticate(ctx, tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, session.UserID)
		assert.Equal(t, "jane@example.com", session.Email)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		_, err := svc.Login(ctx, domain.LoginInput{Email: "jane@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		_, err := svc.Login(ctx, domain.LoginInput{Email: "nobody@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, sqlGateway)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &identity.Claims{UserID: "u1"})
	foreignToken, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &identity.Claims{UserID: "u1"})
	unsignedToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &identity.Claims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	expiredToken, err := expired.SignedString([]byte(testConfig.JWTSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"Empty":        "",
		"Garbage":      "not.a.token",
		"Wrong Secret": foreignToken,
		"Alg None":     unsignedToken,
		"Expired":      expiredToken,
	} {
		t.Run(name, func(t *testing.T) {
			session, err := svc.Authenticate(ctx, token)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestRefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, sqlGateway)

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	tokens, err := svc.Login(ctx, domain.LoginInput{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The old refresh token was consumed by the rotation.
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.NoError(t, svc.Logout(ctx, rotated.RefreshToken))
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// Logging out twice is harmless.
	assert.NoError(t, svc.Logout(ctx, rotated.RefreshToken))
}
