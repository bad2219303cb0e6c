package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hirecircle/internal/config"
	"hirecircle/internal/domain"
	"hirecircle/internal/gateway"
	"hirecircle/internal/repository"
	"hirecircle/internal/service/email"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = domain.NewError(domain.ErrUnauthenticated, "invalid email or password", nil)
	ErrInvalidToken       = domain.NewError(domain.ErrUnauthenticated, "invalid or expired token", nil)
)

type Service interface {
	Register(ctx context.Context, input domain.RegisterInput) (*domain.Profile, error)
	Login(ctx context.Context, input domain.LoginInput) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*domain.Session, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type service struct {
	credentialRepo repository.CredentialRepository
	sessionRepo    repository.SessionRepository
	gw             gateway.Gateway
	emailService   email.Service
	cfg            *config.Config
	now            func() time.Time
}

func NewService(credentialRepo repository.CredentialRepository, sessionRepo repository.SessionRepository, gw gateway.Gateway, emailService email.Service, cfg *config.Config) Service {
	return &service{
		credentialRepo: credentialRepo,
		sessionRepo:    sessionRepo,
		gw:             gw,
		emailService:   emailService,
		cfg:            cfg,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Register creates the credential and then the profile. A failed profile
// insert deletes the credential again so no identity is left without a role.
func (s *service) Register(ctx context.Context, input domain.RegisterInput) (*domain.Profile, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	exists, err := s.credentialRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, gateway.Classify(err, "check email")
	}
	if exists {
		return nil, domain.Conflict("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	cred := &repository.Credential{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now(),
	}
	if err := s.credentialRepo.Create(ctx, cred); err != nil {
		err = gateway.Classify(err, "create credential")
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict("email already registered")
		}
		return nil, err
	}

	var profile domain.Profile
	err = s.gw.Insert(ctx, gateway.Profiles, gateway.Row{
		"id":         cred.ID,
		"full_name":  input.FullName,
		"user_type":  string(input.UserType),
		"created_at": cred.CreatedAt,
	}, &profile)
	if err != nil {
		if delErr := s.credentialRepo.Delete(context.WithoutCancel(ctx), cred.ID); delErr != nil {
			log.Printf("failed to remove credential %s after profile insert failed: %v", cred.ID, delErr)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if s.emailService != nil {
		go func(toEmail, fullName string) {
			if err := s.emailService.SendRegistrationEmail(context.Background(), toEmail, fullName); err != nil {
				log.Printf("failed to send registration email: %v", err)
			}
		}(cred.Email, profile.FullName)
	}

	return &profile, nil
}

func (s *service) Login(ctx context.Context, input domain.LoginInput) (*domain.TokenPair, error) {
	cred, err := s.credentialRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, gateway.Classify(err, "load credential")
	}
	if cred == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(ctx, cred)
}

// Refresh rotates a refresh token. Each token can be exchanged once.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, gateway.Classify(err, "load session")
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.sessionRepo.Revoke(ctx, session.ID)
	if err != nil {
		return nil, gateway.Classify(err, "revoke session")
	}
	if !revoked {
		return nil, ErrInvalidToken
	}

	cred, err := s.credentialRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, gateway.Classify(err, "load credential")
	}
	if cred == nil {
		return nil, ErrInvalidToken
	}

	return s.generateTokenPair(ctx, cred)
}

func (s *service) Authenticate(ctx context.Context, accessToken string) (*domain.Session, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	session := &domain.Session{
		UserID: claims.UserID,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return gateway.Classify(err, "load session")
	}
	if session == nil {
		return nil
	}

	if _, err := s.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return gateway.Classify(err, "revoke session")
	}
	return nil
}

func (s *service) generateTokenPair(ctx context.Context, cred *repository.Credential) (*domain.TokenPair, error) {
	now := s.now()
	accessClaims := &Claims{
		UserID: cred.ID,
		Email:  cred.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTAccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   cred.ID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}
	refreshTokenRaw := hex.EncodeToString(tokenBytes)

	session := &repository.Session{
		ID:        uuid.NewString(),
		UserID:    cred.ID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: now.Add(s.cfg.JWTRefreshExpiry),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, gateway.Classify(err, "create session")
	}

	return &domain.TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

func validateRegistration(input domain.RegisterInput) error {
	fields := make(map[string]string)

	if input.Email == "" {
		fields["email"] = "is required"
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		fields["email"] = "is not a valid email address"
	}
	if len(input.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	}
	if input.FullName == "" {
		fields["full_name"] = "is required"
	}
	if !input.UserType.IsValid() {
		fields["user_type"] = "must be employer or employee"
	}

	if len(fields) > 0 {
		return domain.NewValidationError("invalid registration", fields)
	}
	return nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
