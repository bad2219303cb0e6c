package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirecircle/internal/config"
	"hirecircle/internal/handler"
	"hirecircle/internal/pkg/i18n"
	"hirecircle/internal/service"
	"hirecircle/internal/testutil"
)

type client struct {
	t   *testing.T
	app *fiber.App
}

type response struct {
	status int
	header map[string]string
	body   map[string]any
}

func (c *client) do(method, path, token string, body any, headers ...string) response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)

	out := response{status: resp.StatusCode, header: map[string]string{}}
	for k := range resp.Header {
		out.header[k] = resp.Header.Get(k)
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func (c *client) signup(email, fullName, userType string) string {
	c.t.Helper()

	resp := c.do("POST", "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "secret123", "full_name": fullName, "user_type": userType,
	})
	require.Equal(c.t, fiber.StatusCreated, resp.status, resp.body)

	resp = c.do("POST", "/api/v1/auth/login", "", map[string]string{"email": email, "password": "secret123"})
	require.Equal(c.t, fiber.StatusOK, resp.status, resp.body)
	return resp.body["access_token"].(string)
}

func newTestClient(t *testing.T) *client {
	t.Helper()
	require.NoError(t, i18n.LoadEmbedded())

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		CORSOrigins:      "*",
		Locale:           "en",
		ApplyRateLimit:   5,
		ApplyRateWindow:  time.Minute,
		IdempotencyTTL:   time.Hour,
		FeedSnapshotTTL:  time.Hour,
	}

	db := testutil.NewDB(t)
	services := service.NewServices(db, redisClient, nil, cfg)
	app := newApp(cfg)
	setupRoutes(app, handler.NewHandlers(services, db, redisClient), services, redisClient, cfg)

	return &client{t: t, app: app}
}

func data(resp response) []any {
	items, _ := resp.body["data"].([]any)
	return items
}

func TestApplicationLifecycle(t *testing.T) {
	c := newTestClient(t)

	acme := c.signup("hr@acme.test", "Acme", "employer")
	globex := c.signup("hr@globex.test", "Globex", "employer")
	jane := c.signup("jane@example.com", "Jane Doe", "employee")

	resp := c.do("GET", "/api/v1/me", jane, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "employee", resp.body["user_type"])

	resp = c.do("POST", "/api/v1/postings", jane, map[string]string{"title": "x", "description": "y", "requirements": "z"})
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = c.do("POST", "/api/v1/postings", acme, map[string]string{"title": " ", "description": "y", "requirements": "z"})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.status)
	assert.Equal(t, "VALIDATION_ERROR", resp.body["code"])
	assert.Contains(t, resp.body["details"], "title")

	resp = c.do("POST", "/api/v1/postings", acme, map[string]string{
		"title": "Backend Engineer", "description": "Build services", "requirements": "Go",
	})
	require.Equal(t, fiber.StatusCreated, resp.status, resp.body)
	postingID := resp.body["id"].(string)

	resp = c.do("GET", "/api/v1/postings", jane, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	require.Len(t, data(resp), 1)
	assert.Equal(t, "Acme", data(resp)[0].(map[string]any)["employer_name"])

	submission := map[string]string{
		"email": "jane@example.com", "phone": "555-0100", "qualifications": "BSc",
		"experience": "5 years", "cover_letter": "Hello",
	}
	first := c.do("POST", "/api/v1/postings/"+postingID+"/applications", jane, submission, "Idempotency-Key", "apply-1")
	require.Equal(t, fiber.StatusCreated, first.status, first.body)
	appID := first.body["id"].(string)
	assert.Equal(t, "pending", first.body["status"])

	replay := c.do("POST", "/api/v1/postings/"+postingID+"/applications", jane, submission, "Idempotency-Key", "apply-1")
	assert.Equal(t, fiber.StatusCreated, replay.status)
	assert.Equal(t, appID, replay.body["id"])
	assert.Equal(t, "true", replay.header["Idempotent-Replayed"])

	dup := c.do("POST", "/api/v1/postings/"+postingID+"/applications", jane, submission)
	assert.Equal(t, fiber.StatusConflict, dup.status)
	assert.Equal(t, "CONFLICT", dup.body["code"])

	resp = c.do("GET", "/api/v1/applications", acme, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	require.Len(t, data(resp), 1)
	assert.Equal(t, "Jane Doe", data(resp)[0].(map[string]any)["applicant_name"])

	resp = c.do("GET", "/api/v1/applications", globex, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Empty(t, data(resp))

	resp = c.do("GET", "/api/v1/applications", jane, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	require.Len(t, data(resp), 1)
	assert.Equal(t, "Backend Engineer", data(resp)[0].(map[string]any)["job_title"])

	resp = c.do("PATCH", "/api/v1/applications/"+appID+"/status", globex, map[string]string{"status": "accepted"})
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = c.do("PATCH", "/api/v1/applications/"+appID+"/status", acme, map[string]string{"status": "hired"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.status)

	resp = c.do("PATCH", "/api/v1/applications/"+appID+"/status", acme, map[string]string{"status": "accepted"})
	require.Equal(t, fiber.StatusOK, resp.status, resp.body)
	assert.Equal(t, "accepted", resp.body["status"])

	resp = c.do("PATCH", "/api/v1/applications/"+appID+"/status", acme, map[string]string{"status": "rejected"})
	assert.Equal(t, fiber.StatusConflict, resp.status)
	assert.Equal(t, "INVALID_TRANSITION", resp.body["code"])

	resp = c.do("GET", "/api/v1/notifications", jane, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	items := resp.body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), resp.body["unread_count"])
	notificationID := items[0].(map[string]any)["id"].(string)

	resp = c.do("PATCH", "/api/v1/notifications/"+notificationID+"/read", acme, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)

	resp = c.do("PATCH", "/api/v1/notifications/"+notificationID+"/read", jane, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, float64(0), resp.body["unread_count"])

	resp = c.do("GET", "/api/v1/notifications", acme, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.body["unread_count"])

	resp = c.do("POST", "/api/v1/notifications/read-all", acme, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, float64(0), resp.body["unread_count"])

	resp = c.do("GET", "/api/v1/applications/"+appID+"/resume", jane, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.status)

	resp = c.do("POST", "/api/v1/postings/"+postingID+"/close", acme, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "closed", resp.body["status"])

	resp = c.do("GET", "/api/v1/postings", jane, nil)
	assert.Empty(t, data(resp))
}

func TestAuthRoutes(t *testing.T) {
	c := newTestClient(t)

	resp := c.do("GET", "/api/v1/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = c.do("POST", "/api/v1/auth/register", "", map[string]string{
		"email": "a@b.test", "password": "123", "full_name": "A", "user_type": "admin",
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.status)
	details := resp.body["details"].(map[string]any)
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "user_type")

	c.signup("a@b.test", "A", "employee")

	resp = c.do("POST", "/api/v1/auth/register", "", map[string]string{
		"email": "a@b.test", "password": "secret123", "full_name": "A", "user_type": "employee",
	})
	assert.Equal(t, fiber.StatusConflict, resp.status)

	resp = c.do("POST", "/api/v1/auth/login", "", map[string]string{"email": "a@b.test", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = c.do("POST", "/api/v1/auth/login", "", map[string]string{"email": "a@b.test", "password": "secret123"})
	require.Equal(t, fiber.StatusOK, resp.status)
	refresh := resp.body["refresh_token"].(string)

	resp = c.do("POST", "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, fiber.StatusOK, resp.status)
	rotated := resp.body["refresh_token"].(string)

	resp = c.do("POST", "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = c.do("POST", "/api/v1/auth/logout", "", map[string]string{"refresh_token": rotated})
	assert.Equal(t, fiber.StatusNoContent, resp.status)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t)

	resp := c.do("GET", "/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "ok", resp.body["database"])
	assert.Equal(t, "ok", resp.body["redis"])
}
