package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"hirecircle/internal/domain"
	"hirecircle/internal/gateway"
)

const (
	SessionContextKey = "session"
	ProfileContextKey = "profile"
)

func AuthRequired(auth gateway.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return Unauthorized("Missing authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return Unauthorized("Invalid authorization header format")
		}

		session, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			return err
		}

		c.Locals(SessionContextKey, session)

		return c.Next()
	}
}

// GetSession returns the authenticated session, or nil on public routes.
func GetSession(c *fiber.Ctx) *domain.Session {
	session, ok := c.Locals(SessionContextKey).(*domain.Session)
	if !ok {
		return nil
	}
	return session
}

func GetCurrentUserID(c *fiber.Ctx) string {
	if session := GetSession(c); session != nil {
		return session.UserID
	}
	return ""
}
