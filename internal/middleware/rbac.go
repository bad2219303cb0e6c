package middleware

import (
	"github.com/gofiber/fiber/v2"

	"hirecircle/internal/domain"
	"hirecircle/internal/service/role"
)

// RequireProfile resolves the caller's profile once and keeps it in Locals.
func RequireProfile(roles role.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := roles.Profile(c.UserContext(), GetSession(c))
		if err != nil {
			return err
		}

		c.Locals(ProfileContextKey, profile)
		return c.Next()
	}
}

func RequireRole(roles role.Resolver, want domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := roles.Require(c.UserContext(), GetSession(c), want)
		if err != nil {
			return err
		}

		c.Locals(ProfileContextKey, profile)
		return c.Next()
	}
}

func GetProfile(c *fiber.Ctx) *domain.Profile {
	profile, ok := c.Locals(ProfileContextKey).(*domain.Profile)
	if !ok {
		return nil
	}
	return profile
}

func GetCurrentUserRole(c *fiber.Ctx) domain.Role {
	if profile := GetProfile(c); profile != nil {
		return profile.UserType
	}
	return ""
}
