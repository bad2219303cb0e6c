package handler

import (
	"github.com/gofiber/fiber/v2"

	"hirecircle/internal/middleware"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// GetProfile returns the profile resolved by middleware.RequireProfile.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	profile := middleware.GetProfile(c)
	if profile == nil {
		return middleware.Unauthorized("User not found")
	}
	return c.JSON(profile)
}
