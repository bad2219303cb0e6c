package handler

import (
	"github.com/gofiber/fiber/v2"

	"hirecircle/internal/domain"
	"hirecircle/internal/middleware"
	"hirecircle/internal/service/identity"
)

type AuthHandler struct {
	identityService identity.Service
}

func NewAuthHandler(identityService identity.Service) *AuthHandler {
	return &AuthHandler{identityService: identityService}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input domain.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	profile, err := h.identityService.Register(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"profile": profile,
		"message": "Registration successful. You can now log in.",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	tokens, err := h.identityService.Login(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var input refreshRequest
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if input.RefreshToken == "" {
		return middleware.BadRequest("refresh_token is required")
	}

	tokens, err := h.identityService.Refresh(c.UserContext(), input.RefreshToken)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input refreshRequest
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.identityService.Logout(c.UserContext(), input.RefreshToken); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
