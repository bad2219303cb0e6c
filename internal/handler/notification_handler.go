package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"hirecircle/internal/domain"
	"hirecircle/internal/middleware"
	"hirecircle/internal/service/notification"
)

const staleHeader = "X-Feed-Stale"

type NotificationHandler struct {
	notifService notification.Service
}

func NewNotificationHandler(notifService notification.Service) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	snapshot, err := h.notifService.Fetch(c.UserContext(), middleware.GetSession(c))
	return h.respond(c, snapshot, err)
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	snapshot, err := h.notifService.MarkRead(c.UserContext(), middleware.GetSession(c), c.Params("id"))
	return h.respond(c, snapshot, err)
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	snapshot, err := h.notifService.MarkAllRead(c.UserContext(), middleware.GetSession(c))
	return h.respond(c, snapshot, err)
}

// respond serves the last good feed when the store is unreachable.
func (h *NotificationHandler) respond(c *fiber.Ctx, snapshot *domain.FeedSnapshot, err error) error {
	if err != nil {
		if snapshot != nil && snapshot.Stale && errors.Is(err, domain.ErrPersistence) {
			c.Set(staleHeader, "true")
			return c.Status(fiber.StatusOK).JSON(snapshot)
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(snapshot)
}
