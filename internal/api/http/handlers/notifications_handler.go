package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tickify/tickify/internal/api/dto"
	"github.com/tickify/tickify/internal/auth"
	"github.com/tickify/tickify/internal/service"
)

// NotificationsHandler exposes the caller's notification feed.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /user/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	views, err := h.notifications.List(c.UserContext(), actor.ID, limit)
	if err != nil {
		return err
	}
	out := make([]dto.NotificationResponse, 0, len(views))
	for _, view := range views {
		out = append(out, dto.NewNotificationResponse(view))
	}
	return c.JSON(fiber.Map{"data": out})
}

// MarkRead handles POST /user/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	if err := h.notifications.MarkRead(c.UserContext(), actor.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /user/notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	if err := h.notifications.Delete(c.UserContext(), actor.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
