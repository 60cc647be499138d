package dto

import (
	"time"

	"github.com/tickify/tickify/internal/service"
)

// NotificationResponse is one feed entry. TicketID is a weak reference:
// TicketExists reports whether it still resolves.
type NotificationResponse struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	TicketID     *string   `json:"ticket_id,omitempty"`
	TicketExists bool      `json:"ticket_exists"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewNotificationResponse maps a service view.
func NewNotificationResponse(view service.NotificationView) NotificationResponse {
	return NotificationResponse{
		ID:           view.ID,
		Message:      view.Message,
		TicketID:     view.TicketID,
		TicketExists: view.TicketExists,
		IsRead:       view.IsRead,
		CreatedAt:    view.CreatedAt,
	}
}
