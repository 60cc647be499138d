package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/repository"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// NotificationService is the read/maintenance side of the notification
// feed. Records are created by the ticket and comment services inside
// their own transactions; this service only lists and mutates read state.
type NotificationService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(store repository.Store, logger *zap.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

// NotificationView pairs a notification with whether its ticket still
// exists. The ticket reference is weak; a deleted ticket leaves the
// notification in place with TicketExists false.
type NotificationView struct {
	domain.Notification
	TicketExists bool
}

// List returns the recipient's most recent notifications, newest first,
// capped at limit (default 10). Records caused by the recipient's own
// actions are excluded.
func (s *NotificationService) List(ctx context.Context, recipientID string, limit int) ([]NotificationView, error) {
	notifications, err := s.store.Notifications().ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	views := make([]NotificationView, 0, len(notifications))
	for _, n := range notifications {
		view := NotificationView{Notification: n}
		if n.TicketID != nil {
			_, err := s.store.Tickets().GetByID(ctx, *n.TicketID)
			switch {
			case err == nil:
				view.TicketExists = true
			case apperrors.IsNotFound(err):
				view.TicketExists = false
			default:
				return nil, err
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// MarkRead flips one notification to read. Scoped to the recipient so a
// user cannot touch another user's feed.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.store.Notifications().MarkRead(ctx, notificationID, recipientID)
}

// Delete removes one notification from the recipient's feed.
func (s *NotificationService) Delete(ctx context.Context, recipientID, notificationID string) error {
	return s.store.Notifications().Delete(ctx, notificationID, recipientID)
}
