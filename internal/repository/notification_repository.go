package repository

import (
	"context"

	"github.com/tickify/tickify/internal/domain"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// NotificationRepository stores and retrieves notification records.
// ticket_id is a weak reference; DeleteByTicket is the only maintenance the
// engine performs on it, as part of ticket deletion.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	Delete(ctx context.Context, id, recipientID string) error
	DeleteByTicket(ctx context.Context, ticketID string) error
}

type notificationRepository struct {
	q Querier
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (id, recipient_id, actor_id, message, ticket_id, is_read)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`
	return r.q.QueryRow(ctx, query,
		notification.ID,
		notification.RecipientID,
		notification.ActorID,
		notification.Message,
		notification.TicketID,
		notification.IsRead,
	).Scan(&notification.CreatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
        SELECT id, recipient_id, actor_id, message, ticket_id, created_at, is_read
        FROM notifications
        WHERE recipient_id=$1 AND (actor_id IS NULL OR actor_id <> $1)
        ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.ActorID,
			&n.Message,
			&n.TicketID,
			&n.CreatedAt,
			&n.IsRead,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, recipientID string) error {
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM notifications WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
	}
	return nil
}

func (r *notificationRepository) DeleteByTicket(ctx context.Context, ticketID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM notifications WHERE ticket_id=$1`, ticketID)
	return err
}
