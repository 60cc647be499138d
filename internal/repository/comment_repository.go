package repository

import (
	"context"

	"github.com/tickify/tickify/internal/domain"
)

// CommentRepository manages a ticket's thread and per-viewer read receipts.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
	CountByTicket(ctx context.Context, ticketID string) (int, error)
	// ParticipantIDs returns the distinct author ids appearing in the
	// thread, user comments and system audit entries alike.
	ParticipantIDs(ctx context.Context, ticketID string) ([]string, error)
	// MarkAllSeen inserts a receipt for every comment in the ticket not
	// authored by the viewer and not yet seen. Idempotent.
	MarkAllSeen(ctx context.Context, ticketID, viewerID string) error
	UnreadCount(ctx context.Context, ticketID, viewerID string) (int, error)
}

type commentRepository struct {
	q Querier
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author_id, author_name, body, attachment_url, kind)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.AuthorName,
		comment.Body,
		comment.AttachmentURL,
		comment.Kind,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, author_name, body, attachment_url, kind, created_at
        FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.Body,
			&comment.AttachmentURL,
			&comment.Kind,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE ticket_id=$1`, ticketID).Scan(&count)
	return count, err
}

func (r *commentRepository) ParticipantIDs(ctx context.Context, ticketID string) ([]string, error) {
	const query = `SELECT DISTINCT author_id FROM comments WHERE ticket_id=$1`
	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *commentRepository) MarkAllSeen(ctx context.Context, ticketID, viewerID string) error {
	const query = `
        INSERT INTO read_receipts (comment_id, viewer_id)
        SELECT c.id, $2 FROM comments c
        WHERE c.ticket_id=$1 AND c.author_id <> $2
        ON CONFLICT (comment_id, viewer_id) DO NOTHING`
	_, err := r.q.Exec(ctx, query, ticketID, viewerID)
	return err
}

func (r *commentRepository) UnreadCount(ctx context.Context, ticketID, viewerID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM comments c
        WHERE c.ticket_id=$1 AND c.author_id <> $2
          AND NOT EXISTS (
              SELECT 1 FROM read_receipts r
              WHERE r.comment_id=c.id AND r.viewer_id=$2)`
	var count int
	err := r.q.QueryRow(ctx, query, ticketID, viewerID).Scan(&count)
	return count, err
}
