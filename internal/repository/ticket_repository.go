package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tickify/tickify/internal/domain"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatorID  *string
	AssigneeID *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ClaimIfUnassigned sets the assignee in one conditional write against
	// "currently unassigned". It reports false when another caller already
	// holds the ticket, so concurrent claims resolve to exactly one winner.
	ClaimIfUnassigned(ctx context.Context, ticketID, agentID string) (bool, error)
	SetAssignee(ctx context.Context, ticketID string, assigneeID *string) error
}

type ticketRepository struct {
	q Querier
}

const ticketColumns = `id, title, description, status, priority, creator_id, assignee_id, attachment_url, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, creator_id, assignee_id, attachment_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatorID,
		ticket.AssigneeID,
		ticket.AttachmentURL,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4,
            assignee_id=$5, attachment_url=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.q.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeID,
		ticket.AttachmentURL,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatorID,
		&ticket.AssigneeID,
		&ticket.AttachmentURL,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC`, base, strings.Join(clauses, " AND "))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ClaimIfUnassigned(ctx context.Context, ticketID, agentID string) (bool, error) {
	const query = `
        UPDATE tickets SET assignee_id=$2, updated_at=NOW()
        WHERE id=$1 AND assignee_id IS NULL`
	cmd, err := r.q.Exec(ctx, query, ticketID, agentID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketRepository) SetAssignee(ctx context.Context, ticketID string, assigneeID *string) error {
	const query = `UPDATE tickets SET assignee_id=$2, updated_at=NOW() WHERE id=$1`
	cmd, err := r.q.Exec(ctx, query, ticketID, assigneeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CreatorID,
			&ticket.AssigneeID,
			&ticket.AttachmentURL,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
