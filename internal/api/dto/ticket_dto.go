package dto

import (
	"time"

	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"max=5000"`
	Priority    string `json:"priority" form:"priority" validate:"omitempty,oneof=Low Normal High"`
}

// UpdateTicketRequest payload. Absent fields are left untouched.
type UpdateTicketRequest struct {
	Title       *string `json:"title" form:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=5000"`
	Priority    *string `json:"priority" form:"priority" validate:"omitempty,oneof=Low Normal High"`
	AssigneeID  *string `json:"assignee_id" form:"assignee_id"`
}

// ReassignRequest payload. A null assignee clears the assignment.
type ReassignRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// TicketResponse is the viewer-specific ticket projection.
type TicketResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	CreatorID      string     `json:"creator_id"`
	AssigneeID     *string    `json:"assignee_id"`
	AttachmentURL  *string    `json:"attachment_url,omitempty"`
	TotalComments  int        `json:"total_comments"`
	UnreadComments int        `json:"unread_comments"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewTicketResponse maps a service view.
func NewTicketResponse(view service.TicketView) TicketResponse {
	return TicketResponse{
		ID:             view.ID,
		Title:          view.Title,
		Description:    view.Description,
		Status:         string(view.Status),
		Priority:       string(view.Priority),
		CreatorID:      view.CreatorID,
		AssigneeID:     view.AssigneeID,
		AttachmentURL:  view.AttachmentURL,
		TotalComments:  view.TotalComments,
		UnreadComments: view.UnreadComments,
		CreatedAt:      view.CreatedAt,
		UpdatedAt:      view.UpdatedAt,
	}
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Body          string    `json:"body"`
	AttachmentURL *string   `json:"attachment_url,omitempty"`
	Kind          string    `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:            comment.ID,
		TicketID:      comment.TicketID,
		AuthorID:      comment.AuthorID,
		AuthorName:    comment.AuthorName,
		Body:          comment.Body,
		AttachmentURL: comment.AttachmentURL,
		Kind:          string(comment.Kind),
		CreatedAt:     comment.CreatedAt,
	}
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body" form:"body" validate:"max=5000"`
}
