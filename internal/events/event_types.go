package events

import (
	"time"

	"github.com/tickify/tickify/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventCommentAdded        EventType = "comment_added"
)

// Event represents a domain event emitted by services after their
// transaction commits. Engine-recorded notifications never ride this path;
// they are written inside the transaction.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Changes []string `json:"changes"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Title string `json:"title"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string             `json:"comment_id"`
	Kind        domain.CommentKind `json:"kind"`
	BodyPreview string             `json:"body_preview"`
}
