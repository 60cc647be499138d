package domain

import "time"

// Notification records a cross-user event for later retrieval. TicketID is
// a weak reference: the ticket may no longer exist, and existence is
// resolved at read time rather than maintained as a flag.
type Notification struct {
	ID          string
	RecipientID string
	ActorID     *string
	Message     string
	TicketID    *string
	CreatedAt   time.Time
	IsRead      bool
}
