package domain

import "time"

// CommentKind distinguishes genuine user comments from system-generated
// audit entries in the same thread.
type CommentKind string

const (
	CommentKindUser   CommentKind = "user"
	CommentKindSystem CommentKind = "system"
)

// Comment is one entry in a ticket's thread. AuthorName is a snapshot of
// the author's display name at write time, not a live reference.
type Comment struct {
	ID            string
	TicketID      string
	AuthorID      string
	AuthorName    string
	Body          string
	AttachmentURL *string
	Kind          CommentKind
	CreatedAt     time.Time
}

// ReadReceipt marks a comment as seen by a viewer. At most one receipt
// exists per (comment, viewer) pair.
type ReadReceipt struct {
	CommentID string
	ViewerID  string
	SeenAt    time.Time
}
