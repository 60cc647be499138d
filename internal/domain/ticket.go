package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Status only ever
// changes through the dedicated status-change operation.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityNormal TicketPriority = "Normal"
	TicketPriorityHigh   TicketPriority = "High"
)

// Ticket is the aggregate for support requests. CreatorID always refers to
// a regular user account; elevated roles cannot author tickets.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	CreatorID     string
	AssigneeID    *string
	AttachmentURL *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ParseStatus validates a wire value against the status enumeration.
func ParseStatus(value string) (TicketStatus, bool) {
	switch TicketStatus(value) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return TicketStatus(value), true
	}
	return "", false
}

// ParsePriority validates a wire value against the priority enumeration.
func ParsePriority(value string) (TicketPriority, bool) {
	switch TicketPriority(value) {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh:
		return TicketPriority(value), true
	}
	return "", false
}

// IsTerminal reports whether content edits are no longer allowed for the
// creator in this status.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}
