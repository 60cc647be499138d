// Package notify computes notification fan-out: which users a ticket event
// reaches and the message each receives. The functions are pure; storage is
// the caller's concern so fan-out participates in the caller's transaction.
package notify

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tickify/tickify/internal/domain"
)

// Message prefixes are a stable format convention consumed by clients for
// icon selection. Do not change them.
const (
	markerComment = "💬"
	markerStatus  = "📌"
	markerDeleted = "🗑️"
)

// ForComment computes recipients for a new comment. Every distinct prior
// participant except the commenter and the creator receives the generic
// variant; the creator receives the "your ticket" variant unless they are
// the commenter. The creator-specific notification takes precedence, so no
// user ever receives two notifications for one comment.
func ForComment(ticket *domain.Ticket, comment *domain.Comment, participantIDs []string) []domain.Notification {
	var out []domain.Notification
	seen := map[string]bool{
		comment.AuthorID: true,
		ticket.CreatorID: true,
	}

	for _, id := range participantIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, newNotification(id, comment.AuthorID, ticket.ID,
			fmt.Sprintf("%s %s commented on ticket %q", markerComment, comment.AuthorName, ticket.Title)))
	}

	if ticket.CreatorID != comment.AuthorID {
		out = append(out, newNotification(ticket.CreatorID, comment.AuthorID, ticket.ID,
			fmt.Sprintf("%s %s commented on your ticket %q", markerComment, comment.AuthorName, ticket.Title)))
	}
	return out
}

// ForStatusChange notifies the ticket creator only, unless the creator is
// the actor.
func ForStatusChange(ticket *domain.Ticket, actorID string, newStatus domain.TicketStatus) []domain.Notification {
	if ticket.CreatorID == actorID {
		return nil
	}
	return []domain.Notification{
		newNotification(ticket.CreatorID, actorID, ticket.ID,
			fmt.Sprintf("%s Your ticket %q status changed to %q.", markerStatus, ticket.Title, newStatus)),
	}
}

// ForDeletion notifies the creator that someone else deleted their ticket.
// The notification carries no ticket reference: the record is created after
// the cascade removal so it survives it, and the ticket no longer exists.
func ForDeletion(ticket *domain.Ticket, actorID, actorName string) []domain.Notification {
	if ticket.CreatorID == actorID {
		return nil
	}
	n := newNotification(ticket.CreatorID, actorID, "",
		fmt.Sprintf("%s Your ticket %q was deleted by %s.", markerDeleted, ticket.Title, actorName))
	n.TicketID = nil
	return []domain.Notification{n}
}

func newNotification(recipientID, actorID, ticketID, message string) domain.Notification {
	n := domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Message:     message,
	}
	if actorID != "" {
		actor := actorID
		n.ActorID = &actor
	}
	if ticketID != "" {
		tid := ticketID
		n.TicketID = &tid
	}
	return n
}
