package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/events"
	"github.com/tickify/tickify/internal/policy"
	"github.com/tickify/tickify/internal/repository"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// IdentityLifecycle is the inbound contract the identity surface calls
// when accounts change shape. Role changes and account removal have
// mandated ticket-side effects, so the coupling is an explicit interface.
// The store argument is the caller's transaction boundary: passing a
// tx-bound Store makes the ticket-side effects commit or roll back with
// the account mutation itself.
type IdentityLifecycle interface {
	HandleRoleChange(ctx context.Context, store repository.Store, userID string, oldRole, newRole domain.Role) error
	HandleAccountDeletion(ctx context.Context, store repository.Store, userID string) error
}

// AssignmentService owns who works a ticket. Claiming an unassigned ticket
// is a single conditional write, so two agents racing for the same ticket
// resolve to exactly one winner.
type AssignmentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

var _ IdentityLifecycle = (*AssignmentService)(nil)

// NewAssignmentService constructs the service.
func NewAssignmentService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{store: store, dispatcher: dispatcher, logger: logger}
}

// AssignToSelf claims an unassigned ticket for the calling agent. The claim
// is conditional on the ticket still being unassigned; a lost race returns
// a conflict, not a silent overwrite. Claiming a ticket one already holds
// is a no-op.
func (s *AssignmentService) AssignToSelf(ctx context.Context, actor domain.Actor, ticketID string) error {
	if !actor.IsAgent() {
		return apperrors.NewForbidden("only elevated accounts may take assignments")
	}

	claimed, err := s.store.Tickets().ClaimIfUnassigned(ctx, ticketID, actor.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !claimed {
		// Zero rows means either a lost race or a missing ticket; one
		// read disambiguates.
		ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.AssigneeID != nil && *ticket.AssigneeID == actor.ID {
			return nil
		}
		return apperrors.NewConflict("ticket already assigned", map[string]any{
			"ticket_id": ticketID,
		})
	}

	s.publishAssigned(ctx, ticketID, actor.ID, &actor.ID)
	return nil
}

// Reassign hands a ticket to another agent, or clears the assignment when
// assigneeID is nil. An unassigned ticket may be claimed by any agent; once
// held, only the current assignee or a SuperAdmin may move it.
func (s *AssignmentService) Reassign(ctx context.Context, actor domain.Actor, ticketID string, assigneeID *string) error {
	var changed bool

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
		if !allowed.Can(policy.ActionReassign) {
			return apperrors.NewForbidden("not allowed to reassign this ticket")
		}
		if equalAssignee(ticket.AssigneeID, assigneeID) {
			return nil
		}
		if assigneeID != nil {
			target, err := tx.Users().GetByID(ctx, *assigneeID)
			if err != nil {
				return err
			}
			if !target.Role.Elevated() {
				return apperrors.NewValidationError("assignee must be an elevated account", map[string]any{
					"assignee_id": *assigneeID,
				})
			}
		}

		oldLabel := assigneeLabel(ticket.AssigneeID)
		if err := tx.Tickets().SetAssignee(ctx, ticketID, assigneeID); err != nil {
			return err
		}

		audit := &domain.Comment{
			TicketID:   ticket.ID,
			AuthorID:   actor.ID,
			AuthorName: actor.Name,
			Body: fmt.Sprintf("🔄 Ticket updated:\nAssigned To: %s → %s",
				oldLabel, assigneeLabel(assigneeID)),
			Kind: domain.CommentKindSystem,
		}
		if err := tx.Comments().Create(ctx, audit); err != nil {
			return apperrors.MapError(err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		s.publishAssigned(ctx, ticketID, actor.ID, assigneeID)
	}
	return nil
}

// HandleRoleChange couples role changes to the ticket lifecycle. An
// account promoted into an elevated role can no longer legitimately hold
// tickets as a submitter, so every ticket it created is removed with the
// usual cascade. Demotion releases any assignments the account held.
func (s *AssignmentService) HandleRoleChange(ctx context.Context, store repository.Store, userID string, oldRole, newRole domain.Role) error {
	switch {
	case newRole.Elevated() && !oldRole.Elevated():
		return store.WithinTx(ctx, func(tx repository.Store) error {
			return s.deleteCreatedTickets(ctx, tx, userID, nil)
		})
	case oldRole.Elevated() && !newRole.Elevated():
		return store.WithinTx(ctx, func(tx repository.Store) error {
			return s.releaseHeldTickets(ctx, tx, userID)
		})
	}
	return nil
}

// HandleAccountDeletion gates account removal on ticket state: an account
// with any Open or In Progress ticket cannot be deleted. Otherwise the
// account's remaining tickets are removed with it and any assignments it
// held are released.
func (s *AssignmentService) HandleAccountDeletion(ctx context.Context, store repository.Store, userID string) error {
	return store.WithinTx(ctx, func(tx repository.Store) error {
		creator := userID
		active, err := tx.Tickets().List(ctx, repository.TicketFilter{
			CreatorID: &creator,
			Statuses:  []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
		})
		if err != nil {
			return apperrors.MapError(err)
		}
		if len(active) > 0 {
			return apperrors.NewConflict("account has active tickets", map[string]any{
				"active_tickets": len(active),
			})
		}
		if err := s.deleteCreatedTickets(ctx, tx, userID, nil); err != nil {
			return err
		}
		return s.releaseHeldTickets(ctx, tx, userID)
	})
}

func (s *AssignmentService) deleteCreatedTickets(ctx context.Context, tx repository.Store, userID string, statuses []domain.TicketStatus) error {
	creator := userID
	tickets, err := tx.Tickets().List(ctx, repository.TicketFilter{CreatorID: &creator, Statuses: statuses})
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, ticket := range tickets {
		if err := tx.Notifications().DeleteByTicket(ctx, ticket.ID); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.Tickets().Delete(ctx, ticket.ID); err != nil {
			return err
		}
		s.logger.Info("removed ticket with departing creator",
			zap.String("ticket_id", ticket.ID),
			zap.String("creator_id", userID))
	}
	return nil
}

func (s *AssignmentService) releaseHeldTickets(ctx context.Context, tx repository.Store, userID string) error {
	assignee := userID
	tickets, err := tx.Tickets().List(ctx, repository.TicketFilter{AssigneeID: &assignee})
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, ticket := range tickets {
		if err := tx.Tickets().SetAssignee(ctx, ticket.ID, nil); err != nil {
			return err
		}
		s.logger.Info("released ticket assignment",
			zap.String("ticket_id", ticket.ID),
			zap.String("former_assignee", userID))
	}
	return nil
}

func (s *AssignmentService) publishAssigned(ctx context.Context, ticketID, actorID string, assigneeID *string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   events.TicketAssignedPayload{AssigneeID: assigneeID},
	})
}
