package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tickify/tickify/internal/blob"
	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/events"
	"github.com/tickify/tickify/internal/notify"
	"github.com/tickify/tickify/internal/policy"
	"github.com/tickify/tickify/internal/repository"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation, edits, status
// transitions, deletion, and the audit comments and notifications each one
// produces. Every multi-entity write runs in one store transaction.
type TicketService struct {
	store      repository.Store
	blobs      blob.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Blobs      blob.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		blobs:      deps.Blobs,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AttachmentInput carries an uploaded file.
type AttachmentInput struct {
	Content  []byte
	Filename string
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Attachment  *AttachmentInput
}

// TicketUpdateInput describes a partial ticket edit. Nil fields are left
// untouched. A non-nil AssigneeID requests reassignment-via-update, an
// agent-only capability.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	AssigneeID  *string
	Attachment  *AttachmentInput
}

// TicketView enriches a ticket with per-viewer thread counters.
type TicketView struct {
	domain.Ticket
	TotalComments  int
	UnreadComments int
}

// ListFilter narrows ticket listings.
type ListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
}

// CreateTicket files a new ticket for a regular user. Elevated accounts
// cannot author tickets. When an attachment is supplied it is stored first
// and a system comment recording its URL opens the thread.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if actor.IsAgent() {
		return nil, apperrors.NewForbidden("elevated accounts cannot create tickets")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityNormal
	}

	var attachmentURL *string
	if input.Attachment != nil {
		url, err := s.blobs.Save(ctx, input.Attachment.Content, input.Attachment.Filename)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		attachmentURL = &url
	}

	ticket := &domain.Ticket{
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.TicketStatusOpen,
		Priority:      priority,
		CreatorID:     actor.ID,
		AttachmentURL: attachmentURL,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		if attachmentURL != nil {
			audit := &domain.Comment{
				TicketID:   ticket.ID,
				AuthorID:   actor.ID,
				AuthorName: actor.Name,
				Body:       fmt.Sprintf("Ticket created with attachment: %s", *attachmentURL),
				Kind:       domain.CommentKindSystem,
			}
			if err := tx.Comments().Create(ctx, audit); err != nil {
				return apperrors.MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// UpdateTicket applies a field-by-field diff. Each changed field becomes
// one line of a single combined audit comment; an empty diff is a silent
// no-op with no side effects.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Actor, ticketID string, input TicketUpdateInput) error {
	var changes []string
	var newBlobURL string

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))

		contentChanged := false
		if input.Title != nil && *input.Title != ticket.Title {
			changes = append(changes, fmt.Sprintf("Title: %q → %q", ticket.Title, *input.Title))
			ticket.Title = *input.Title
			contentChanged = true
		}
		if input.Description != nil && *input.Description != ticket.Description {
			changes = append(changes, fmt.Sprintf("Description: %q → %q", ticket.Description, *input.Description))
			ticket.Description = *input.Description
			contentChanged = true
		}
		if input.Priority != nil && *input.Priority != ticket.Priority {
			changes = append(changes, fmt.Sprintf("Priority: %s → %s", ticket.Priority, *input.Priority))
			ticket.Priority = *input.Priority
			contentChanged = true
		}

		assigneeChanged := false
		if input.AssigneeID != nil && !equalAssignee(ticket.AssigneeID, input.AssigneeID) {
			changes = append(changes, fmt.Sprintf("Assigned To: %s → %s",
				assigneeLabel(ticket.AssigneeID), assigneeLabel(input.AssigneeID)))
			ticket.AssigneeID = input.AssigneeID
			assigneeChanged = true
		}

		var oldAttachmentURL string
		if input.Attachment != nil {
			if ticket.AttachmentURL != nil {
				oldAttachmentURL = *ticket.AttachmentURL
			}
			changes = append(changes, "🖼️ Attachment updated.")
			contentChanged = true
		}

		if len(changes) == 0 {
			return nil
		}
		if contentChanged && !allowed.Can(policy.ActionEditContent) {
			return apperrors.NewForbidden("not allowed to edit this ticket")
		}
		if assigneeChanged && !allowed.Can(policy.ActionReassignViaUpdate) {
			return apperrors.NewForbidden("only agents may reassign through update")
		}

		// The replacement blob is written only after the permission gate,
		// so a rejected edit leaves nothing behind.
		if input.Attachment != nil {
			url, err := s.blobs.Save(ctx, input.Attachment.Content, input.Attachment.Filename)
			if err != nil {
				return apperrors.MapError(err)
			}
			newBlobURL = url
			ticket.AttachmentURL = &url
		}

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}

		body := "🔄 Ticket updated:\n" + strings.Join(changes, "\n")
		if oldAttachmentURL != "" && newBlobURL != "" {
			body += fmt.Sprintf("\nOld attachment: %s\nNew attachment: %s", oldAttachmentURL, newBlobURL)
		}
		audit := &domain.Comment{
			TicketID:   ticket.ID,
			AuthorID:   actor.ID,
			AuthorName: actor.Name,
			Body:       body,
			Kind:       domain.CommentKindSystem,
		}
		return apperrors.MapError(tx.Comments().Create(ctx, audit))
	})
	if err != nil {
		if newBlobURL != "" {
			s.deleteBlob(ctx, newBlobURL)
		}
		return err
	}

	if len(changes) > 0 {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: ticketID,
			ActorID:  actor.ID,
			Payload:  events.TicketUpdatedPayload{Changes: changes},
		})
	}
	return nil
}

// ChangeStatus transitions a ticket. Only the current assignee may do so;
// an unassigned ticket has no valid status-change actor. Setting the same
// status is a silent no-op: no audit comment, no notification.
func (s *TicketService) ChangeStatus(ctx context.Context, actor domain.Actor, ticketID string, newStatus domain.TicketStatus) error {
	var oldStatus domain.TicketStatus
	changed := false

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
		if !allowed.Can(policy.ActionChangeStatus) {
			return apperrors.NewForbidden("only the current assignee may change status")
		}
		if ticket.Status == newStatus {
			return nil
		}

		oldStatus = ticket.Status
		ticket.Status = newStatus
		changed = true
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}

		audit := &domain.Comment{
			TicketID:   ticket.ID,
			AuthorID:   actor.ID,
			AuthorName: actor.Name,
			Body:       fmt.Sprintf("🔁 Status changed by %s: %s → %s", actor.Name, oldStatus, newStatus),
			Kind:       domain.CommentKindSystem,
		}
		if err := tx.Comments().Create(ctx, audit); err != nil {
			return apperrors.MapError(err)
		}

		for _, n := range notify.ForStatusChange(ticket, actor.ID, newStatus) {
			notification := n
			if err := tx.Notifications().Create(ctx, &notification); err != nil {
				return apperrors.MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticketID,
			ActorID:  actor.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: newStatus,
			},
		})
	}
	return nil
}

// DeleteTicket removes a ticket, cascading removal of every notification
// that references it. When the actor is not the creator, one terminal
// notification is recorded for the creator after the cascade so it
// survives it.
func (s *TicketService) DeleteTicket(ctx context.Context, actor domain.Actor, ticketID string) error {
	var deleted *domain.Ticket

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
		if !allowed.Can(policy.ActionDelete) {
			return apperrors.NewForbidden("not allowed to delete this ticket")
		}

		if err := tx.Notifications().DeleteByTicket(ctx, ticket.ID); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.Tickets().Delete(ctx, ticket.ID); err != nil {
			return err
		}
		for _, n := range notify.ForDeletion(ticket, actor.ID, actor.Name) {
			notification := n
			if err := tx.Notifications().Create(ctx, &notification); err != nil {
				return apperrors.MapError(err)
			}
		}
		deleted = ticket
		return nil
	})
	if err != nil {
		return err
	}

	if deleted.AttachmentURL != nil {
		s.deleteBlob(ctx, *deleted.AttachmentURL)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: deleted.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketDeletedPayload{Title: deleted.Title},
	})
	return nil
}

// DeleteAttachment clears a ticket's attachment. It reports false when the
// ticket has none. Blob removal is best-effort: failures are logged and
// never abort the operation.
func (s *TicketService) DeleteAttachment(ctx context.Context, actor domain.Actor, ticketID string) (bool, error) {
	var removedURL string

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
		if !allowed.Can(policy.ActionEditContent) {
			return apperrors.NewForbidden("not allowed to edit this ticket")
		}
		if ticket.AttachmentURL == nil {
			return nil
		}
		removedURL = *ticket.AttachmentURL
		ticket.AttachmentURL = nil
		return tx.Tickets().Update(ctx, ticket)
	})
	if err != nil {
		return false, err
	}
	if removedURL == "" {
		return false, nil
	}

	s.deleteBlob(ctx, removedURL)
	return true, nil
}

// GetTicket returns a viewer-enriched ticket.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*TicketView, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
	if !allowed.Can(policy.ActionView) {
		return nil, apperrors.NewForbidden("not allowed to access this ticket")
	}
	return s.enrich(ctx, actor.ID, *ticket)
}

// ListTickets returns tickets visible to the viewer: agents see every
// ticket, regular users only their own. Counters are per-viewer.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter ListFilter) ([]TicketView, error) {
	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
	}
	if !actor.IsAgent() {
		creatorID := actor.ID
		repoFilter.CreatorID = &creatorID
	}
	tickets, err := s.store.Tickets().List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	views := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		view, err := s.enrich(ctx, actor.ID, ticket)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// StatusCounts aggregates ticket totals per status for the dashboard.
func (s *TicketService) StatusCounts(ctx context.Context) (map[domain.TicketStatus]int, error) {
	tickets, err := s.store.Tickets().List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	counts := map[domain.TicketStatus]int{}
	for _, ticket := range tickets {
		counts[ticket.Status]++
	}
	return counts, nil
}

func (s *TicketService) enrich(ctx context.Context, viewerID string, ticket domain.Ticket) (*TicketView, error) {
	total, err := s.store.Comments().CountByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	unread, err := s.store.Comments().UnreadCount(ctx, ticket.ID, viewerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketView{Ticket: ticket, TotalComments: total, UnreadComments: unread}, nil
}

func (s *TicketService) deleteBlob(ctx context.Context, url string) {
	ok, err := s.blobs.Delete(ctx, url)
	if err != nil {
		s.logger.Warn("attachment delete failed", zap.String("url", url), zap.Error(err))
	} else if !ok {
		s.logger.Warn("attachment already gone", zap.String("url", url))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func equalAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func assigneeLabel(id *string) string {
	if id == nil || *id == "" {
		return "None"
	}
	return *id
}
