package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

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

// CommentService manages ticket threads: posting comments, fanning out
// notifications to participants, and tracking per-viewer read receipts.
type CommentService struct {
	store      repository.Store
	blobs      blob.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(store repository.Store, blobs blob.Store, dispatcher events.Dispatcher, logger *zap.Logger) *CommentService {
	return &CommentService{store: store, blobs: blobs, dispatcher: dispatcher, logger: logger}
}

// CommentInput is a user comment payload.
type CommentInput struct {
	Body       string
	Attachment *AttachmentInput
}

// AddComment appends a user comment to the thread. The comment insert and
// its notification fan-out commit together. Participants are snapshotted
// before the insert so the commenter's own entry does not add them twice.
func (s *CommentService) AddComment(ctx context.Context, actor domain.Actor, ticketID string, input CommentInput) (*domain.Comment, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" && input.Attachment == nil {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}

	var attachmentURL *string
	if input.Attachment != nil {
		url, err := s.blobs.Save(ctx, input.Attachment.Content, input.Attachment.Filename)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		attachmentURL = &url
	}

	comment := &domain.Comment{
		TicketID:      ticketID,
		AuthorID:      actor.ID,
		AuthorName:    actor.Name,
		Body:          body,
		AttachmentURL: attachmentURL,
		Kind:          domain.CommentKindUser,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
		if !allowed.Can(policy.ActionComment) {
			return apperrors.NewForbidden("not allowed to comment on this ticket")
		}

		participants, err := tx.Comments().ParticipantIDs(ctx, ticketID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.Comments().Create(ctx, comment); err != nil {
			return apperrors.MapError(err)
		}
		for _, n := range notify.ForComment(ticket, comment, participants) {
			notification := n
			if err := tx.Notifications().Create(ctx, &notification); err != nil {
				return apperrors.MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCommentAdded(ctx, actor.ID, comment)
	return comment, nil
}

// ListComments returns the full thread oldest-first and marks every
// comment not authored by the viewer as seen. Reading is how a viewer
// catches up, so the unread counter drops to zero as a side effect.
func (s *CommentService) ListComments(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
	if !allowed.Can(policy.ActionView) {
		return nil, apperrors.NewForbidden("not allowed to access this ticket")
	}

	comments, err := s.store.Comments().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.store.Comments().MarkAllSeen(ctx, ticketID, actor.ID); err != nil {
		s.logger.Warn("mark seen failed",
			zap.String("ticket_id", ticketID),
			zap.String("viewer_id", actor.ID),
			zap.Error(err))
	}
	return comments, nil
}

// MarkAllSeen records read receipts for every thread entry not authored
// by the viewer. Idempotent.
func (s *CommentService) MarkAllSeen(ctx context.Context, actor domain.Actor, ticketID string) error {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
	if !allowed.Can(policy.ActionView) {
		return apperrors.NewForbidden("not allowed to access this ticket")
	}
	return apperrors.MapError(s.store.Comments().MarkAllSeen(ctx, ticketID, actor.ID))
}

// UnreadCount reports how many thread entries the viewer has not seen.
func (s *CommentService) UnreadCount(ctx context.Context, actor domain.Actor, ticketID string) (int, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return 0, err
	}
	allowed := policy.Eval(actor, policy.RelationshipFor(actor, ticket))
	if !allowed.Can(policy.ActionView) {
		return 0, apperrors.NewForbidden("not allowed to access this ticket")
	}
	count, err := s.store.Comments().UnreadCount(ctx, ticketID, actor.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func (s *CommentService) publishCommentAdded(ctx context.Context, actorID string, comment *domain.Comment) {
	if s.dispatcher == nil {
		return
	}
	preview := comment.Body
	if len(preview) > 120 {
		cut := 120
		// Back off to a rune boundary so the preview stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut]
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventCommentAdded,
		TicketID:  comment.TicketID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			Kind:        comment.Kind,
			BodyPreview: preview,
		},
	})
}
