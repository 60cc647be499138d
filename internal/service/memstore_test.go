package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/repository"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// memStore is an in-memory repository.Store used by the service tests.
// Writes take a single lock, so the conditional claim behaves like the
// SQL one under concurrency.
type memStore struct {
	mu            sync.Mutex
	seq           int64
	tickets       map[string]domain.Ticket
	comments      []domain.Comment
	notifications []domain.Notification
	users         map[string]domain.User
	receipts      map[string]map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		tickets:  map[string]domain.Ticket{},
		users:    map[string]domain.User{},
		receipts: map[string]map[string]bool{},
	}
}

func (s *memStore) now() time.Time {
	s.seq++
	return time.Unix(1700000000, 0).Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *memStore) Tickets() repository.TicketRepository             { return &memTickets{s} }
func (s *memStore) Comments() repository.CommentRepository           { return &memComments{s} }
func (s *memStore) Notifications() repository.NotificationRepository { return &memNotifications{s} }
func (s *memStore) Users() repository.UserRepository                 { return &memUsers{s} }

func (s *memStore) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type memTickets struct{ s *memStore }

func (r *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = r.s.now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.s.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[ticket.ID]; !ok {
		return apperrors.NewNotFound("ticket", nil)
	}
	ticket.UpdatedAt = r.s.now()
	r.s.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	copied := ticket
	return &copied, nil
}

func (r *memTickets) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return apperrors.NewNotFound("ticket", nil)
	}
	delete(r.s.tickets, id)
	return nil
}

func (r *memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.s.tickets {
		if filter.CreatorID != nil && ticket.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.AssigneeID != nil {
			if ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		out = append(out, ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memTickets) ClaimIfUnassigned(_ context.Context, ticketID, agentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.tickets[ticketID]
	if !ok || ticket.AssigneeID != nil {
		return false, nil
	}
	ticket.AssigneeID = &agentID
	ticket.UpdatedAt = r.s.now()
	r.s.tickets[ticketID] = ticket
	return true, nil
}

func (r *memTickets) SetAssignee(_ context.Context, ticketID string, assigneeID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.tickets[ticketID]
	if !ok {
		return apperrors.NewNotFound("ticket", nil)
	}
	ticket.AssigneeID = assigneeID
	ticket.UpdatedAt = r.s.now()
	r.s.tickets[ticketID] = ticket
	return nil
}

type memComments struct{ s *memStore }

func (r *memComments) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = r.s.now()
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r *memComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Comment
	for _, comment := range r.s.comments {
		if comment.TicketID == ticketID {
			out = append(out, comment)
		}
	}
	return out, nil
}

func (r *memComments) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	comments, _ := r.ListByTicket(ctx, ticketID)
	return len(comments), nil
}

func (r *memComments) ParticipantIDs(_ context.Context, ticketID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, comment := range r.s.comments {
		if comment.TicketID == ticketID && !seen[comment.AuthorID] {
			seen[comment.AuthorID] = true
			ids = append(ids, comment.AuthorID)
		}
	}
	return ids, nil
}

func (r *memComments) MarkAllSeen(_ context.Context, ticketID, viewerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, comment := range r.s.comments {
		if comment.TicketID != ticketID || comment.AuthorID == viewerID {
			continue
		}
		if r.s.receipts[comment.ID] == nil {
			r.s.receipts[comment.ID] = map[string]bool{}
		}
		r.s.receipts[comment.ID][viewerID] = true
	}
	return nil
}

func (r *memComments) UnreadCount(_ context.Context, ticketID, viewerID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, comment := range r.s.comments {
		if comment.TicketID != ticketID || comment.AuthorID == viewerID {
			continue
		}
		if !r.s.receipts[comment.ID][viewerID] {
			count++
		}
	}
	return count, nil
}

type memNotifications struct{ s *memStore }

func (r *memNotifications) Create(_ context.Context, notification *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	notification.CreatedAt = r.s.now()
	r.s.notifications = append(r.s.notifications, *notification)
	return nil
}

func (r *memNotifications) ListByRecipient(_ context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	var out []domain.Notification
	for _, n := range r.s.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if n.ActorID != nil && *n.ActorID == recipientID {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNotifications) MarkRead(_ context.Context, id, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, n := range r.s.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			r.s.notifications[i].IsRead = true
			return nil
		}
	}
	return apperrors.NewNotFound("notification", nil)
}

func (r *memNotifications) Delete(_ context.Context, id, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, n := range r.s.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			r.s.notifications = append(r.s.notifications[:i], r.s.notifications[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFound("notification", nil)
}

func (r *memNotifications) DeleteByTicket(_ context.Context, ticketID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var kept []domain.Notification
	for _, n := range r.s.notifications {
		if n.TicketID != nil && *n.TicketID == ticketID {
			continue
		}
		kept = append(kept, n)
	}
	r.s.notifications = kept
	return nil
}

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	copied := user
	return &copied, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *memUsers) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, user := range r.s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memUsers) UpdateRole(_ context.Context, id string, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return apperrors.NewNotFound("user", nil)
	}
	user.Role = role
	user.UpdatedAt = r.s.now()
	r.s.users[id] = user
	return nil
}

func (r *memUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperrors.NewNotFound("user", nil)
	}
	delete(r.s.users, id)
	return nil
}

func containsStatus(list []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, priority domain.TicketPriority) bool {
	for _, p := range list {
		if p == priority {
			return true
		}
	}
	return false
}

// seedUser registers a user directly in the store and returns its actor.
func seedUser(s *memStore, name string, role domain.Role) domain.Actor {
	user := &domain.User{Name: name, Email: name + "@example.com", Role: role}
	_ = (&memUsers{s}).Create(context.Background(), user)
	return domain.Actor{ID: user.ID, Name: user.Name, Role: user.Role}
}
