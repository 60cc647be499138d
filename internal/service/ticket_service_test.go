package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tickify/tickify/internal/domain"
	apperrors "github.com/tickify/tickify/pkg/util"
)

type fakeBlobs struct {
	saved   []string
	deleted []string
}

func (f *fakeBlobs) Save(_ context.Context, _ []byte, filename string) (string, error) {
	url := "mem://" + filename
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeBlobs) Delete(_ context.Context, url string) (bool, error) {
	f.deleted = append(f.deleted, url)
	return true, nil
}

func newTicketService(store *memStore) (*TicketService, *fakeBlobs) {
	blobs := &fakeBlobs{}
	return NewTicketService(TicketDependencies{
		Store:  store,
		Blobs:  blobs,
		Logger: zap.NewNop(),
	}), blobs
}

func createTicket(t *testing.T, svc *TicketService, creator domain.Actor, title string) *domain.Ticket {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title:       title,
		Description: "something broke",
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketRejectsElevatedAccounts(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	agent := seedUser(store, "agnes", domain.RoleAdmin)

	_, err := svc.CreateTicket(context.Background(), agent, TicketCreateInput{Title: "nope"})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestCreateTicketDefaults(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)

	ticket := createTicket(t, svc, user, "printer on fire")
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityNormal, ticket.Priority)
	assert.Nil(t, ticket.AssigneeID)
}

func TestCreateTicketWithAttachmentOpensThread(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)

	ticket, err := svc.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:      "screen glitch",
		Attachment: &AttachmentInput{Content: []byte("png"), Filename: "glitch.png"},
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.AttachmentURL)

	comments, err := store.Comments().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, domain.CommentKindSystem, comments[0].Kind)
	assert.Contains(t, comments[0].Body, *ticket.AttachmentURL)
}

func TestUpdateTicketWritesSingleAuditComment(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	ticket := createTicket(t, svc, user, "old title")

	newTitle := "new title"
	high := domain.TicketPriorityHigh
	err := svc.UpdateTicket(context.Background(), user, ticket.ID, TicketUpdateInput{
		Title:    &newTitle,
		Priority: &high,
	})
	require.NoError(t, err)

	updated, err := store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)

	comments, err := store.Comments().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	body := comments[0].Body
	assert.True(t, strings.HasPrefix(body, "🔄 Ticket updated:"))
	assert.Contains(t, body, `Title: "old title" → "new title"`)
	assert.Contains(t, body, "Priority: Normal → High")
}

func TestUpdateTicketForbiddenWritesNoBlob(t *testing.T) {
	store := newMemStore()
	svc, blobs := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	stranger := seedUser(store, "sven", domain.RoleUser)
	ticket := createTicket(t, svc, user, "private")

	title := "hijacked"
	err := svc.UpdateTicket(context.Background(), stranger, ticket.ID, TicketUpdateInput{
		Title:      &title,
		Attachment: &AttachmentInput{Content: []byte("x"), Filename: "x.png"},
	})
	assert.True(t, apperrors.IsForbidden(err))
	assert.Empty(t, blobs.saved)
}

func TestUpdateTicketEmptyDiffIsSilent(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	ticket := createTicket(t, svc, user, "same title")

	same := "same title"
	err := svc.UpdateTicket(context.Background(), user, ticket.ID, TicketUpdateInput{Title: &same})
	require.NoError(t, err)

	comments, err := store.Comments().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestUpdateTicketTerminalStatusLocksCreatorOut(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	ticket := createTicket(t, svc, user, "done deal")

	fetched, err := store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	fetched.Status = domain.TicketStatusResolved
	require.NoError(t, store.Tickets().Update(context.Background(), fetched))

	newTitle := "reopened?"
	err = svc.UpdateTicket(context.Background(), user, ticket.ID, TicketUpdateInput{Title: &newTitle})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestUpdateTicketReassignRequiresElevation(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	agent := seedUser(store, "agnes", domain.RoleAdmin)
	ticket := createTicket(t, svc, user, "reroute me")

	err := svc.UpdateTicket(context.Background(), user, ticket.ID, TicketUpdateInput{AssigneeID: &agent.ID})
	assert.True(t, apperrors.IsForbidden(err))

	err = svc.UpdateTicket(context.Background(), agent, ticket.ID, TicketUpdateInput{AssigneeID: &agent.ID})
	require.NoError(t, err)

	updated, err := store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, agent.ID, *updated.AssigneeID)
}

func TestChangeStatusOnlyByAssignee(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	agent := seedUser(store, "agnes", domain.RoleAdmin)
	other := seedUser(store, "otto", domain.RoleAdmin)
	ticket := createTicket(t, svc, user, "stuck job")

	// Unassigned tickets have no valid status-change actor.
	err := svc.ChangeStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress)
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, store.Tickets().SetAssignee(context.Background(), ticket.ID, &agent.ID))

	err = svc.ChangeStatus(context.Background(), other, ticket.ID, domain.TicketStatusInProgress)
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, svc.ChangeStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress))
	updated, err := store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
}

func TestChangeStatusSameStatusIsNoOp(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	agent := seedUser(store, "agnes", domain.RoleAdmin)
	ticket := createTicket(t, svc, user, "steady state")
	require.NoError(t, store.Tickets().SetAssignee(context.Background(), ticket.ID, &agent.ID))

	require.NoError(t, svc.ChangeStatus(context.Background(), agent, ticket.ID, domain.TicketStatusOpen))

	comments, err := store.Comments().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	notifications, err := store.Notifications().ListByRecipient(context.Background(), user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestChangeStatusNotifiesCreatorAndAuditsThread(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	agent := seedUser(store, "agnes", domain.RoleAdmin)
	ticket := createTicket(t, svc, user, "flaky wifi")
	require.NoError(t, store.Tickets().SetAssignee(context.Background(), ticket.ID, &agent.ID))

	require.NoError(t, svc.ChangeStatus(context.Background(), agent, ticket.ID, domain.TicketStatusResolved))

	comments, err := store.Comments().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, domain.CommentKindSystem, comments[0].Kind)
	assert.Equal(t, "🔁 Status changed by agnes: Open → Resolved", comments[0].Body)

	notifications, err := store.Notifications().ListByRecipient(context.Background(), user.ID, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, `📌 Your ticket "flaky wifi" status changed to "Resolved".`, notifications[0].Message)
}

func TestDeleteTicketCascadesNotifications(t *testing.T) {
	store := newMemStore()
	svc, blobs := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	agent := seedUser(store, "agnes", domain.RoleAdmin)

	ticket, err := svc.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:      "short lived",
		Attachment: &AttachmentInput{Content: []byte("x"), Filename: "x.txt"},
	})
	require.NoError(t, err)
	require.NoError(t, store.Tickets().SetAssignee(context.Background(), ticket.ID, &agent.ID))
	require.NoError(t, svc.ChangeStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress))

	// The status notification references the ticket and must not survive.
	before, err := store.Notifications().ListByRecipient(context.Background(), user.ID, 0)
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, svc.DeleteTicket(context.Background(), agent, ticket.ID))

	_, err = store.Tickets().GetByID(context.Background(), ticket.ID)
	assert.True(t, apperrors.IsNotFound(err))

	after, err := store.Notifications().ListByRecipient(context.Background(), user.ID, 0)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Nil(t, after[0].TicketID)
	assert.Equal(t, `🗑️ Your ticket "short lived" was deleted by agnes.`, after[0].Message)
	assert.Equal(t, []string{*ticket.AttachmentURL}, blobs.deleted)
}

func TestDeleteTicketAuthorization(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)
	stranger := seedUser(store, "sven", domain.RoleUser)
	agent := seedUser(store, "agnes", domain.RoleAdmin)
	super := seedUser(store, "root", domain.RoleSuperAdmin)

	ticket := createTicket(t, svc, user, "keep out")

	err := svc.DeleteTicket(context.Background(), stranger, ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))
	// Unassigned agents may not delete either.
	err = svc.DeleteTicket(context.Background(), agent, ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, svc.DeleteTicket(context.Background(), super, ticket.ID))
}

func TestDeleteAttachment(t *testing.T) {
	store := newMemStore()
	svc, blobs := newTicketService(store)
	user := seedUser(store, "uma", domain.RoleUser)

	ticket, err := svc.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:      "with file",
		Attachment: &AttachmentInput{Content: []byte("x"), Filename: "x.txt"},
	})
	require.NoError(t, err)

	removed, err := svc.DeleteAttachment(context.Background(), user, ticket.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, blobs.deleted, 1)

	removed, err = svc.DeleteAttachment(context.Background(), user, ticket.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListTicketsVisibility(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	uma := seedUser(store, "uma", domain.RoleUser)
	sven := seedUser(store, "sven", domain.RoleUser)
	agent := seedUser(store, "agnes", domain.RoleAdmin)

	createTicket(t, svc, uma, "uma one")
	createTicket(t, svc, uma, "uma two")
	createTicket(t, svc, sven, "sven one")

	mine, err := svc.ListTickets(context.Background(), uma, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.ListTickets(context.Background(), agent, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetTicketDeniesStrangers(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	uma := seedUser(store, "uma", domain.RoleUser)
	sven := seedUser(store, "sven", domain.RoleUser)
	ticket := createTicket(t, svc, uma, "private")

	_, err := svc.GetTicket(context.Background(), sven, ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestStatusCounts(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)
	uma := seedUser(store, "uma", domain.RoleUser)
	agent := seedUser(store, "agnes", domain.RoleAdmin)

	first := createTicket(t, svc, uma, "one")
	createTicket(t, svc, uma, "two")
	require.NoError(t, store.Tickets().SetAssignee(context.Background(), first.ID, &agent.ID))
	require.NoError(t, svc.ChangeStatus(context.Background(), agent, first.ID, domain.TicketStatusResolved))

	counts, err := svc.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.TicketStatusOpen])
	assert.Equal(t, 1, counts[domain.TicketStatusResolved])
}
