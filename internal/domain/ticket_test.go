package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus("In Progress")
	assert.True(t, ok)
	assert.Equal(t, TicketStatusInProgress, status)

	_, ok = ParseStatus("in progress")
	assert.False(t, ok)
	_, ok = ParseStatus("")
	assert.False(t, ok)
}

func TestParsePriority(t *testing.T) {
	priority, ok := ParsePriority("High")
	assert.True(t, ok)
	assert.Equal(t, TicketPriorityHigh, priority)

	_, ok = ParsePriority("Urgent")
	assert.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, TicketStatusOpen.IsTerminal())
	assert.False(t, TicketStatusInProgress.IsTerminal())
	assert.True(t, TicketStatusResolved.IsTerminal())
	assert.True(t, TicketStatusClosed.IsTerminal())
}

func TestRoleElevation(t *testing.T) {
	assert.False(t, RoleUser.Elevated())
	assert.True(t, RoleAdmin.Elevated())
	assert.True(t, RoleSuperAdmin.Elevated())

	super := Actor{ID: "1", Role: RoleSuperAdmin}
	assert.True(t, super.IsAgent())
	assert.True(t, super.IsSuperAdmin())
	agent := Actor{ID: "2", Role: RoleAdmin}
	assert.True(t, agent.IsAgent())
	assert.False(t, agent.IsSuperAdmin())
}
