// Package policy is the single place where role and ownership rules are
// evaluated. Call sites ask for a capability set instead of re-deriving
// role checks inline.
package policy

import "github.com/tickify/tickify/internal/domain"

// Action identifies one capability on a ticket.
type Action uint16

const (
	ActionView Action = 1 << iota
	ActionComment
	ActionEditContent
	ActionReassignViaUpdate
	ActionChangeStatus
	ActionAssignSelf
	ActionReassign
	ActionDelete
)

// ActionSet is a bitmask of allowed actions.
type ActionSet uint16

// Can reports whether the set contains the action.
func (s ActionSet) Can(a Action) bool {
	return s&ActionSet(a) != 0
}

// Relationship describes how an actor relates to one ticket.
type Relationship struct {
	IsCreator   bool
	IsAssignee  bool
	HasAssignee bool
	Status      domain.TicketStatus
}

// Eval computes the allowed-action set for an actor against a ticket.
//
// Rules:
//   - creators and agents may view the ticket and its thread and comment;
//   - content fields belong to the creator, and only before resolution for
//     non-staff creators;
//   - reassignment through the generic update path is an agent capability;
//   - status changes belong to the current assignee, nobody else; an
//     unassigned ticket has no status-change capability at all;
//   - self-assignment requires an agent and an unassigned ticket;
//   - reassignment of an unassigned ticket is open to any agent, of an
//     assigned ticket only to the current assignee or a SuperAdmin;
//   - deletion is open to the creator, a self-assigned agent, or a SuperAdmin.
func Eval(actor domain.Actor, rel Relationship) ActionSet {
	var set ActionSet

	if rel.IsCreator || actor.IsAgent() {
		set |= ActionSet(ActionView | ActionComment)
	}
	if rel.IsCreator && (actor.IsAgent() || !rel.Status.IsTerminal()) {
		set |= ActionSet(ActionEditContent)
	}
	if actor.IsAgent() {
		set |= ActionSet(ActionReassignViaUpdate)
	}
	if rel.HasAssignee && rel.IsAssignee {
		set |= ActionSet(ActionChangeStatus)
	}
	if actor.IsAgent() && !rel.HasAssignee {
		set |= ActionSet(ActionAssignSelf)
	}
	if actor.IsAgent() && (!rel.HasAssignee || rel.IsAssignee || actor.IsSuperAdmin()) {
		set |= ActionSet(ActionReassign)
	}
	if rel.IsCreator || (actor.IsAgent() && rel.IsAssignee) || actor.IsSuperAdmin() {
		set |= ActionSet(ActionDelete)
	}
	return set
}

// RelationshipFor derives the actor/ticket relationship.
func RelationshipFor(actor domain.Actor, ticket *domain.Ticket) Relationship {
	rel := Relationship{
		IsCreator:   ticket.CreatorID == actor.ID,
		HasAssignee: ticket.AssigneeID != nil,
		Status:      ticket.Status,
	}
	if ticket.AssigneeID != nil && *ticket.AssigneeID == actor.ID {
		rel.IsAssignee = true
	}
	return rel
}
