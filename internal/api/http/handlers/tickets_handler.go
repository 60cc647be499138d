package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tickify/tickify/internal/api/dto"
	"github.com/tickify/tickify/internal/auth"
	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/service"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignments: assignments}
}

// Create handles POST /tickets. Accepts JSON or multipart with an
// optional "attachment" file.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	attachment, err := attachmentFromForm(c)
	if err != nil {
		return err
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Attachment:  attachment,
	}
	if req.Priority != "" {
		priority, ok := domain.ParsePriority(req.Priority)
		if !ok {
			return apperrors.NewValidationError("unknown priority", map[string]any{"priority": req.Priority})
		}
		input.Priority = priority
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	view, err := h.tickets.GetTicket(c.UserContext(), actor, ticket.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(*view)})
}

// List handles GET /tickets with optional status/priority filters.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	filter := service.ListFilter{}
	for _, raw := range splitQuery(c.Query("status")) {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitQuery(c.Query("priority")) {
		priority, ok := domain.ParsePriority(raw)
		if !ok {
			return apperrors.NewValidationError("unknown priority", map[string]any{"priority": raw})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}

	views, err := h.tickets.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	out := make([]dto.TicketResponse, 0, len(views))
	for _, view := range views {
		out = append(out, dto.NewTicketResponse(view))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	view, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*view)})
}

// Update handles PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	attachment, err := attachmentFromForm(c)
	if err != nil {
		return err
	}

	input := service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Attachment:  attachment,
	}
	if req.Priority != nil {
		priority, ok := domain.ParsePriority(*req.Priority)
		if !ok {
			return apperrors.NewValidationError("unknown priority", map[string]any{"priority": *req.Priority})
		}
		input.Priority = &priority
	}

	if err := h.tickets.UpdateTicket(c.UserContext(), actor, c.Params("id"), input); err != nil {
		return err
	}
	view, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*view)})
}

// ChangeStatus handles PUT /admin/tickets/:id/status/:newStatus.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	raw, err := url.PathUnescape(c.Params("newStatus"))
	if err != nil {
		raw = c.Params("newStatus")
	}
	status, ok := domain.ParseStatus(raw)
	if !ok {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": raw})
	}

	if err := h.tickets.ChangeStatus(c.UserContext(), actor, c.Params("id"), status); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	if err := h.tickets.DeleteTicket(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteAttachment handles DELETE /tickets/:id/attachment.
func (h *TicketsHandler) DeleteAttachment(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	removed, err := h.tickets.DeleteAttachment(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"removed": removed}})
}

// AssignToSelf handles POST /tickets/:id/assign.
func (h *TicketsHandler) AssignToSelf(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	if err := h.assignments.AssignToSelf(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Reassign handles PUT /tickets/:id/assignee.
func (h *TicketsHandler) Reassign(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	var req dto.ReassignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.assignments.Reassign(c.UserContext(), actor, c.Params("id"), req.AssigneeID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// StatusCounts handles GET /admin/dashboard.
func (h *TicketsHandler) StatusCounts(c *fiber.Ctx) error {
	counts, err := h.tickets.StatusCounts(c.UserContext())
	if err != nil {
		return err
	}
	out := map[string]int{}
	for status, count := range counts {
		out[string(status)] = count
	}
	return c.JSON(fiber.Map{"data": out})
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
