package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickify/tickify/internal/api/dto"
	"github.com/tickify/tickify/internal/auth"
	"github.com/tickify/tickify/internal/service"
)

// CommentsHandler exposes the ticket thread endpoints.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(comments *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: comments}
}

// Create handles POST /tickets/:id/comments. Accepts JSON or multipart
// with an optional "attachment" file.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	attachment, err := attachmentFromForm(c)
	if err != nil {
		return err
	}

	comment, err := h.comments.AddComment(c.UserContext(), actor, c.Params("id"), service.CommentInput{
		Body:       req.Body,
		Attachment: attachment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}

// List handles GET /tickets/:id/comments. Listing marks the thread seen
// for the viewer.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	comments, err := h.comments.ListComments(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, dto.NewCommentResponse(comment))
	}
	return c.JSON(fiber.Map{"data": out})
}

// MarkRead handles POST /tickets/:id/comments/read, the explicit variant
// of the read side effect listing performs.
func (h *CommentsHandler) MarkRead(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	if err := h.comments.MarkAllSeen(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UnreadCount handles GET /tickets/:id/comments/unread.
func (h *CommentsHandler) UnreadCount(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	count, err := h.comments.UnreadCount(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread": count}})
}
