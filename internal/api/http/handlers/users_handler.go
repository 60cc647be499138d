package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickify/tickify/internal/api/dto"
	"github.com/tickify/tickify/internal/auth"
	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/service"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// UsersHandler exposes registration, login, the user directory, and the
// SuperAdmin account administration endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user": dto.NewUserResponse(*result.User),
		"auth": dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
	}})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	user, err := h.users.GetUser(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

// List handles GET /admin/users. Elevated accounts use it to pick assignees.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, dto.NewUserResponse(user))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ChangeRole handles POST /admin/users/:id/role/:role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	role, ok := domain.ParseRole(c.Params("role"))
	if !ok {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": c.Params("role")})
	}

	if err := h.users.ChangeRole(c.UserContext(), actor, c.Params("id"), role); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /admin/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	if err := h.users.DeleteAccount(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
