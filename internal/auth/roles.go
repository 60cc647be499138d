package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickify/tickify/internal/domain"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// RequireElevated gates a route to support staff.
func RequireElevated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actor.IsAgent() {
			return apperrors.NewForbidden("elevated role required")
		}
		return c.Next()
	}
}

// RequireSuperAdmin gates a route to SuperAdmin accounts.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if actor.Role != domain.RoleSuperAdmin {
			return apperrors.NewForbidden("SuperAdmin role required")
		}
		return c.Next()
	}
}
