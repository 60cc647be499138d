package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/repository"
	apperrors "github.com/tickify/tickify/pkg/util"
)

const actorKey = "auth_actor"

// Middleware validates bearer tokens and loads the calling account. The
// account is reloaded on every request so role changes and deletions bite
// immediately rather than at token expiry.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.SubjectID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewUnauthorized("account no longer exists")
		}
		return apperrors.MapError(err)
	}

	c.Locals(actorKey, domain.Actor{ID: user.ID, Name: user.Name, Role: user.Role})
	return c.Next()
}

// ActorFromContext retrieves the authenticated caller.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok
}
