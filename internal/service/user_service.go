package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tickify/tickify/internal/auth"
	"github.com/tickify/tickify/internal/domain"
	"github.com/tickify/tickify/internal/repository"
	apperrors "github.com/tickify/tickify/pkg/util"
)

// RoleChangeHook runs inside the role-change transaction so dependent
// subsystems can react, such as deleting created tickets on promotion. The
// tx argument is the transaction-bound store; hook writes commit or roll
// back together with the role update.
type RoleChangeHook func(ctx context.Context, tx repository.Store, userID string, oldRole, newRole domain.Role) error

// AccountDeletionHook runs inside the deletion transaction, before the
// account row is removed. Returning an error vetoes the deletion.
type AccountDeletionHook func(ctx context.Context, tx repository.Store, userID string) error

// UserService is the identity lifecycle: registration, login, the user
// directory, and the administrative role and deletion operations that feed
// the assignment hooks.
type UserService struct {
	store      repository.Store
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger

	onRoleChange      RoleChangeHook
	onAccountDeletion AccountDeletionHook
}

// NewUserService constructs the service.
func NewUserService(store repository.Store, tokens *auth.TokenManager, bcryptCost int, logger *zap.Logger) *UserService {
	return &UserService{store: store, tokens: tokens, bcryptCost: bcryptCost, logger: logger}
}

// OnRoleChange registers the hook run inside the role-change transaction.
func (s *UserService) OnRoleChange(hook RoleChangeHook) {
	s.onRoleChange = hook
}

// OnAccountDeletion registers the hook run inside the deletion transaction.
func (s *UserService) OnAccountDeletion(hook AccountDeletionHook) {
	s.onAccountDeletion = hook
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a regular account. Elevation is granted later by a
// SuperAdmin, never at signup.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// LoginResult carries the issued token.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and issues a JWT.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetUser fetches one directory entry.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// ListUsers returns the directory. Agents use it to pick reassignment
// targets.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ChangeRole updates an account's role. SuperAdmin only. Changing to the
// same role is a no-op. The role write and the ticket-side hook run in one
// transaction: a failed hook leaves the role untouched, so a retry re-runs
// the full cascade instead of short-circuiting on an already-flipped role.
func (s *UserService) ChangeRole(ctx context.Context, actor domain.Actor, userID string, newRole domain.Role) error {
	if !actor.IsSuperAdmin() {
		return apperrors.NewForbidden("only SuperAdmin may change roles")
	}

	var oldRole domain.Role
	changed := false
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Role == newRole {
			return nil
		}
		oldRole = user.Role
		if s.onRoleChange != nil {
			if err := s.onRoleChange(ctx, tx, userID, user.Role, newRole); err != nil {
				return err
			}
		}
		if err := tx.Users().UpdateRole(ctx, userID, newRole); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		s.logger.Error("role change failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	if changed {
		s.logger.Info("role changed",
			zap.String("user_id", userID),
			zap.String("old_role", string(oldRole)),
			zap.String("new_role", string(newRole)))
	}
	return nil
}

// DeleteAccount removes a user. SuperAdmin only; self-deletion is
// rejected. The deletion hook and the account removal share one
// transaction: a veto keeps the account, and a failed removal rolls the
// hook's ticket cleanup back with it.
func (s *UserService) DeleteAccount(ctx context.Context, actor domain.Actor, userID string) error {
	if !actor.IsSuperAdmin() {
		return apperrors.NewForbidden("only SuperAdmin may delete accounts")
	}
	if actor.ID == userID {
		return apperrors.NewValidationError("cannot delete own account", nil)
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		if s.onAccountDeletion != nil {
			if err := s.onAccountDeletion(ctx, tx, userID); err != nil {
				return err
			}
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		s.logger.Warn("account deletion aborted", zap.String("user_id", userID), zap.Error(err))
	}
	return err
}
