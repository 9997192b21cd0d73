package service

import (
	"context"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/pkg/slogx"
)

// AdminService enforces the moderation hierarchy: nobody acts on themself,
// superadmins act on admins and users, admins act on users only.
type AdminService struct {
	Store store.Store
}

// ListUsers returns users filtered by active state.
func (s *AdminService) ListUsers(ctx context.Context, actor domain.User, active bool, offset, limit int) ([]domain.User, error) {
	if !actor.Role.CanModerate(domain.RoleUser) {
		return nil, ErrForbidden
	}
	offset, limit = clampPage(offset, limit)
	return s.Store.Users().ListByActive(ctx, active, offset, limit)
}

// Promote raises a user to admin.
func (s *AdminService) Promote(ctx context.Context, actor domain.User, username string) error {
	target, err := s.authorize(ctx, actor, username)
	if err != nil {
		return err
	}
	if target.Role != domain.RoleUser {
		return ErrConflictingState
	}

	if err := s.Store.Users().SetRole(ctx, username, domain.RoleAdmin); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user promoted", "actor", actor.Username, "target", username)
	return nil
}

// Demote lowers an admin back to user.
func (s *AdminService) Demote(ctx context.Context, actor domain.User, username string) error {
	target, err := s.authorize(ctx, actor, username)
	if err != nil {
		return err
	}
	if target.Role != domain.RoleAdmin {
		return ErrConflictingState
	}

	if err := s.Store.Users().SetRole(ctx, username, domain.RoleUser); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user demoted", "actor", actor.Username, "target", username)
	return nil
}

// Block deactivates an account. Blocked users cannot log in and their live
// tokens die at the validator's is_active gate.
func (s *AdminService) Block(ctx context.Context, actor domain.User, username string) error {
	target, err := s.authorize(ctx, actor, username)
	if err != nil {
		return err
	}
	if !target.IsActive {
		return ErrConflictingState
	}

	if err := s.Store.Users().SetActive(ctx, username, false); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user blocked", "actor", actor.Username, "target", username)
	return nil
}

// Unblock reactivates an account.
func (s *AdminService) Unblock(ctx context.Context, actor domain.User, username string) error {
	target, err := s.authorize(ctx, actor, username)
	if err != nil {
		return err
	}
	if target.IsActive {
		return ErrConflictingState
	}

	if err := s.Store.Users().SetActive(ctx, username, true); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user unblocked", "actor", actor.Username, "target", username)
	return nil
}

// authorize loads the target and enforces the hierarchy rules shared by all
// moderation actions.
func (s *AdminService) authorize(ctx context.Context, actor domain.User, username string) (domain.User, error) {
	if actor.Username == username {
		return domain.User{}, ErrForbidden
	}

	target, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}

	if !actor.Role.CanModerate(target.Role) {
		return domain.User{}, ErrForbidden
	}
	return target, nil
}
