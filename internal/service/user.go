package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/store"
)

const maxBioLength = 500

type UserService struct {
	Store store.Store
}

// GetByUsername fetches a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.Store.Users().GetUserByUsername(ctx, username)
}

// UpdateBio replaces a user's profile bio and returns the refreshed user.
func (s *UserService) UpdateBio(ctx context.Context, username, bio string) (domain.User, error) {
	bio = strings.TrimSpace(bio)
	if len(bio) > maxBioLength {
		return domain.User{}, fmt.Errorf("%w: bio exceeds %d characters", ErrValidation, maxBioLength)
	}
	if err := s.Store.Users().UpdateBio(ctx, username, bio); err != nil {
		return domain.User{}, err
	}
	return s.Store.Users().GetUserByUsername(ctx, username)
}
