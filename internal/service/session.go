package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/cache"
	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/pkg/jwtx"
)

// SessionService issues and validates the access/refresh token pair. Issue
// is a pure function of the user and the injected clock; validation runs the
// full gauntlet of checks in a fixed order, so the caller always learns the
// first thing wrong with a token and nothing more.
type SessionService struct {
	Signer    jwtx.Signer
	Verifier  jwtx.Verifier
	Blacklist cache.Blacklist
	Store     store.Store

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock for iat/exp and revocation TTLs. Defaults to time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssueAccessToken signs a short-lived access token for the user.
func (s *SessionService) IssueAccessToken(user domain.User) (string, jwtx.Claims, error) {
	claims := jwtx.NewClaims(user.Username, user.Email, jwtx.KindAccess, s.accessTTL(), s.Issuer, nil, s.now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, claims, nil
}

// IssueRefreshToken signs a long-lived refresh token for the user.
func (s *SessionService) IssueRefreshToken(user domain.User) (string, jwtx.Claims, error) {
	claims := jwtx.NewClaims(user.Username, user.Email, jwtx.KindRefresh, s.refreshTTL(), s.Issuer, nil, s.now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, claims, nil
}

// IssuePair issues a fresh access+refresh pair.
func (s *SessionService) IssuePair(user domain.User) (domain.TokenPair, error) {
	access, _, err := s.IssueAccessToken(user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, _, err := s.IssueRefreshToken(user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// ValidateAccess runs the full validation chain on an access token and
// returns the live user it belongs to.
func (s *SessionService) ValidateAccess(ctx context.Context, token string) (domain.User, jwtx.Claims, error) {
	return s.validate(ctx, token, jwtx.KindAccess)
}

// ValidateRefresh runs the full validation chain on a refresh token.
// Revocation is checked here too: a refresh token spent by rotation or
// logout is dead even though its signature still verifies.
func (s *SessionService) ValidateRefresh(ctx context.Context, token string) (domain.User, jwtx.Claims, error) {
	return s.validate(ctx, token, jwtx.KindRefresh)
}

// validate checks, in order: signature and expiry, token type, revocation,
// principal existence, account active, email verified. The first failure is
// the only error reported.
func (s *SessionService) validate(ctx context.Context, token string, kind jwtx.TokenKind) (domain.User, jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return domain.User{}, jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if err := claims.ValidateKind(kind); err != nil {
		return domain.User{}, jwtx.Claims{}, ErrWrongTokenType
	}

	revoked, err := s.Blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.User{}, jwtx.Claims{}, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return domain.User{}, jwtx.Claims{}, ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, jwtx.Claims{}, ErrInvalidToken
		}
		return domain.User{}, jwtx.Claims{}, err
	}

	if !user.IsActive {
		return domain.User{}, jwtx.Claims{}, ErrInactiveAccount
	}
	if !user.IsEmailVerified {
		return domain.User{}, jwtx.Claims{}, ErrUnverifiedEmail
	}

	return user, claims, nil
}

// Revoke blacklists a token's jti for its remaining lifetime. Tokens past
// their expiry need no entry; the verifier already rejects them.
func (s *SessionService) Revoke(ctx context.Context, claims jwtx.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	return s.Blacklist.Revoke(ctx, claims.ID, ttl)
}
