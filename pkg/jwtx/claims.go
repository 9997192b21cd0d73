package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/yarnhub/pkg/idx"
)

// Default token TTL constants for the access/refresh token pair.
// These provide sensible security defaults but can be overridden per-service.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived for security - typical range is 15m to 1h.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	// Longer-lived for user convenience - typical range is 7d to 30d.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// TokenKind distinguishes the two token roles. A refresh token must never be
// accepted where an access token is expected, and vice versa.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims are the token claims used across the service. We are keeping
// additive changes to preserve compatibility for later.
type Claims struct {
	jwt.RegisteredClaims

	/* Custom fields */

	// TokenType marks the token role: "access" or "refresh".
	TokenType string `json:"token_type,omitempty"`

	// Username of the authenticated user. Mirrors the subject; kept as an
	// explicit claim so resource handlers never have to guess what sub holds.
	Username string `json:"username,omitempty"`

	// Email of the authenticated user at issue time.
	Email string `json:"email,omitempty"`
}

// NewClaims builds minimally-correct claims for the given token kind. The
// subject is the immutable username, never the email.
func NewClaims(
	username, email string,
	kind TokenKind,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		TokenType: string(kind),
		Username:  username,
		Email:     email,
	}
}

// NewJTI returns a unique identifier for the "jti" claim. ULIDs are sortable
// by issue time, which makes revocation entries pleasant to eyeball in Redis.
func NewJTI() string {
	return idx.New().String()
}

// Kind returns the token role as a TokenKind.
func (c *Claims) Kind() TokenKind {
	return TokenKind(c.TokenType)
}

// ValidateKind checks the token carries the expected role.
func (c *Claims) ValidateKind(expected TokenKind) error {
	if c.TokenType != string(expected) {
		return ErrTokenType
	}
	return nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryAt ensures the token hasn't expired (exp) and isn't used
// before nbf, judged against the supplied clock.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	// Check expired (exp)
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	// Check if a valid token isn't used before it is valid (nbf)
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
