// Package cache provides the token revocation blacklist. Revoked token IDs
// (jti claims) are stored with a TTL equal to the token's remaining
// lifetime, after which the entry is useless anyway and may expire.
package cache

import (
	"context"
	"time"
)

// Blacklist is the revocation store. Drivers: redis for deployments,
// memory for tests and single-node dev.
type Blacklist interface {
	// Revoke marks a token ID as revoked for the given duration. A ttl of
	// zero or less is a no-op since the token has already expired.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether the token ID has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
