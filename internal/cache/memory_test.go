package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryBlacklistRevokeAndCheck(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	revoked, err := b.IsRevoked(ctx, "some-jti")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, b.Revoke(ctx, "some-jti", time.Minute))

	revoked, err = b.IsRevoked(ctx, "some-jti")
	require.NoError(t, err)
	require.True(t, revoked)

	// Unrelated jtis are unaffected.
	revoked, err = b.IsRevoked(ctx, "other-jti")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestMemoryBlacklistEntriesExpire(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.Now = func() time.Time { return now }

	require.NoError(t, b.Revoke(ctx, "jti", 10*time.Minute))

	revoked, err := b.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	require.True(t, revoked)

	// Advance past expiry; the entry is gone.
	now = now.Add(11 * time.Minute)
	revoked, err = b.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestMemoryBlacklistIgnoresNonPositiveTTL(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	require.NoError(t, b.Revoke(ctx, "jti", 0))
	require.NoError(t, b.Revoke(ctx, "jti", -time.Minute))

	revoked, err := b.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	require.False(t, revoked)
}
