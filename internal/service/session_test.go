package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/pkg/jwtx"
)

func TestIssueAndValidateAccessToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.registerVerified(t, "alice")

	token, claims, err := e.sessions.IssueAccessToken(user)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, string(jwtx.KindAccess), claims.TokenType)

	got, gotClaims, err := e.sessions.ValidateAccess(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, claims.ID, gotClaims.ID)
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.registerVerified(t, "alice")

	access, _, err := e.sessions.IssueAccessToken(user)
	require.NoError(t, err)
	refresh, _, err := e.sessions.IssueRefreshToken(user)
	require.NoError(t, err)

	_, _, err = e.sessions.ValidateAccess(ctx, refresh)
	require.ErrorIs(t, err, service.ErrWrongTokenType)

	_, _, err = e.sessions.ValidateRefresh(ctx, access)
	require.ErrorIs(t, err, service.ErrWrongTokenType)
}

func TestValidateRejectsExpiredAccessToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.registerVerified(t, "alice")

	token, _, err := e.sessions.IssueAccessToken(user)
	require.NoError(t, err)

	// Just inside the lifetime: fine.
	e.clock.Advance(14 * time.Minute)
	_, _, err = e.sessions.ValidateAccess(ctx, token)
	require.NoError(t, err)

	// Just past it: dead.
	e.clock.Advance(2 * time.Minute)
	_, _, err = e.sessions.ValidateAccess(ctx, token)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateRejectsRevokedToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.registerVerified(t, "alice")

	token, claims, err := e.sessions.IssueAccessToken(user)
	require.NoError(t, err)

	require.NoError(t, e.sessions.Revoke(ctx, claims))

	_, _, err = e.sessions.ValidateAccess(ctx, token)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateRefreshChecksRevocation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.registerVerified(t, "alice")

	refresh, claims, err := e.sessions.IssueRefreshToken(user)
	require.NoError(t, err)

	_, _, err = e.sessions.ValidateRefresh(ctx, refresh)
	require.NoError(t, err)

	require.NoError(t, e.sessions.Revoke(ctx, claims))

	_, _, err = e.sessions.ValidateRefresh(ctx, refresh)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateGatesOnAccountState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.registerVerified(t, "alice")

	token, _, err := e.sessions.IssueAccessToken(user)
	require.NoError(t, err)

	t.Run("blocked account", func(t *testing.T) {
		require.NoError(t, e.store.Users().SetActive(ctx, "alice", false))
		_, _, err := e.sessions.ValidateAccess(ctx, token)
		require.ErrorIs(t, err, service.ErrInactiveAccount)
		require.NoError(t, e.store.Users().SetActive(ctx, "alice", true))
	})

	t.Run("unverified email", func(t *testing.T) {
		require.NoError(t, e.store.Users().SetEmailVerified(ctx, "alice", false))
		_, _, err := e.sessions.ValidateAccess(ctx, token)
		require.ErrorIs(t, err, service.ErrUnverifiedEmail)
	})
}

func TestValidateRejectsGarbageToken(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.sessions.ValidateAccess(context.Background(), "definitely.not.ajwt")
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestIssuePairHasDistinctJTIs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.registerVerified(t, "alice")

	pair, err := e.sessions.IssuePair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	_, accessClaims, err := e.sessions.ValidateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	_, refreshClaims, err := e.sessions.ValidateRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	require.NotEqual(t, accessClaims.ID, refreshClaims.ID)
}

func TestRevokingAccessLeavesRefreshAlive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.registerVerified(t, "alice")

	pair, err := e.sessions.IssuePair(user)
	require.NoError(t, err)

	_, accessClaims, err := e.sessions.ValidateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, e.sessions.Revoke(ctx, accessClaims))

	_, _, err = e.sessions.ValidateAccess(ctx, pair.AccessToken)
	require.ErrorIs(t, err, service.ErrInvalidToken)

	// Independent jtis: the refresh token is untouched.
	_, _, err = e.sessions.ValidateRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}
