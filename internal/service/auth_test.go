package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/service"
)

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.auth.Register(ctx, "alice", "Alice@Example.com", "Secret123!")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email, "email is normalized to lower case")
	require.Equal(t, domain.RoleUser, user.Role)
	require.True(t, user.IsActive)
	require.False(t, user.IsEmailVerified)
	require.NotEqual(t, "Secret123!", user.PasswordHash)
	require.False(t, user.CreatedAt.IsZero(), "returned user carries the stored timestamps")
	require.False(t, user.UpdatedAt.IsZero())

	// Credential row exists from the same transaction.
	_, err = e.store.Credentials().GetCredential(ctx, "alice")
	require.NoError(t, err)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "alice", "alice@example.com", "Secret123!")
	require.NoError(t, err)

	_, err = e.auth.Register(ctx, "alice", "other@example.com", "Secret123!")
	require.ErrorIs(t, err, service.ErrAlreadyRegistered)

	_, err = e.auth.Register(ctx, "alice2", "alice@example.com", "Secret123!")
	require.ErrorIs(t, err, service.ErrAlreadyRegistered)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "a@example.com", "Secret123!"},
		{"bad username chars", "al ice", "a@example.com", "Secret123!"},
		{"bad email", "alice", "not-an-email", "Secret123!"},
		{"short password", "alice", "a@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.auth.Register(ctx, tt.username, tt.email, tt.password)
			require.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.registerVerified(t, "alice")

	t.Run("by username", func(t *testing.T) {
		pair, err := e.auth.Login(ctx, "alice", "Secret123!")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("by email", func(t *testing.T) {
		_, err := e.auth.Login(ctx, "alice@example.com", "Secret123!")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := e.auth.Login(ctx, "alice", "WrongPassword")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown identifier looks the same as wrong password", func(t *testing.T) {
		_, err := e.auth.Login(ctx, "nobody", "Secret123!")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestLoginGates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("unverified email", func(t *testing.T) {
		_, err := e.auth.Register(ctx, "bob", "bob@example.com", "Secret123!")
		require.NoError(t, err)

		_, err = e.auth.Login(ctx, "bob", "Secret123!")
		require.ErrorIs(t, err, service.ErrUnverifiedEmail)
	})

	t.Run("blocked account", func(t *testing.T) {
		e.registerVerified(t, "carol")
		require.NoError(t, e.store.Users().SetActive(ctx, "carol", false))

		_, err := e.auth.Login(ctx, "carol", "Secret123!")
		require.ErrorIs(t, err, service.ErrInactiveAccount)
	})
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.registerVerified(t, "alice")

	pair, err := e.auth.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	e.clock.Advance(time.Minute)

	rotated, err := e.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The spent refresh token is one-time use.
	_, err = e.auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidToken)

	// The rotated one works.
	_, err = e.auth.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.registerVerified(t, "alice")

	pair, err := e.auth.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	_, err = e.auth.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, service.ErrWrongTokenType)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.registerVerified(t, "alice")

	pair, err := e.auth.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, e.auth.Logout(ctx, pair.AccessToken, pair.RefreshToken))

	_, _, err = e.sessions.ValidateAccess(ctx, pair.AccessToken)
	require.ErrorIs(t, err, service.ErrInvalidToken)

	_, _, err = e.sessions.ValidateRefresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestLogoutWithDeadAccessTokenFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.registerVerified(t, "alice")

	pair, err := e.auth.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	e.clock.Advance(16 * time.Minute) // access token expired

	err = e.auth.Logout(ctx, pair.AccessToken, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestEmailVerificationFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "alice", "alice@example.com", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, e.auth.SendEmailVerification(ctx, "alice@example.com"))
	code := e.emailVerificationCode(t, "alice")
	require.Len(t, code, 6)

	t.Run("wrong code rejected", func(t *testing.T) {
		err := e.auth.ConfirmEmail(ctx, "alice@example.com", "000000")
		require.ErrorIs(t, err, service.ErrInvalidCode)
	})

	t.Run("correct code verifies", func(t *testing.T) {
		require.NoError(t, e.auth.ConfirmEmail(ctx, "alice@example.com", code))

		user, err := e.store.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.True(t, user.IsEmailVerified)
	})

	t.Run("already verified conflicts", func(t *testing.T) {
		require.ErrorIs(t, e.auth.SendEmailVerification(ctx, "alice@example.com"), service.ErrEmailAlreadyVerified)
		require.ErrorIs(t, e.auth.ConfirmEmail(ctx, "alice@example.com", code), service.ErrEmailAlreadyVerified)
	})
}

func TestEmailVerificationCodeExpires(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "alice", "alice@example.com", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, e.auth.SendEmailVerification(ctx, "alice@example.com"))
	code := e.emailVerificationCode(t, "alice")

	e.clock.Advance(11 * time.Minute)

	require.ErrorIs(t, e.auth.ConfirmEmail(ctx, "alice@example.com", code), service.ErrInvalidCode)
}

func TestReissuingCodeInvalidatesPrevious(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "alice", "alice@example.com", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, e.auth.SendEmailVerification(ctx, "alice@example.com"))
	first := e.emailVerificationCode(t, "alice")

	require.NoError(t, e.auth.SendEmailVerification(ctx, "alice@example.com"))
	second := e.emailVerificationCode(t, "alice")

	if first != second { // astronomically likely, but don't flake
		require.ErrorIs(t, e.auth.ConfirmEmail(ctx, "alice@example.com", first), service.ErrInvalidCode)
	}
	require.NoError(t, e.auth.ConfirmEmail(ctx, "alice@example.com", second))
}

func TestPasswordResetFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.registerVerified(t, "alice")

	require.NoError(t, e.auth.ForgotPassword(ctx, "alice@example.com"))
	code := e.passwordResetCode(t, "alice")

	require.NoError(t, e.auth.ChangePassword(ctx, "alice@example.com", code, "NewSecret456!"))

	// Old password no longer works, new one does.
	_, err := e.auth.Login(ctx, "alice", "Secret123!")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = e.auth.Login(ctx, "alice", "NewSecret456!")
	require.NoError(t, err)

	// The reset code was single-use.
	require.ErrorIs(t,
		e.auth.ChangePassword(ctx, "alice@example.com", code, "AnotherSecret789!"),
		service.ErrInvalidCode)
}

func TestChangePasswordRollsBackOnBadCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.registerVerified(t, "alice")

	require.NoError(t, e.auth.ForgotPassword(ctx, "alice@example.com"))

	require.ErrorIs(t,
		e.auth.ChangePassword(ctx, "alice@example.com", "000000", "NewSecret456!"),
		service.ErrInvalidCode)

	// Password unchanged.
	_, err := e.auth.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)
}

func TestFullAccountLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Register, verify, login, use the session, log out.
	_, err := e.auth.Register(ctx, "dana", "dana@example.com", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, e.auth.SendEmailVerification(ctx, "dana@example.com"))
	require.NoError(t, e.auth.ConfirmEmail(ctx, "dana@example.com", e.emailVerificationCode(t, "dana")))

	pair, err := e.auth.Login(ctx, "dana", "Secret123!")
	require.NoError(t, err)

	user, _, err := e.sessions.ValidateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "dana", user.Username)

	require.NoError(t, e.auth.Logout(ctx, pair.AccessToken, pair.RefreshToken))

	_, _, err = e.sessions.ValidateAccess(ctx, pair.AccessToken)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}
