package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	mailer "github.com/aussiebroadwan/yarnhub/internal/mail"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/pkg/cryptox"
	"github.com/aussiebroadwan/yarnhub/pkg/idx"
	"github.com/aussiebroadwan/yarnhub/pkg/slogx"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
)

// AuthService orchestrates the account lifecycle: registration, email
// verification, login, refresh rotation, logout, and password resets.
type AuthService struct {
	Store       store.Store
	Sessions    *SessionService
	Credentials *CredentialService
	Mailer      mailer.Mailer
}

// Register creates a new account with role=user, active, email unverified,
// plus its empty credential row, in one transaction.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateUsername(username); err != nil {
		return domain.User{}, err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.Credentials().CreateCredential(ctx, user.Username)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrAlreadyRegistered
		}
		return domain.User{}, err
	}

	// Re-read so the caller sees the stored row, timestamps included.
	return s.Store.Users().GetUserByUsername(ctx, user.Username)
}

// Login resolves the identifier as username or email, checks the password
// and account gates, and issues a token pair. Unknown identifier and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (domain.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := s.Store.Users().GetUserByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return domain.TokenPair{}, ErrInactiveAccount
	}
	if !user.IsEmailVerified {
		return domain.TokenPair{}, ErrUnverifiedEmail
	}

	return s.Sessions.IssuePair(user)
}

// Refresh validates a refresh token, issues a fresh pair, and blacklists the
// spent refresh token. Rotation makes every refresh token single-use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	user, claims, err := s.Sessions.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	pair, err := s.Sessions.IssuePair(user)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.Sessions.Revoke(ctx, claims); err != nil {
		// The new pair is already out; log and carry on rather than
		// failing a refresh that effectively succeeded.
		slogx.FromContext(ctx).Error("failed to revoke rotated refresh token", "err", err)
	}

	return pair, nil
}

// Logout blacklists the presented access token, and the refresh token too if
// one accompanies it. The access token must still be valid; logging out with
// a dead token is an error worth surfacing.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	_, accessClaims, err := s.Sessions.ValidateAccess(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := s.Sessions.Revoke(ctx, accessClaims); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}

	// Best-effort: the refresh cookie may be expired or already rotated
	// away. Revoke it when we can, stay quiet when we can't.
	if _, refreshClaims, err := s.Sessions.ValidateRefresh(ctx, refreshToken); err == nil {
		if err := s.Sessions.Revoke(ctx, refreshClaims); err != nil {
			slogx.FromContext(ctx).Error("failed to revoke refresh token on logout", "err", err)
		}
	}

	return nil
}

// SendEmailVerification issues a fresh verification code and mails it.
// Returns ErrEmailAlreadyVerified if there is nothing to verify.
func (s *AuthService) SendEmailVerification(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	code, err := s.Credentials.IssueEmailVerificationCode(ctx, user.Username)
	if err != nil {
		return err
	}

	s.sendCode(ctx, user.Email, "Verify your email address",
		"Your verification code is: "+code+"\n\nIt expires in 10 minutes.")
	return nil
}

// ConfirmEmail spends the verification code and flips the verified flag in
// one transaction.
func (s *AuthService) ConfirmEmail(ctx context.Context, email, code string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.Credentials.ConsumeEmailVerificationCode(ctx, tx, user.Username, code); err != nil {
			return err
		}
		return tx.Users().SetEmailVerified(ctx, user.Username, true)
	})
}

// ForgotPassword issues a reset code and mails it.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	code, err := s.Credentials.IssuePasswordResetCode(ctx, user.Username)
	if err != nil {
		return err
	}

	s.sendCode(ctx, user.Email, "Password reset requested",
		"Your password reset code is: "+code+"\n\nIt expires in 10 minutes. If you didn't request this, ignore it.")
	return nil
}

// ChangePassword spends the reset code and installs the new password hash in
// one transaction.
func (s *AuthService) ChangePassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.Credentials.ConsumePasswordResetCode(ctx, tx, user.Username, code); err != nil {
			return err
		}
		return tx.Users().UpdatePasswordHash(ctx, user.Username, hash)
	})
}

// sendCode hands the mail off in the background. Auth flows never block on,
// or fail because of, SMTP.
func (s *AuthService) sendCode(ctx context.Context, to, subject, body string) {
	log := slogx.FromContext(ctx)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.Mailer.Send(sendCtx, to, subject, body); err != nil {
			log.Error("failed to send mail", "to", to, "err", err)
		}
	}()
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrValidation, minUsernameLength, maxUsernameLength)
	}
	for _, c := range username {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return fmt.Errorf("%w: username may only contain letters, digits, '_' and '-'", ErrValidation)
		}
	}
	return nil
}
