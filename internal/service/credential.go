package service

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/pkg/cryptox"
)

// DefaultCodeTTL is how long an emailed one-time code stays valid.
const DefaultCodeTTL = 10 * time.Minute

// CredentialService manages the one-time codes emailed for address
// verification and password resets. Issuing a new code of a kind overwrites
// the previous one; consuming is atomic and single-use.
type CredentialService struct {
	Store store.Store

	CodeTTL    time.Duration
	CodeLength int

	// Now is the clock for expiry stamps. Defaults to time.Now.
	Now func() time.Time
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CredentialService) ttl() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return DefaultCodeTTL
}

func (s *CredentialService) length() int {
	if s.CodeLength > 0 {
		return s.CodeLength
	}
	return cryptox.DefaultCodeLength
}

// IssueEmailVerificationCode mints a fresh code for the user, replacing any
// previous one, and returns it for delivery.
func (s *CredentialService) IssueEmailVerificationCode(ctx context.Context, username string) (string, error) {
	code, err := cryptox.GenerateCode(s.length(), cryptox.DigitsAlphabet)
	if err != nil {
		return "", err
	}
	if err := s.Store.Credentials().SetEmailVerificationCode(ctx, username, code, s.now().Add(s.ttl())); err != nil {
		return "", err
	}
	return code, nil
}

// IssuePasswordResetCode mints a fresh password reset code, replacing any
// previous one.
func (s *CredentialService) IssuePasswordResetCode(ctx context.Context, username string) (string, error) {
	code, err := cryptox.GenerateCode(s.length(), cryptox.DigitsAlphabet)
	if err != nil {
		return "", err
	}
	if err := s.Store.Credentials().SetPasswordResetCode(ctx, username, code, s.now().Add(s.ttl())); err != nil {
		return "", err
	}
	return code, nil
}

// ConsumeEmailVerificationCode spends the user's verification code inside
// the caller's transaction. Expired,
// mismatched, and already-spent codes all come back as ErrInvalidCode so a
// guesser learns nothing about which it was.
func (s *CredentialService) ConsumeEmailVerificationCode(ctx context.Context, tx store.Tx, username, code string) error {
	ok, err := tx.Credentials().ConsumeEmailVerificationCode(ctx, username, NormalizeCode(code), s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// ConsumePasswordResetCode spends the user's reset code.
func (s *CredentialService) ConsumePasswordResetCode(ctx context.Context, tx store.Tx, username, code string) error {
	ok, err := tx.Credentials().ConsumePasswordResetCode(ctx, username, NormalizeCode(code), s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// NormalizeCode trims whitespace and upper-cases the code so users can type
// it however their mail client mangled it. Digits are unaffected; alphabetic
// alphabets become case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
