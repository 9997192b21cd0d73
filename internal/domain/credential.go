package domain

import "time"

// Credential holds the per-user one-time codes for email verification and
// password reset. Each user has at most one row; issuing a new code
// overwrites the previous one of the same kind.
type Credential struct {
	Username string

	EmailVerificationCode      *string
	EmailVerificationExpiresAt *time.Time

	PasswordResetCode      *string
	PasswordResetExpiresAt *time.Time

	UpdatedAt time.Time
}
