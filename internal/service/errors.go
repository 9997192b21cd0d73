package service

import "errors"

// Sentinel errors returned by the services. The HTTP layer maps these onto
// the public error codes; everything else is a 500.
var (
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrInvalidToken         = errors.New("invalid_token")
	ErrWrongTokenType       = errors.New("invalid_token_type")
	ErrInactiveAccount      = errors.New("inactive_account")
	ErrUnverifiedEmail      = errors.New("unverified_email")
	ErrInvalidCode          = errors.New("invalid_code")
	ErrAlreadyRegistered    = errors.New("already_registered")
	ErrEmailAlreadyVerified = errors.New("email_already_verified")
	ErrForbidden            = errors.New("forbidden")
	ErrNotStoryAuthor       = errors.New("not_story_author")
	ErrConflictingState     = errors.New("conflicting_state")
	ErrValidation           = errors.New("validation_failed")
)
