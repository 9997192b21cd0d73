package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/pkg/httpx"
	"github.com/aussiebroadwan/yarnhub/pkg/slogx"
)

// APIError is the error body every endpoint returns on failure. One code per
// failure class so clients can branch on it without parsing descriptions.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

var (
	errInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_request",
		Description: "The request body is missing or malformed.",
	}

	errInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "invalid_credentials",
		Description: "Unknown account or wrong password.",
	}

	errInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "invalid_token",
		Description: "The token is missing, malformed, expired, or revoked.",
	}

	errInvalidTokenType = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "invalid_token_type",
		Description: "A token of the wrong type was presented.",
	}

	errInactiveAccount = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        "inactive_account",
		Description: "The account has been blocked.",
	}

	errUnverifiedEmail = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        "unverified_email",
		Description: "The account's email address has not been verified.",
	}

	errInvalidCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_code",
		Description: "The code is wrong, expired, or already used.",
	}

	errAlreadyRegistered = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        "already_registered",
		Description: "The username or email address is already taken.",
	}

	errEmailAlreadyVerified = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        "email_already_verified",
		Description: "The email address is already verified.",
	}

	errForbidden = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        "forbidden",
		Description: "You are not allowed to perform this action.",
	}

	errConflictingState = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "conflicting_state",
		Description: "The account is already in the requested state.",
	}

	errNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        "not_found",
		Description: "The requested resource does not exist.",
	}

	errServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        "server_error",
		Description: "Something went wrong on our side.",
	}
)

// validationError surfaces the service's message so the client knows which
// field to fix.
func validationError(err error) *APIError {
	return &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "validation_failed",
		Description: err.Error(),
	}
}

// writeServiceError maps service sentinels onto the public error taxonomy.
// Anything unmapped is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		errInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrWrongTokenType):
		errInvalidTokenType.WriteError(w)
	case errors.Is(err, service.ErrInvalidToken):
		errInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInactiveAccount):
		errInactiveAccount.WriteError(w)
	case errors.Is(err, service.ErrUnverifiedEmail):
		errUnverifiedEmail.WriteError(w)
	case errors.Is(err, service.ErrInvalidCode):
		errInvalidCode.WriteError(w)
	case errors.Is(err, service.ErrAlreadyRegistered):
		errAlreadyRegistered.WriteError(w)
	case errors.Is(err, service.ErrEmailAlreadyVerified):
		errEmailAlreadyVerified.WriteError(w)
	case errors.Is(err, service.ErrNotStoryAuthor), errors.Is(err, service.ErrForbidden):
		errForbidden.WriteError(w)
	case errors.Is(err, service.ErrConflictingState):
		errConflictingState.WriteError(w)
	case errors.Is(err, service.ErrValidation):
		validationError(err).WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		errNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "err", err)
		errServerError.WriteError(w)
	}
}
