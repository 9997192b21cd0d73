package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/pkg/httpx"
	"github.com/aussiebroadwan/yarnhub/pkg/jwtx"
)

// AuthHandler serves the /v1/auth endpoints: registration, the email
// verification and password reset flows, and the session lifecycle
// (login, refresh, logout).
type AuthHandler struct {
	AuthService *service.AuthService

	Cookies    CookieConfig
	RefreshTTL time.Duration
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.RefreshTTL <= 0 {
		return jwtx.DefaultRefreshTokenTTL
	}
	return h.RefreshTTL
}

// tokenResponse is the body of a successful login or refresh. The refresh
// token travels in the HttpOnly cookie, never here.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *AuthHandler) writeTokenPair(w http.ResponseWriter, pair domain.TokenPair) {
	setRefreshCookie(w, h.Cookies, pair.RefreshToken, h.refreshTTL())
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   int(pair.ExpiresIn.Seconds()),
	})
}

// HandleRegister serves POST /v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, user.Profile())
}

// HandleLogin serves POST /v1/auth/login. The identifier may be a username
// or an email address.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.writeTokenPair(w, pair)
}

// HandleRefresh serves POST /v1/auth/refresh. The spent refresh token is
// blacklisted and the cookie rotated, so each refresh token works once.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := refreshTokenFromRequest(r)
	if refreshToken == "" {
		errInvalidToken.WriteError(w)
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), refreshToken)
	if err != nil {
		clearRefreshCookie(w, h.Cookies)
		writeServiceError(w, r, err)
		return
	}

	h.writeTokenPair(w, pair)
}

// HandleLogout serves POST /v1/auth/logout. Requires a live access token;
// both the access token and the refresh cookie (if present) are blacklisted.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := bearerToken(r)
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	err := h.AuthService.Logout(r.Context(), accessToken, refreshTokenFromRequest(r))
	clearRefreshCookie(w, h.Cookies)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSendEmailVerification serves POST /v1/auth/send-email-verification-token.
func (h *AuthHandler) HandleSendEmailVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.SendEmailVerification(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleConfirmEmail serves POST /v1/auth/confirm-email.
func (h *AuthHandler) HandleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.ConfirmEmail(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleForgotPassword serves POST /v1/auth/forgot-password. Always accepted
// for unknown addresses so the endpoint can't be used to probe registration.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), req.Email); err != nil {
		// An unknown address looks exactly like a known one from outside.
		if !errors.Is(err, store.ErrNotFound) {
			writeServiceError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleChangePassword serves POST /v1/auth/change-password.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.ChangePassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
