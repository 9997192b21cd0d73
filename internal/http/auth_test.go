package http_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterEndpoint(t *testing.T) {
	e := newEnv(t)

	t.Run("creates account", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/register", map[string]string{
			"username": "alice",
			"email":    "Alice@Example.com",
			"password": "Secret123!",
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		body := decodeBody[map[string]any](t, rr)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "alice@example.com", body["email"])
		assert.Equal(t, "user", body["role"])
		assert.Equal(t, false, body["is_email_verified"])
		assert.NotContains(t, rr.Body.String(), "password")

		created, err := time.Parse(time.RFC3339, body["created_at"].(string))
		require.NoError(t, err)
		assert.False(t, created.IsZero(), "201 body reflects the stored row")
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/register", map[string]string{
			"username": "alice",
			"email":    "other@example.com",
			"password": "Secret123!",
		})
		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "already_registered", errorCode(t, rr))
	})

	t.Run("rejects bad input", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/register", map[string]string{
			"username": "x",
			"email":    "x@example.com",
			"password": "Secret123!",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_failed", errorCode(t, rr))
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/register", map[string]any{
			"username": "bob",
			"extra":    true,
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_request", errorCode(t, rr))
	})
}

func TestLoginEndpoint(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "alice@example.com", "Secret123!")

	t.Run("unverified email is forbidden", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/login", map[string]string{
			"identifier": "alice",
			"password":   "Secret123!",
		})
		require.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "unverified_email", errorCode(t, rr))
	})

	e.verifyEmail("alice", "alice@example.com")

	t.Run("by username", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/login", map[string]string{
			"identifier": "alice",
			"password":   "Secret123!",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := decodeBody[map[string]any](t, rr)
		assert.NotEmpty(t, body["access_token"])
		assert.Equal(t, "Bearer", body["token_type"])
		assert.EqualValues(t, 900, body["expires_in"])
		assert.NotContains(t, body, "refresh_token")
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

		cookie := refreshCookie(rr)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.NotEmpty(t, cookie.Value)
	})

	t.Run("by email", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/login", map[string]string{
			"identifier": "alice@example.com",
			"password":   "Secret123!",
		})
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("wrong password and unknown account look identical", func(t *testing.T) {
		wrong := e.do(http.MethodPost, "/v1/auth/login", map[string]string{
			"identifier": "alice",
			"password":   "nope nope nope",
		})
		unknown := e.do(http.MethodPost, "/v1/auth/login", map[string]string{
			"identifier": "nobody",
			"password":   "nope nope nope",
		})
		require.Equal(t, http.StatusUnauthorized, wrong.Code)
		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, errorCode(t, wrong), errorCode(t, unknown))
	})
}

func TestRefreshEndpoint(t *testing.T) {
	e := newEnv(t)
	_, cookie := e.registerVerified("alice", "alice@example.com", "Secret123!")

	t.Run("rotates the pair", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/refresh", nil, withCookie(cookie))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := decodeBody[map[string]any](t, rr)
		assert.NotEmpty(t, body["access_token"])

		rotated := refreshCookie(rr)
		require.NotNil(t, rotated)
		assert.NotEqual(t, cookie.Value, rotated.Value)
	})

	t.Run("spent cookie is dead", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/refresh", nil, withCookie(cookie))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid_token", errorCode(t, rr))

		// The failed refresh also clears the cookie.
		cleared := refreshCookie(rr)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
	})

	t.Run("missing cookie", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/refresh", nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	e := newEnv(t)
	access, cookie := e.registerVerified("alice", "alice@example.com", "Secret123!")

	rr := e.do(http.MethodPost, "/v1/auth/logout", nil, withToken(access), withCookie(cookie))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	cleared := refreshCookie(rr)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	t.Run("access token is revoked", func(t *testing.T) {
		rr := e.do(http.MethodGet, "/v1/users/me", nil, withToken(access))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("refresh token is revoked", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/refresh", nil, withCookie(cookie))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("logout without a live token fails", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/logout", nil, withToken(access))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	e := newEnv(t)
	e.registerVerified("alice", "alice@example.com", "Secret123!")

	rr := e.do(http.MethodPost, "/v1/auth/forgot-password", map[string]string{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusAccepted, rr.Code)

	cred, err := e.store.Credentials().GetCredential(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, cred.PasswordResetCode)
	code := *cred.PasswordResetCode

	t.Run("wrong code rejected", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/change-password", map[string]string{
			"email":        "alice@example.com",
			"code":         "WRONG1",
			"new_password": "Fresh456!",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_code", errorCode(t, rr))
	})

	t.Run("correct code changes the password", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/change-password", map[string]string{
			"email":        "alice@example.com",
			"code":         code,
			"new_password": "Fresh456!",
		})
		require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

		e.login("alice", "Fresh456!")
	})

	t.Run("unknown address still accepted", func(t *testing.T) {
		rr := e.do(http.MethodPost, "/v1/auth/forgot-password", map[string]string{
			"email": "nobody@example.com",
		})
		require.Equal(t, http.StatusAccepted, rr.Code)
	})
}

func TestMeEndpoint(t *testing.T) {
	e := newEnv(t)
	access, _ := e.registerVerified("alice", "alice@example.com", "Secret123!")

	t.Run("authenticated", func(t *testing.T) {
		rr := e.do(http.MethodGet, "/v1/users/me", nil, withToken(access))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := decodeBody[map[string]any](t, rr)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, true, body["is_email_verified"])
	})

	t.Run("missing token", func(t *testing.T) {
		rr := e.do(http.MethodGet, "/v1/users/me", nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := e.do(http.MethodGet, "/v1/users/me", nil, withToken("not.a.jwt"))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestPublicProfileEndpoint(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "alice@example.com", "Secret123!")

	rr := e.do(http.MethodGet, "/v1/users/alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[map[string]any](t, rr)
	assert.Equal(t, "alice", body["username"])

	rr = e.do(http.MethodGet, "/v1/users/nobody", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", errorCode(t, rr))
}

func TestLoginRateLimit(t *testing.T) {
	e := newEnv(t)
	e.registerVerified("alice", "alice@example.com", "Secret123!")

	// Hammer login from one address until the strict profile trips.
	var last int
	for i := 0; i < 10; i++ {
		rr := e.do(http.MethodPost, "/v1/auth/login", map[string]string{
			"identifier": "alice",
			"password":   "wrong password",
		}, withIP("203.0.113.7"))
		last = rr.Code
		if last == http.StatusTooManyRequests {
			assert.NotEmpty(t, rr.Header().Get("Retry-After"))
			break
		}
	}
	require.Equal(t, http.StatusTooManyRequests, last)

	// A different address is unaffected.
	rr := e.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"identifier": "alice",
		"password":   "Secret123!",
	}, withIP("203.0.113.8"))
	require.Equal(t, http.StatusOK, rr.Code)
}
