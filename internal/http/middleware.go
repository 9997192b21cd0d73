package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/pkg/httpx"
	"github.com/aussiebroadwan/yarnhub/pkg/slogx"
)

// AuthnMiddleware verifies the bearer access token and loads the account
// behind it. It runs the full session validation chain, so a revoked token
// or a blocked account is rejected here, before any handler runs.
func AuthnMiddleware(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="missing bearer token"`)
				errInvalidToken.WriteError(w)
				return
			}

			user, claims, err := sessions.ValidateAccess(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Warn("access token rejected", "err", err)
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				writeServiceError(w, r, err)
				return
			}

			ctx = context.WithValue(ctx, httpx.CtxKeyUsername, user.Username)
			ctx = context.WithValue(ctx, httpx.CtxKeyClaims, claims)
			ctx = context.WithValue(ctx, httpx.CtxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	return raw, raw != ""
}

// userFromCtx returns the account loaded by AuthnMiddleware. The second
// return is false on routes that never passed through it.
func userFromCtx(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(httpx.CtxKeyUser).(domain.User)
	return u, ok
}
