package httpx

import "context"

type ctxKey string

const (
	CtxKeyUsername ctxKey = "username"
	CtxKeyClaims   ctxKey = "claims" // full jwtx.Claims if a handler wants them
	CtxKeyUser     ctxKey = "user"   // the loaded domain user
)

// UsernameFromCtx returns the authenticated username, or "" if the request
// was not authenticated.
func UsernameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUsername).(string); ok {
		return v
	}
	return ""
}
