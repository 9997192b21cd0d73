package http

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie carrying the refresh token. The token never
// appears in response bodies; rotation happens entirely through this cookie.
const RefreshCookieName = "yarnhub_refresh"

// CookieConfig holds the attributes that differ between deployments. Secure
// is off for plain-HTTP dev setups, on everywhere else.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
}

func (c CookieConfig) sameSite() http.SameSite {
	if c.SameSite == 0 {
		return http.SameSiteStrictMode
	}
	return c.SameSite
}

func setRefreshCookie(w http.ResponseWriter, cfg CookieConfig, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	})
}

func clearRefreshCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	})
}

// refreshTokenFromRequest reads the refresh cookie, returning "" when absent.
func refreshTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
