package domain

import "time"

// TokenPair is what a successful login or refresh returns: a short-lived
// access token plus a longer-lived refresh token, both signed JWTs.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until access token expiry
}
