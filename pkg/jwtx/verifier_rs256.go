package jwtx

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RS256Verifier validates JWTs signed using RS256.
type RS256Verifier struct {
	keys   *KeySet
	issuer string
	aud    []string

	// Now is the clock used for exp/nbf checks. Defaults to time.Now;
	// tests pin it to validate expiry behaviour deterministically.
	Now func() time.Time
}

// NewVerifierRS256 creates a verifier using a KeySet of RSA public keys.
func NewVerifierRS256(keys *KeySet, issuer string, aud []string) *RS256Verifier {
	return &RS256Verifier{keys: keys, issuer: issuer, aud: aud}
}

func (v *RS256Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *RS256Verifier) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		// Need the kid to know which key to use
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}

		// Try to find this key in our set
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("jwtx: unknown kid %q: %w", kid, err)
		}

		// Make sure it's actually an RSA key (it should be, watch it not be)
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("jwtx: invalid RSA key type")
		}
		return rsaPub, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaim
	}

	// Now check all the claim requirements
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiryAt(v.now()); err != nil {
		return nil, err
	}

	return claims, nil
}
