package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrTokenType    = errors.New("jwtx: unexpected token type")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// mapParseError translates golang-jwt parse failures into our sentinel
// errors so callers can errors.Is without importing the jwt package.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, ErrNoKey):
		return ErrUnknownKID
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// keyfunc failures that aren't a missing kid, e.g. wrong key type
		return ErrInvalidSig
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}

// RS256Adapter a Verifier wrapper for RS256.
type RS256Adapter struct{ *RS256Verifier }

func (a RS256Adapter) Verify(token string) (Claims, error) {
	c, err := a.RS256Verifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}

// NewCommonRS256 returns a Verifier using the RS256 implementation wrapped
// in the common interface.
func NewCommonRS256(keys *KeySet, issuer string, audience []string) Verifier {
	return RS256Adapter{NewVerifierRS256(keys, issuer, audience)}
}

// EdDSAAdapter a Verifier wrapper for EdDSA.
type EdDSAAdapter struct{ *EdDSAVerifier }

func (a EdDSAAdapter) Verify(token string) (Claims, error) {
	c, err := a.EdDSAVerifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}

// NewCommonEdDSA returns a Verifier using the EdDSA implementation wrapped
// in the common interface.
func NewCommonEdDSA(keys *KeySet, issuer string, audience []string) Verifier {
	return EdDSAAdapter{NewVerifierEdDSA(keys, issuer, audience)}
}
