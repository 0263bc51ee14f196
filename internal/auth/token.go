// Package auth implements the token service: issuing and
// verifying the signed bearer tokens that bind a request to one
// user identity. Tokens are HS256 JWTs carrying sub, aud, iss, exp
// and iat claims. Symmetric signing is sufficient here because the
// issuer and the verifier are the same process.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Verify for every failure mode:
// bad signature, wrong audience or issuer, expired, malformed.
// Callers get no further detail so the response cannot be used as
// an oracle to distinguish missing from expired from forged.
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer issues and verifies access tokens. The zero value is
// not usable; construct one with NewTokenIssuer at startup and
// pass it to the auth middleware and the auth handlers.
type TokenIssuer struct {
	secret   []byte
	audience string
	issuer   string
	ttl      time.Duration
}

// NewTokenIssuer builds a TokenIssuer from the shared signing
// secret, the expected audience/issuer pair and the access token
// TTL in minutes.
func NewTokenIssuer(secret, audience, issuer string, ttlMin int) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		audience: audience,
		issuer:   issuer,
		ttl:      time.Duration(ttlMin) * time.Minute,
	}
}

// Issue signs a token whose subject is userID. The expiry is fixed
// at issuance time plus the configured TTL.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": userID,
		"aud": t.audience,
		"iss": t.issuer,
		"exp": now.Add(t.ttl).Unix(),
		"iat": now.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Verify parses and validates a raw token and returns the subject
// user id. Verification is all-or-nothing: any failure yields
// ErrInvalidToken and an empty id.
func (t *TokenIssuer) Verify(raw string) (string, error) {
	tok, err := jwt.Parse(raw,
		func(tk *jwt.Token) (interface{}, error) {
			// Reject tokens signed with anything but HMAC.
			if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return t.secret, nil
		},
		jwt.WithAudience(t.audience),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
