// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "vidfolio"

// Claims bind a token to one session and the video it plays.
// The session id travels in the standard "jti" claim.
type Claims struct {
	VideoID string `json:"vid"`
	jwt.RegisteredClaims
}

type signer struct {
	secret []byte
	now    func() time.Time
}

// newSecret returns a random HS256 key for registries configured without one.
func newSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return b, nil
}

func (s signer) sign(sessionID, videoID string, issued, expires time.Time) (string, error) {
	claims := Claims{
		VideoID: videoID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// verify checks signature, algorithm, issuer and expiry, and that the token was
// issued for sessionID.
func (s signer) verify(raw, sessionID string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.ID != sessionID {
		return nil, fmt.Errorf("%w: token issued for another session", ErrUnauthorized)
	}
	return &claims, nil
}
