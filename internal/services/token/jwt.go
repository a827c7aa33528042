// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload; ID duplicates the subject for clients that read it directly.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// JWTIssuer issues HS256 signed JWTs.
type JWTIssuer struct {
	secret []byte
	opts   options
}

// NewJWTIssuer creates an issuer signing with secret.
func NewJWTIssuer(secret []byte, opts ...Option) (*JWTIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTIssuer{secret: secret, opts: buildOptions(opts)}, nil
}

// Issue signs a token for accountID.
func (i *JWTIssuer) Issue(accountID string) (Token, error) {
	now := i.opts.now()
	expires := now.Add(i.opts.ttl)

	claims := Claims{
		ID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: expires.Truncate(time.Second)}, nil
}

// Verify checks signature, algorithm and expiry and returns the account id.
func (i *JWTIssuer) Verify(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.opts.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
