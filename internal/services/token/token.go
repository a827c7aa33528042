// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token issues and verifies the bearer credential that identifies
// a logged-in account.
package token

import (
	"errors"
	"time"

	"github.com/gorilla/securecookie"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned for every token that fails verification,
// whether forged, malformed or expired.
var ErrInvalidToken = errors.New("invalid token")

// Token is a signed credential together with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer signs account ids into tokens and recovers them again.
type Issuer interface {
	Issue(accountID string) (Token, error)
	Verify(raw string) (string, error)
}

// Option configures an issuer.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GenerateSecret returns 32 random bytes suitable as a signing key.
func GenerateSecret() ([]byte, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return nil, errors.New("generate token secret: random source failed")
	}
	return key, nil
}
