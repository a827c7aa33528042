// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package token

import (
	"errors"
	"time"

	"github.com/gorilla/securecookie"
)

const cookieTokenName = "token"

type cookiePayload struct {
	ID  string `json:"id"`
	Exp int64  `json:"exp"`
}

// CookieIssuer issues HMAC signed, optionally AES encrypted securecookie values.
type CookieIssuer struct {
	codec *securecookie.SecureCookie
	opts  options
}

// NewCookieIssuer creates an issuer. hashKey should be 32 or 64 bytes;
// blockKey is optional and enables encryption when set (16, 24 or 32 bytes).
func NewCookieIssuer(hashKey, blockKey []byte, opts ...Option) (*CookieIssuer, error) {
	if len(hashKey) == 0 {
		return nil, errors.New("securecookie hash key must not be empty")
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}

	o := buildOptions(opts)
	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(o.ttl / time.Second))
	if _, err := codec.Encode(cookieTokenName, cookiePayload{}); err != nil {
		return nil, err
	}

	return &CookieIssuer{codec: codec, opts: o}, nil
}

// Issue encodes accountID with its expiry.
func (i *CookieIssuer) Issue(accountID string) (Token, error) {
	expires := i.opts.now().Add(i.opts.ttl).Truncate(time.Second)

	value, err := i.codec.Encode(cookieTokenName, cookiePayload{ID: accountID, Exp: expires.Unix()})
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, ExpiresAt: expires}, nil
}

// Verify decodes raw and checks the embedded expiry.
func (i *CookieIssuer) Verify(raw string) (string, error) {
	var p cookiePayload
	if err := i.codec.Decode(cookieTokenName, raw, &p); err != nil {
		return "", ErrInvalidToken
	}
	if p.ID == "" || !i.opts.now().Before(time.Unix(p.Exp, 0)) {
		return "", ErrInvalidToken
	}
	return p.ID, nil
}
