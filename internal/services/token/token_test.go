// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/go-account-service/internal/services/token"
)

const accountID = "6f1c2a5e-7a51-4f3e-9d0c-2b8f6d4e1a90"

var secret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func issuers(t *testing.T, clock *fakeClock) map[string]token.Issuer {
	t.Helper()
	out := make(map[string]token.Issuer)

	jwtIssuer, err := token.NewJWTIssuer(secret, token.WithClock(clock.Now))
	require.NoError(t, err)
	out["jwt"] = jwtIssuer

	cookieIssuer, err := token.NewCookieIssuer(secret, nil, token.WithClock(clock.Now))
	require.NoError(t, err)
	out["securecookie"] = cookieIssuer

	encrypted, err := token.NewCookieIssuer(secret, secret, token.WithClock(clock.Now))
	require.NoError(t, err)
	out["securecookie-encrypted"] = encrypted

	return out
}

func TestIssuer_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Now()}

	for name, issuer := range issuers(t, clock) {
		t.Run(name, func(t *testing.T) {
			tok, err := issuer.Issue(accountID)
			require.NoError(t, err)

			assert.NotEmpty(t, tok.Value)
			assert.WithinDuration(t, clock.now.Add(token.DefaultTTL), tok.ExpiresAt, time.Second)

			id, err := issuer.Verify(tok.Value)
			require.NoError(t, err)
			assert.Equal(t, accountID, id)
		})
	}
}

func TestIssuer_Expired(t *testing.T) {
	clock := &fakeClock{now: time.Now()}

	for name, issuer := range issuers(t, clock) {
		t.Run(name, func(t *testing.T) {
			clock.now = time.Now()
			tok, err := issuer.Issue(accountID)
			require.NoError(t, err)

			clock.now = clock.now.Add(token.DefaultTTL + time.Second)

			_, err = issuer.Verify(tok.Value)
			assert.ErrorIs(t, err, token.ErrInvalidToken)
		})
	}
}

func TestIssuer_Tampered(t *testing.T) {
	clock := &fakeClock{now: time.Now()}

	for name, issuer := range issuers(t, clock) {
		t.Run(name, func(t *testing.T) {
			tok, err := issuer.Issue(accountID)
			require.NoError(t, err)

			tampered := flipChar(tok.Value, len(tok.Value)/2)

			for _, raw := range []string{tampered, "", "garbage", "a.b.c"} {
				_, err = issuer.Verify(raw)
				assert.ErrorIs(t, err, token.ErrInvalidToken, raw)
			}
		})
	}
}

func TestIssuer_WrongKey(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	other := []byte("ffffffffffffffffffffffffffffffff")

	jwtA, err := token.NewJWTIssuer(secret, token.WithClock(clock.Now))
	require.NoError(t, err)
	jwtB, err := token.NewJWTIssuer(other, token.WithClock(clock.Now))
	require.NoError(t, err)
	cookieA, err := token.NewCookieIssuer(secret, nil)
	require.NoError(t, err)
	cookieB, err := token.NewCookieIssuer(other, nil)
	require.NoError(t, err)

	for name, pair := range map[string][2]token.Issuer{
		"jwt":          {jwtA, jwtB},
		"securecookie": {cookieA, cookieB},
	} {
		t.Run(name, func(t *testing.T) {
			tok, err := pair[0].Issue(accountID)
			require.NoError(t, err)

			_, err = pair[1].Verify(tok.Value)
			assert.ErrorIs(t, err, token.ErrInvalidToken)
		})
	}
}

func TestJWTIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer, err := token.NewJWTIssuer(secret)
	require.NoError(t, err)

	claims := token.Claims{
		ID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, raw := range []string{hs512, none} {
		_, err = issuer.Verify(raw)
		assert.ErrorIs(t, err, token.ErrInvalidToken)
	}
}

func TestJWTIssuer_RequiresExpiry(t *testing.T) {
	issuer, err := token.NewJWTIssuer(secret)
	require.NoError(t, err)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{ID: accountID}).SignedString(secret)
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	_, err := token.NewJWTIssuer(nil)
	assert.Error(t, err)

	_, err = token.NewCookieIssuer(nil, nil)
	assert.Error(t, err)
}

func TestNewCookieIssuer_InvalidBlockKey(t *testing.T) {
	_, err := token.NewCookieIssuer(secret, []byte("short"))

	assert.Error(t, err)
}

func TestWithTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer, err := token.NewJWTIssuer(secret, token.WithTTL(time.Hour), token.WithClock(clock.Now))
	require.NoError(t, err)

	tok, err := issuer.Issue(accountID)
	require.NoError(t, err)

	assert.WithinDuration(t, clock.now.Add(time.Hour), tok.ExpiresAt, time.Second)
}

func TestGenerateSecret(t *testing.T) {
	a, err := token.GenerateSecret()
	require.NoError(t, err)
	b, err := token.GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func flipChar(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
