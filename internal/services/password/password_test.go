// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/oliverandrich/go-account-service/internal/services/password"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")

	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, h.Verify(hash, "secret1"))
	assert.False(t, h.Verify(hash, "secret2"))
	assert.False(t, h.Verify(hash, ""))
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	first, err := h.Hash("secret1")
	require.NoError(t, err)
	second, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_InvalidCostFallsBack(t *testing.T) {
	h := password.NewHasher(0)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, password.DefaultCost, cost)
}

func TestHasher_VerifyGarbageHash(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("not-a-bcrypt-hash", "secret1"))
}

func TestHasher_TooLongPassword(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", 73))

	assert.Error(t, err)
}

func TestHasher_VerifyDummy(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	assert.NotPanics(t, func() { h.VerifyDummy("anything") })
}
