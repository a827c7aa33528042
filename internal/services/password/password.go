// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// dummyHash lets VerifyDummy spend the same time as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), DefaultCost)

// Hasher produces and checks salted bcrypt hashes.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given cost. Costs outside bcrypt's
// accepted range fall back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash.
func (h *Hasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyDummy burns one comparison for logins against unknown accounts.
func (h *Hasher) VerifyDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}
