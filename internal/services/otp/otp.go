// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp generates numeric one-time passcodes.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
)

// space is 10^OTPLength, the number of distinct codes.
var space = big.NewInt(1_000_000)

// Generator returns a fresh passcode.
type Generator func() (string, error)

// Generate draws a code uniformly from 000000..999999.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, space)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", models.OTPLength, n.Int64()), nil
}

// Valid reports whether code is six ASCII digits.
func Valid(code string) bool {
	if len(code) != models.OTPLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
