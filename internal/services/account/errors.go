// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAlreadyVerified    = errors.New("account is already verified")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrExpiredOTP         = errors.New("otp has expired")
	ErrNotification       = errors.New("notification failed")
	ErrConcurrentUpdate   = errors.New("account was modified concurrently")
)

// Operation names the service call a ValidationError belongs to.
type Operation string

const (
	OpRegister      Operation = "register"
	OpLogin         Operation = "login"
	OpVerifyEmail   Operation = "verify_email"
	OpSendResetOTP  Operation = "send_reset_otp"
	OpResetPassword Operation = "reset_password"
)

// ValidationError lists the required inputs that were missing or unusable.
type ValidationError struct {
	Op     Operation
	Fields []string
}

func (e *ValidationError) Error() string {
	return string(e.Op) + ": missing or invalid " + strings.Join(e.Fields, ", ")
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// requireFields returns a ValidationError naming every empty field, or nil.
func requireFields(op Operation, fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if f[1] == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Op: op, Fields: missing}
}
