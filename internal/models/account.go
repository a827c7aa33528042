// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// OTPLength is the number of digits of every one-time passcode.
const OTPLength = 6

// Account is the only persistent entity: one record per email address.
// A zero expiry means the corresponding OTP is unset.
type Account struct { //nolint:govet // fieldalignment: readability over optimization
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	IsVerified         bool      `json:"is_verified"`
	VerifyOTP          string    `json:"-"`
	VerifyOTPExpiresAt time.Time `json:"-"`
	ResetOTP           string    `json:"-"`
	ResetOTPExpiresAt  time.Time `json:"-"`
	Version            int64     `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// SetVerifyOTP stores a verification code valid for ttl from now.
func (a *Account) SetVerifyOTP(code string, now time.Time, ttl time.Duration) {
	a.VerifyOTP = code
	a.VerifyOTPExpiresAt = now.Add(ttl)
}

// ClearVerifyOTP resets the verification code together with its expiry.
func (a *Account) ClearVerifyOTP() {
	a.VerifyOTP = ""
	a.VerifyOTPExpiresAt = time.Time{}
}

// VerifyOTPExpired reports whether the verification code is no longer usable at now.
func (a *Account) VerifyOTPExpired(now time.Time) bool {
	return expired(a.VerifyOTPExpiresAt, now)
}

// SetResetOTP stores a password-reset code valid for ttl from now.
func (a *Account) SetResetOTP(code string, now time.Time, ttl time.Duration) {
	a.ResetOTP = code
	a.ResetOTPExpiresAt = now.Add(ttl)
}

// ClearResetOTP resets the password-reset code together with its expiry.
func (a *Account) ClearResetOTP() {
	a.ResetOTP = ""
	a.ResetOTPExpiresAt = time.Time{}
}

// ResetOTPExpired reports whether the reset code is no longer usable at now.
func (a *Account) ResetOTPExpired(now time.Time) bool {
	return expired(a.ResetOTPExpiresAt, now)
}

// expired treats an unset expiry as always expired; a code is only valid while now < expiry.
func expired(expiresAt, now time.Time) bool {
	if expiresAt.IsZero() {
		return true
	}
	return !now.Before(expiresAt)
}

// MillisToTime converts a stored unix-millisecond expiry to time.Time, 0 meaning unset.
func MillisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// TimeToMillis converts an expiry to unix milliseconds for storage, zero time meaning 0.
func TimeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
