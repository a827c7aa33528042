// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package account implements registration, login and the OTP-gated email
// verification and password reset flows.
package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/services/otp"
	"codeberg.org/oliverandrich/go-account-service/internal/services/token"
)

const (
	DefaultVerifyOTPTTL = 24 * time.Hour
	DefaultResetOTPTTL  = 15 * time.Minute
)

// Hasher hashes and checks passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
	VerifyDummy(plain string)
}

// Notifier delivers passcodes to the account's email address.
type Notifier interface {
	SendWelcome(ctx context.Context, name, email, otp string, validity time.Duration) error
	SendVerification(ctx context.Context, name, email, otp string, validity time.Duration) error
	SendReset(ctx context.Context, name, email, otp string, validity time.Duration) error
}

// Options tunes lifetimes and policy. Zero values select the defaults.
type Options struct {
	VerifyOTPTTL    time.Duration
	ResetOTPTTL     time.Duration
	ConcealAccounts bool
	Now             func() time.Time
}

type Service struct {
	store    repository.Store
	hasher   Hasher
	issuer   token.Issuer
	otpGen   otp.Generator
	notifier Notifier
	opts     Options
}

func New(store repository.Store, hasher Hasher, issuer token.Issuer, otpGen otp.Generator, notifier Notifier, opts Options) *Service {
	if opts.VerifyOTPTTL <= 0 {
		opts.VerifyOTPTTL = DefaultVerifyOTPTTL
	}
	if opts.ResetOTPTTL <= 0 {
		opts.ResetOTPTTL = DefaultResetOTPTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if otpGen == nil {
		otpGen = otp.Generate
	}
	return &Service{
		store:    store,
		hasher:   hasher,
		issuer:   issuer,
		otpGen:   otpGen,
		notifier: notifier,
		opts:     opts,
	}
}

// Session is the result of a successful registration or login.
type Session struct {
	AccountID string
	Token     token.Token
}

// AccountData is the public view of an account.
type AccountData struct {
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

// RegisterInput holds the parameters for account registration
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ResetInput holds the parameters for a password reset
type ResetInput struct {
	Email       string
	OTP         string
	NewPassword string
}

// Register creates an unverified account, issues a session and emails the
// first verification code. A delivery failure does not undo the account:
// the session is returned together with an error wrapping ErrNotification.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if err := requireFields(OpRegister,
		[2]string{"name", in.Name},
		[2]string{"email", in.Email},
		[2]string{"password", in.Password},
	); err != nil {
		return nil, err
	}

	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return nil, ErrInvalidEmail
	}

	_, err := s.store.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrAccountExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	passwordHash, err := s.hashPassword(OpRegister, "password", in.Password)
	if err != nil {
		return nil, err
	}

	code, err := s.otpGen()
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
	}
	acc.SetVerifyOTP(code, s.opts.Now(), s.opts.VerifyOTPTTL)

	if err := s.store.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	session, err := s.newSession(acc.ID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "register_success", "account_id", acc.ID)

	if err := s.notifier.SendWelcome(ctx, acc.Name, acc.Email, code, s.opts.VerifyOTPTTL); err != nil {
		slog.ErrorContext(ctx, "welcome_email_failed", "account_id", acc.ID, "error", err)
		return session, fmt.Errorf("%w: %w", ErrNotification, err)
	}

	return session, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords are indistinguishable, in result and in timing.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := requireFields(OpLogin,
		[2]string{"email", email},
		[2]string{"password", password},
	); err != nil {
		return nil, err
	}

	acc, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			slog.WarnContext(ctx, "login_failed", "reason", "account_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !s.hasher.Verify(acc.PasswordHash, password) {
		slog.WarnContext(ctx, "login_failed", "account_id", acc.ID, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	session, err := s.newSession(acc.ID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "login_success", "account_id", acc.ID)
	return session, nil
}

// SendVerifyOTP replaces any outstanding verification code with a fresh one
// and emails it.
func (s *Service) SendVerifyOTP(ctx context.Context, accountID string) error {
	acc, err := s.find(ctx, accountID)
	if err != nil {
		return err
	}
	if acc.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := s.otpGen()
	if err != nil {
		return err
	}
	acc.SetVerifyOTP(code, s.opts.Now(), s.opts.VerifyOTPTTL)

	if err := s.save(ctx, acc); err != nil {
		return err
	}

	if err := s.notifier.SendVerification(ctx, acc.Name, acc.Email, code, s.opts.VerifyOTPTTL); err != nil {
		slog.ErrorContext(ctx, "verification_email_failed", "account_id", acc.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}
	return nil
}

// VerifyEmail consumes the verification code and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, accountID, code string) error {
	if err := requireFields(OpVerifyEmail, [2]string{"otp", code}); err != nil {
		return err
	}

	acc, err := s.find(ctx, accountID)
	if err != nil {
		return err
	}
	if acc.IsVerified {
		return ErrAlreadyVerified
	}
	if !otpMatches(acc.VerifyOTP, code) {
		return ErrInvalidOTP
	}
	if acc.VerifyOTPExpired(s.opts.Now()) {
		return ErrExpiredOTP
	}

	acc.IsVerified = true
	acc.ClearVerifyOTP()
	if err := s.save(ctx, acc); err != nil {
		return err
	}

	slog.InfoContext(ctx, "email_verified", "account_id", acc.ID)
	return nil
}

// SendResetOTP issues a password reset code for the account behind email.
func (s *Service) SendResetOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := requireFields(OpSendResetOTP, [2]string{"email", email}); err != nil {
		return err
	}

	acc, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if s.opts.ConcealAccounts {
				slog.InfoContext(ctx, "reset_otp_skipped", "reason", "account_not_found")
				return nil
			}
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	code, err := s.otpGen()
	if err != nil {
		return err
	}
	acc.SetResetOTP(code, s.opts.Now(), s.opts.ResetOTPTTL)

	if err := s.save(ctx, acc); err != nil {
		return err
	}

	if err := s.notifier.SendReset(ctx, acc.Name, acc.Email, code, s.opts.ResetOTPTTL); err != nil {
		slog.ErrorContext(ctx, "reset_email_failed", "account_id", acc.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}
	return nil
}

// ResetPassword consumes the reset code and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, in ResetInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if err := requireFields(OpResetPassword,
		[2]string{"email", in.Email},
		[2]string{"otp", in.OTP},
		[2]string{"newPassword", in.NewPassword},
	); err != nil {
		return err
	}

	acc, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if s.opts.ConcealAccounts {
				return ErrInvalidOTP
			}
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if !otpMatches(acc.ResetOTP, in.OTP) {
		return ErrInvalidOTP
	}
	if acc.ResetOTPExpired(s.opts.Now()) {
		return ErrExpiredOTP
	}

	passwordHash, err := s.hashPassword(OpResetPassword, "newPassword", in.NewPassword)
	if err != nil {
		return err
	}

	acc.PasswordHash = passwordHash
	acc.ClearResetOTP()
	if err := s.save(ctx, acc); err != nil {
		return err
	}

	slog.InfoContext(ctx, "password_reset", "account_id", acc.ID)
	return nil
}

// AccountData returns the public fields of the authenticated account.
func (s *Service) AccountData(ctx context.Context, accountID string) (*AccountData, error) {
	acc, err := s.find(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &AccountData{Name: acc.Name, IsVerified: acc.IsVerified}, nil
}

func (s *Service) find(ctx context.Context, accountID string) (*models.Account, error) {
	acc, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (s *Service) save(ctx context.Context, acc *models.Account) error {
	if err := s.store.Save(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrStale) {
			slog.WarnContext(ctx, "account_update_conflict", "account_id", acc.ID)
			return ErrConcurrentUpdate
		}
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (s *Service) hashPassword(op Operation, field, plain string) (string, error) {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", &ValidationError{Op: op, Fields: []string{field}}
		}
		return "", err
	}
	return hash, nil
}

func (s *Service) newSession(accountID string) (*Session, error) {
	tok, err := s.issuer.Issue(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{AccountID: accountID, Token: tok}, nil
}

// otpMatches compares in constant time; an unset stored code or a malformed
// given code never matches.
func otpMatches(stored, given string) bool {
	if stored == "" || !otp.Valid(given) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
