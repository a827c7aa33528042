// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-account-service/internal/auth"
	"codeberg.org/oliverandrich/go-account-service/internal/middleware"
	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
	"codeberg.org/oliverandrich/go-account-service/internal/services/token"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest is the request body for email verification.
type VerifyRequest struct {
	OTP string `json:"otp"`
}

// ResetOTPRequest is the request body for requesting a reset code.
type ResetOTPRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the request body for a password reset.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Register creates an account and logs it in.
func (h *Handlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	session, err := h.accounts.Register(c.Request().Context(), account.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	// The account exists even when the welcome email failed.
	if session != nil {
		h.setSessionCookie(c, session.Token)
	}
	if err != nil {
		if errors.Is(err, account.ErrNotification) {
			return respond(c, http.StatusInternalServerError, false, "msg_notification_failed", nil)
		}
		return err
	}

	return respond(c, http.StatusCreated, true, "msg_registered", nil)
}

// Login authenticates with email and password and sets the session cookie.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	session, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session.Token)
	return respond(c, http.StatusOK, true, "msg_login_success", nil)
}

// Logout clears the session cookie.
func (h *Handlers) Logout(c echo.Context) error {
	h.clearSessionCookie(c)
	return respond(c, http.StatusOK, true, "msg_logout_success", nil)
}

// SendVerifyOTP emails a fresh verification code to the logged-in account.
func (h *Handlers) SendVerifyOTP(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}

	if err := h.accounts.SendVerifyOTP(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, true, "msg_otp_sent", nil)
}

// VerifyAccount consumes the verification code of the logged-in account.
func (h *Handlers) VerifyAccount(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}

	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.accounts.VerifyEmail(c.Request().Context(), id, req.OTP); err != nil {
		return err
	}
	return respond(c, http.StatusOK, true, "msg_email_verified", nil)
}

// IsAuth succeeds for every request that passed the session guard.
func (h *Handlers) IsAuth(c echo.Context) error {
	if _, err := accountID(c); err != nil {
		return err
	}
	return respond(c, http.StatusOK, true, "", nil)
}

// SendResetOTP emails a password reset code.
func (h *Handlers) SendResetOTP(c echo.Context) error {
	var req ResetOTPRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.accounts.SendResetOTP(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return respond(c, http.StatusOK, true, "msg_otp_sent", nil)
}

// ResetPassword replaces the password using a reset code.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	err := h.accounts.ResetPassword(c.Request().Context(), account.ResetInput{
		Email:       req.Email,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, true, "msg_password_reset", nil)
}

func accountID(c echo.Context) (string, error) {
	id, ok := auth.AccountID(c.Request().Context())
	if !ok {
		return "", middleware.ErrNoToken
	}
	return id, nil
}

func (h *Handlers) setSessionCookie(c echo.Context, tok token.Token) {
	maxAge := h.cookie.MaxAge
	if maxAge <= 0 {
		maxAge = token.DefaultTTL
	}
	c.SetCookie(h.newCookie(tok.Value, int(maxAge/time.Second), tok.ExpiresAt))
}

func (h *Handlers) clearSessionCookie(c echo.Context) {
	c.SetCookie(h.newCookie("", -1, time.Unix(0, 0)))
}

func (h *Handlers) newCookie(value string, maxAge int, expires time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite,
	}
}
