// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON endpoints of the account API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
)

// AccountService is the subset of *account.Service the handlers call.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.Session, error)
	Login(ctx context.Context, email, password string) (*account.Session, error)
	SendVerifyOTP(ctx context.Context, accountID string) error
	VerifyEmail(ctx context.Context, accountID, otp string) error
	SendResetOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in account.ResetInput) error
	AccountData(ctx context.Context, accountID string) (*account.AccountData, error)
}

// CookieConfig controls the session cookie. Secure cookies are sent with
// SameSite=None so a browser client on another origin can use them.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	accounts AccountService
	cookie   CookieConfig
}

// New creates a new Handlers instance.
func New(accounts AccountService, cookie CookieConfig) *Handlers {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &Handlers{accounts: accounts, cookie: cookie}
}

// Index answers liveness probes of the API client.
func (h *Handlers) Index(c echo.Context) error {
	return c.String(http.StatusOK, i18n.T(c.Request().Context(), "api_working"))
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
