// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware holds the echo middleware specific to the account API.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-account-service/internal/auth"
	"codeberg.org/oliverandrich/go-account-service/internal/services/token"
)

// Rejections carry message ids; the HTTP error handler localizes them.
var (
	ErrNoToken      = echo.NewHTTPError(http.StatusUnauthorized, "msg_unauthenticated_missing")
	ErrInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "msg_unauthenticated_invalid")
)

// RequireSession rejects requests without a valid session token. The token
// is read from the named cookie, or from an "Authorization: Bearer" header
// when no cookie is sent. The verified account id is stored in the request
// context (see auth.AccountID).
func RequireSession(issuer token.Issuer, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c, cookieName)
			if raw == "" {
				return ErrNoToken
			}

			id, err := issuer.Verify(raw)
			if err != nil {
				slog.DebugContext(c.Request().Context(), "session_rejected", "error", err)
				return ErrInvalidToken
			}

			ctx := auth.WithAccountID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	scheme, raw, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(raw)
}
