// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
)

// ErrorHandler renders every error returned by a handler or middleware as a
// failed envelope. It is installed as echo's HTTPErrorHandler.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, messageID := classify(err)
	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request_failed", "status", status, "error", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = respond(c, status, false, messageID, nil)
	}
	if writeErr != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", writeErr)
	}
}

// classify maps an error to its HTTP status and message id.
func classify(err error) (int, string) {
	var verr *account.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, validationMessage(verr.Op)
	}

	switch {
	case errors.Is(err, account.ErrInvalidEmail):
		return http.StatusBadRequest, "msg_invalid_email"
	case errors.Is(err, account.ErrAccountExists):
		return http.StatusConflict, "msg_account_exists"
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized, "msg_invalid_credentials"
	case errors.Is(err, account.ErrAccountNotFound):
		return http.StatusNotFound, "msg_account_not_found"
	case errors.Is(err, account.ErrAlreadyVerified):
		return http.StatusConflict, "msg_already_verified"
	case errors.Is(err, account.ErrInvalidOTP):
		return http.StatusBadRequest, "msg_invalid_otp"
	case errors.Is(err, account.ErrExpiredOTP):
		return http.StatusGone, "msg_expired_otp"
	case errors.Is(err, account.ErrConcurrentUpdate):
		return http.StatusConflict, "msg_concurrent_update"
	case errors.Is(err, account.ErrNotification):
		return http.StatusInternalServerError, "msg_email_failed"
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if id, ok := he.Message.(string); ok && strings.HasPrefix(id, "msg_") {
			return he.Code, id
		}
		switch {
		case he.Code == http.StatusNotFound, he.Code == http.StatusMethodNotAllowed:
			return he.Code, "msg_not_found"
		case he.Code == http.StatusUnauthorized:
			return he.Code, "msg_unauthenticated_invalid"
		case he.Code >= http.StatusInternalServerError:
			return he.Code, "msg_internal_error"
		default:
			return he.Code, "msg_bad_request"
		}
	}

	return http.StatusInternalServerError, "msg_internal_error"
}

func validationMessage(op account.Operation) string {
	switch op {
	case account.OpRegister:
		return "msg_missing_details"
	case account.OpLogin:
		return "msg_credentials_required"
	case account.OpVerifyEmail:
		return "msg_missing_otp"
	case account.OpSendResetOTP:
		return "msg_email_required"
	case account.OpResetPassword:
		return "msg_reset_fields_required"
	default:
		return "msg_bad_request"
	}
}
