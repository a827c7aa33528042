// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// respond writes an envelope with the localized message for messageID.
func respond(c echo.Context, status int, success bool, messageID string, data any) error {
	env := Envelope{Success: success, Data: data}
	if messageID != "" {
		env.Message = i18n.T(c.Request().Context(), messageID)
	}
	return c.JSON(status, env)
}
