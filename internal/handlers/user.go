// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// UserData returns the name and verification state of the logged-in account.
func (h *Handlers) UserData(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}

	data, err := h.accounts.AccountData(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, true, "", data)
}
