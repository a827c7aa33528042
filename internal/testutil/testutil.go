// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/go-account-service/internal/database"
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the store for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.SQLiteStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.NewSQLiteStore(db)
}

// NewTestAccount creates an unverified account with the given email.
func NewTestAccount(t *testing.T, store repository.Store, email string) *models.Account {
	t.Helper()
	acc := &models.Account{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, store.Create(context.Background(), acc))
	return acc
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request with a JSON content type.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
