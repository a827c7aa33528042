// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package repository persists accounts.
package repository

import (
	"context"
	"errors"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when the unique email index rejects an insert.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStale is returned by Save when the account was modified since it was read.
	ErrStale = errors.New("account was modified concurrently")
)

// Store is the persistence contract of the account service.
//
// Create assigns ID, Version and the timestamps on the passed account.
// Save writes every mutable field in one statement, guarded by Version,
// and bumps Version on success.
type Store interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Save(ctx context.Context, account *models.Account) error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
