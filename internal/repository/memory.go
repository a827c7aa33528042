// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
)

// MemoryStore is a process-local Store. It copies accounts on every read and
// write so callers never share state with the map.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*models.Account
	byEmail map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

// FindByID retrieves an account by its ID.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

// FindByEmail retrieves an account by its email address.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	s.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

// Create inserts a new account.
func (s *MemoryStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[account.Email]; exists {
		return ErrDuplicateEmail
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.Version = 1
	account.CreatedAt = now
	account.UpdatedAt = now

	cp := *account
	s.byID[cp.ID] = &cp
	s.byEmail[cp.Email] = cp.ID
	return nil
}

// Save replaces the stored account if the version still matches.
func (s *MemoryStore) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[account.ID]
	if !ok || current.Version != account.Version {
		return ErrStale
	}

	account.Version++
	account.UpdatedAt = time.Now().UTC()

	cp := *account
	// Email is immutable after registration.
	cp.Email = current.Email
	cp.CreatedAt = current.CreatedAt
	s.byID[cp.ID] = &cp
	return nil
}
