// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/testutil"
)

// stores returns a fresh instance of every embedded store implementation.
func stores(t *testing.T) map[string]repository.Store {
	t.Helper()
	_, sqliteStore := testutil.NewTestDB(t)
	return map[string]repository.Store{
		"sqlite": sqliteStore,
		"memory": repository.NewMemoryStore(),
	}
}

func TestStore_CreateAssignsIdentity(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			acc := testutil.NewTestAccount(t, store, "ada@example.com")

			assert.NotEmpty(t, acc.ID)
			assert.Equal(t, int64(1), acc.Version)
			assert.False(t, acc.CreatedAt.IsZero())
			assert.Equal(t, acc.CreatedAt, acc.UpdatedAt)
		})
	}
}

func TestStore_CreateDuplicateEmail(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			testutil.NewTestAccount(t, store, "ada@example.com")

			err := store.Create(context.Background(), &models.Account{Name: "Other", Email: "ada@example.com"})

			assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
		})
	}
}

func TestStore_FindRoundTrip(t *testing.T) {
	ctx := context.Background()
	expires := time.Date(2030, 1, 2, 3, 4, 5, int(6*time.Millisecond), time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			acc := &models.Account{
				Name:         "Ada",
				Email:        "ada@example.com",
				PasswordHash: "hash",
			}
			acc.SetVerifyOTP("123456", expires.Add(-time.Hour), time.Hour)
			require.NoError(t, store.Create(ctx, acc))

			byID, err := store.FindByID(ctx, acc.ID)
			require.NoError(t, err)
			byEmail, err := store.FindByEmail(ctx, "ada@example.com")
			require.NoError(t, err)

			assert.Equal(t, byID, byEmail)
			assert.Equal(t, "Ada", byID.Name)
			assert.Equal(t, "hash", byID.PasswordHash)
			assert.False(t, byID.IsVerified)
			assert.Equal(t, "123456", byID.VerifyOTP)
			assert.True(t, expires.Equal(byID.VerifyOTPExpiresAt))
			assert.Empty(t, byID.ResetOTP)
			assert.True(t, byID.ResetOTPExpiresAt.IsZero())
		})
	}
}

func TestStore_FindNotFound(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
			assert.ErrorIs(t, err, repository.ErrNotFound)

			_, err = store.FindByEmail(ctx, "nobody@example.com")
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestStore_SavePersistsMutableFields(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			acc := testutil.NewTestAccount(t, store, "ada@example.com")

			acc.IsVerified = true
			acc.PasswordHash = "new-hash"
			acc.SetResetOTP("654321", now, 15*time.Minute)
			require.NoError(t, store.Save(ctx, acc))
			assert.Equal(t, int64(2), acc.Version)

			got, err := store.FindByID(ctx, acc.ID)
			require.NoError(t, err)
			assert.True(t, got.IsVerified)
			assert.Equal(t, "new-hash", got.PasswordHash)
			assert.Equal(t, "654321", got.ResetOTP)
			assert.True(t, now.Add(15*time.Minute).Equal(got.ResetOTPExpiresAt))
			assert.Equal(t, int64(2), got.Version)
		})
	}
}

func TestStore_SaveStaleVersion(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			acc := testutil.NewTestAccount(t, store, "ada@example.com")

			first, err := store.FindByID(ctx, acc.ID)
			require.NoError(t, err)
			second, err := store.FindByID(ctx, acc.ID)
			require.NoError(t, err)

			first.IsVerified = true
			require.NoError(t, store.Save(ctx, first))

			second.Name = "Lost Update"
			err = store.Save(ctx, second)
			assert.ErrorIs(t, err, repository.ErrStale)

			got, err := store.FindByID(ctx, acc.ID)
			require.NoError(t, err)
			assert.Equal(t, "Test User", got.Name)
			assert.True(t, got.IsVerified)
		})
	}
}

func TestStore_ConcurrentSavesOnlyOneWins(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			acc := testutil.NewTestAccount(t, store, "ada@example.com")

			const writers = 8
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)
			for range writers {
				cp := *acc
				wg.Add(1)
				go func() {
					defer wg.Done()
					cp.IsVerified = true
					if err := store.Save(ctx, &cp); err == nil {
						mu.Lock()
						wins++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, wins)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acc := testutil.NewTestAccount(t, store, "ada@example.com")

	got, err := store.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := store.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test User", again.Name)
}
