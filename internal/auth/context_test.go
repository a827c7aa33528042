// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"codeberg.org/oliverandrich/go-account-service/internal/auth"
)

func TestAccountID(t *testing.T) {
	ctx := context.Background()

	_, ok := auth.AccountID(ctx)
	assert.False(t, ok)
	assert.False(t, auth.IsAuthenticated(ctx))

	ctx = auth.WithAccountID(ctx, "acc-1")

	id, ok := auth.AccountID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "acc-1", id)
	assert.True(t, auth.IsAuthenticated(ctx))
}

func TestAccountID_EmptyIsUnauthenticated(t *testing.T) {
	ctx := auth.WithAccountID(context.Background(), "")

	assert.False(t, auth.IsAuthenticated(ctx))
}
