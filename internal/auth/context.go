// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/oliverandrich/go-account-service/internal/ctxkeys"
)

// WithAccountID returns a copy of ctx carrying the authenticated account id.
func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkeys.AccountID{}, id)
}

// AccountID returns the authenticated account id from the context.
func AccountID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxkeys.AccountID{}).(string)
	return id, ok && id != ""
}

// IsAuthenticated returns true if the context carries an account id.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := AccountID(ctx)
	return ok
}
