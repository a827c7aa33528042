// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package templates holds the templ components for outgoing email bodies.
package templates

import (
	"context"

	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
)

// Locale returns the current locale.
func Locale(ctx context.Context) string {
	return i18n.GetLocale(ctx)
}
