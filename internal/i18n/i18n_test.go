// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
)

func TestInit(t *testing.T) {
	err := i18n.Init()
	require.NoError(t, err)
}

func TestT(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	// Should translate known key
	result := i18n.T(ctx, "app_name")
	assert.NotEqual(t, "app_name", result) // Should be translated
}

func TestT_German(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.German)

	// Should use German translation
	result := i18n.T(ctx, "app_name")
	assert.NotEqual(t, "app_name", result)
}

func TestT_UnknownKey(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	// Should return the key itself for unknown messages
	result := i18n.T(ctx, "unknown_key_that_does_not_exist")
	assert.Equal(t, "unknown_key_that_does_not_exist", result)
}

func TestT_NoLocaleContext(t *testing.T) {
	require.NoError(t, i18n.Init())

	// Without WithLocale, should fallback to English
	ctx := context.Background()

	result := i18n.T(ctx, "app_name")
	assert.NotEmpty(t, result)
}

func TestTData(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	result := i18n.TData(ctx, "email_greeting", map[string]any{"Name": "Ada"})
	assert.Equal(t, "Hi Ada,", result)
}

func TestTPlural(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "1 hour", i18n.TPlural(ctx, "duration_hours", 1))
	assert.Equal(t, "5 hours", i18n.TPlural(ctx, "duration_hours", 5))
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		expected       language.Tag
		acceptLanguage string
	}{
		{language.English, "en"},
		{language.English, "en-US"},
		{language.German, "de"},
		{language.German, "de-DE"},
		{language.German, "de-AT"},
		{language.English, "fr"}, // fallback to English
		{language.English, ""},   // empty defaults to English
		{language.German, "de, en;q=0.9"},
		{language.English, "en, de;q=0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.acceptLanguage, func(t *testing.T) {
			assert.Equal(t, tt.expected, i18n.MatchLanguage(tt.acceptLanguage))
		})
	}
}

func TestWithLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.German)

	locale := i18n.GetLocale(ctx)
	assert.Equal(t, "de", locale)
}

func TestGetLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "en", i18n.GetLocale(ctx))
}

func TestGetLocale_Default(t *testing.T) {
	ctx := context.Background()

	// Without WithLocale, should return "en"
	assert.Equal(t, "en", i18n.GetLocale(ctx))
}

func TestDuration(t *testing.T) {
	en := i18n.WithLocale(context.Background(), language.English)
	de := i18n.WithLocale(context.Background(), language.German)

	assert.Equal(t, "24 hours", i18n.Duration(en, 24*time.Hour))
	assert.Equal(t, "15 minutes", i18n.Duration(en, 15*time.Minute))
	assert.Equal(t, "1 minute", i18n.Duration(en, time.Minute))
	assert.Equal(t, "90 minutes", i18n.Duration(en, 90*time.Minute))
	assert.Equal(t, "24 Stunden", i18n.Duration(de, 24*time.Hour))
	assert.Equal(t, "15 Minuten", i18n.Duration(de, 15*time.Minute))
}

func TestCatalogsAreComplete(t *testing.T) {
	en := i18n.WithLocale(context.Background(), language.English)
	de := i18n.WithLocale(context.Background(), language.German)

	for _, id := range []string{
		"msg_missing_details", "msg_account_exists", "msg_invalid_credentials",
		"msg_invalid_otp", "msg_expired_otp", "msg_unauthenticated_missing",
		"email_welcome_subject", "email_reset_subject", "email_footer",
	} {
		assert.NotEqual(t, id, i18n.T(en, id), id)
		assert.NotEqual(t, i18n.T(en, id), i18n.T(de, id), id)
	}
}

func TestT_WithoutInit(t *testing.T) {
	assert.Equal(t, "API is working", i18n.T(context.Background(), "api_working"))
}
