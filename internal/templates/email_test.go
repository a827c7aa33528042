// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
	"codeberg.org/oliverandrich/go-account-service/internal/templates"
)

func TestOTPEmail(t *testing.T) {
	require.NoError(t, i18n.Init())
	ctx := i18n.WithLocale(context.Background(), language.German)

	var sb strings.Builder
	err := templates.OTPEmail(templates.OTPEmailData{
		Heading:  "Hello",
		Greeting: "Hi <script>alert(1)</script>",
		OTP:      "123456",
		Footer:   "automated",
	}).Render(ctx, &sb)

	require.NoError(t, err)
	html := sb.String()
	assert.Contains(t, html, `lang="de"`)
	assert.Contains(t, html, "123456")
	assert.Contains(t, html, "automated")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestOTPEmail_NoFooter(t *testing.T) {
	var sb strings.Builder
	err := templates.OTPEmail(templates.OTPEmailData{OTP: "654321"}).Render(context.Background(), &sb)

	require.NoError(t, err)
	assert.NotContains(t, sb.String(), "<hr")
}
