// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"time"

	"github.com/a-h/templ"

	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
	"codeberg.org/oliverandrich/go-account-service/internal/templates"
)

// WelcomeMessage is sent on registration and carries the first verification code.
func WelcomeMessage(ctx context.Context, name, to, otp string, validity time.Duration) (Message, error) {
	return compose(ctx, "email_welcome", name, to, otp, validity, true)
}

// VerificationMessage carries a newly requested verification code.
func VerificationMessage(ctx context.Context, name, to, otp string, validity time.Duration) (Message, error) {
	return compose(ctx, "email_verify", name, to, otp, validity, false)
}

// ResetMessage carries a password reset code.
func ResetMessage(ctx context.Context, name, to, otp string, validity time.Duration) (Message, error) {
	return compose(ctx, "email_reset", name, to, otp, validity, false)
}

func compose(ctx context.Context, prefix, name, to, otp string, validity time.Duration, footer bool) (Message, error) {
	data := map[string]any{
		"Name":     name,
		"Email":    to,
		"OTP":      otp,
		"Validity": i18n.Duration(ctx, validity),
	}

	content := templates.OTPEmailData{
		Heading:  i18n.T(ctx, prefix+"_heading"),
		Greeting: i18n.TData(ctx, "email_greeting", data),
		Intro:    i18n.TData(ctx, prefix+"_intro", data),
		OTP:      otp,
		Validity: i18n.TData(ctx, "email_validity", data),
		Ignore:   i18n.T(ctx, prefix+"_ignore"),
	}
	if footer {
		content.Footer = i18n.T(ctx, "email_footer")
	}

	html, err := render(ctx, templates.OTPEmail(content))
	if err != nil {
		return Message{}, fmt.Errorf("render %s: %w", prefix, err)
	}

	return Message{
		To:      to,
		Subject: i18n.T(ctx, prefix+"_subject"),
		Text:    i18n.TData(ctx, prefix+"_text", data),
		HTML:    html,
	}, nil
}

func render(ctx context.Context, c templ.Component) (string, error) {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := c.Render(ctx, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Notifier composes the account emails and hands them to a Sender.
type Notifier struct {
	sender Sender
}

// NewNotifier wraps sender.
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// SendWelcome delivers the registration email.
func (n *Notifier) SendWelcome(ctx context.Context, name, to, otp string, validity time.Duration) error {
	msg, err := WelcomeMessage(ctx, name, to, otp, validity)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

// SendVerification delivers a verification code.
func (n *Notifier) SendVerification(ctx context.Context, name, to, otp string, validity time.Duration) error {
	msg, err := VerificationMessage(ctx, name, to, otp, validity)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

// SendReset delivers a password reset code.
func (n *Notifier) SendReset(ctx context.Context, name, to, otp string, validity time.Duration) error {
	msg, err := ResetMessage(ctx, name, to, otp, validity)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}
