// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email composes and delivers the passcode emails of the account flows.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
	"github.com/wneessen/go-mail"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail through an SMTP server, one connection per message.
type SMTPSender struct {
	cfg *config.SMTPConfig
}

// NewSMTPSender creates a sender for the configured server.
func NewSMTPSender(cfg *config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send dials the server and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg, err := s.buildMsg(m)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.In("email").With("host", s.cfg.Host).With("subject", m.Subject).Wrapf(err, "sending email")
	}
	return nil
}

func (s *SMTPSender) buildMsg(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}

	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	}
	return msg, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS elsewhere
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// LogSender writes recipient and subject to the log instead of sending.
// Bodies carry passcodes and are never logged.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a LogSender; a nil logger means slog.Default.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the message envelope.
func (s *LogSender) Send(ctx context.Context, m Message) error {
	s.logger.InfoContext(ctx, "email_not_sent", "to", m.To, "subject", m.Subject, "reason", "smtp disabled")
	return nil
}

// NewSender picks SMTP when a host is configured and logging otherwise.
func NewSender(cfg *config.SMTPConfig, logger *slog.Logger) (Sender, error) {
	if !cfg.Enabled() {
		return NewLogSender(logger), nil
	}
	return NewSMTPSender(cfg)
}
