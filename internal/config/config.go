// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Environment string
	Server      ServerConfig
	Log         LogConfig
	Database    DatabaseConfig
	TLS         TLSConfig
	Token       TokenConfig
	OTP         OTPConfig
	Auth        AuthConfig
	SMTP        SMTPConfig
	CORS        CORSConfig
}

type TLSConfig struct {
	Mode     string // auto, acme, manual, off
	CertDir  string // ACME certificate cache directory
	Email    string // ACME email for Let's Encrypt
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	Driver string // sqlite, postgres, memory
	DSN    string
}

type TokenConfig struct { //nolint:govet // fieldalignment not critical
	Format     string // jwt, securecookie
	Secret     string // HS256 secret (jwt format)
	HashKey    string // 32-byte hex string for HMAC signing (securecookie format)
	BlockKey   string // 32-byte hex string for AES encryption (optional)
	TTL        time.Duration
	CookieName string
}

type OTPConfig struct {
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

type AuthConfig struct {
	BcryptCost      int
	ConcealAccounts bool // hide whether an email is registered on the reset flow
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether outgoing mail goes through an SMTP server.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type CORSConfig struct {
	Origins []string
}

// IsProduction reports whether secure cookies and mandatory secrets apply.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Environment: strings.ToLower(cmd.String("environment")),
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(cmd.String("database-driver")),
			DSN:    cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		Token: TokenConfig{
			Format:     strings.ToLower(cmd.String("token-format")),
			Secret:     cmd.String("token-secret"),
			HashKey:    cmd.String("token-hash-key"),
			BlockKey:   cmd.String("token-block-key"),
			TTL:        cmd.Duration("token-ttl"),
			CookieName: cmd.String("cookie-name"),
		},
		OTP: OTPConfig{
			VerifyTTL: cmd.Duration("verify-otp-ttl"),
			ResetTTL:  cmd.Duration("reset-otp-ttl"),
		},
		Auth: AuthConfig{
			BcryptCost:      int(cmd.Int("bcrypt-cost")),
			ConcealAccounts: cmd.Bool("conceal-accounts"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		CORS: CORSConfig{
			Origins: cmd.StringSlice("cors-origins"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Environment))
	}

	switch c.Database.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("postgres driver requires a database DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	switch c.Token.Format {
	case "jwt":
		if c.IsProduction() && c.Token.Secret == "" {
			errs = append(errs, errors.New("token secret is required in production"))
		}
	case "securecookie":
		if c.IsProduction() && c.Token.HashKey == "" {
			errs = append(errs, errors.New("token hash key is required in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown token format %q", c.Token.Format))
	}

	if c.OTP.VerifyTTL <= 0 || c.OTP.ResetTTL <= 0 {
		errs = append(errs, errors.New("OTP lifetimes must be positive"))
	}

	return errors.Join(errs...)
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	mode := strings.ToLower(cfg.TLS.Mode)

	scheme := "http"
	if shouldUseTLS(mode, host) {
		scheme = "https"
	}

	// ACME always serves on 443
	if mode == "acme" {
		return fmt.Sprintf("https://%s", host)
	}

	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode, host string) bool {
	switch mode {
	case "off":
		return false
	case "acme", "manual":
		return true
	default: // "auto" or empty
		return !IsLocalhost(host)
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "environment",
			Value:   EnvDevelopment,
			Usage:   "Deployment environment (development, production)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ENVIRONMENT"), cli.EnvVar("NODE_ENV"), toml.TOML("environment", configFile)),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   4000,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Public base URL of the service",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-driver",
			Value:   "sqlite",
			Usage:   "Account store (sqlite, postgres, memory)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DRIVER"), toml.TOML("database.driver", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/app.db",
			Usage:   "Database DSN (file path for sqlite, connection URL for postgres)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, acme, manual, off)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_MODE"), toml.TOML("tls.mode", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for the ACME certificate cache",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_CERT_DIR"), toml.TOML("tls.cert_dir", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_EMAIL"), toml.TOML("tls.email", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_CERT_FILE"), toml.TOML("tls.cert_file", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_KEY_FILE"), toml.TOML("tls.key_file", configFile)),
		},
		// Token flags
		&cli.StringFlag{
			Name:    "token-format",
			Value:   "jwt",
			Usage:   "Session token format (jwt, securecookie)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_FORMAT"), toml.TOML("token.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-secret",
			Usage:   "JWT signing secret (auto-generated if empty in development)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_SECRET"), cli.EnvVar("JWT_SECRET"), toml.TOML("token.secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-hash-key",
			Usage:   "securecookie hash key (32-byte hex, auto-generated if empty in development)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_HASH_KEY"), toml.TOML("token.hash_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-block-key",
			Usage:   "securecookie block key for encryption (32-byte hex, optional)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_BLOCK_KEY"), toml.TOML("token.block_key", configFile)),
		},
		&cli.DurationFlag{
			Name:    "token-ttl",
			Value:   7 * 24 * time.Hour,
			Usage:   "Session token lifetime",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_TTL"), toml.TOML("token.ttl", configFile)),
		},
		&cli.StringFlag{
			Name:    "cookie-name",
			Value:   "token",
			Usage:   "Name of the session cookie",
			Sources: cli.NewValueSourceChain(cli.EnvVar("COOKIE_NAME"), toml.TOML("token.cookie_name", configFile)),
		},
		// OTP and account flags
		&cli.DurationFlag{
			Name:    "verify-otp-ttl",
			Value:   24 * time.Hour,
			Usage:   "Lifetime of email verification codes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("VERIFY_OTP_TTL"), toml.TOML("otp.verify_ttl", configFile)),
		},
		&cli.DurationFlag{
			Name:    "reset-otp-ttl",
			Value:   15 * time.Minute,
			Usage:   "Lifetime of password reset codes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RESET_OTP_TTL"), toml.TOML("otp.reset_ttl", configFile)),
		},
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Value:   10,
			Usage:   "bcrypt work factor for password hashes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BCRYPT_COST"), toml.TOML("auth.bcrypt_cost", configFile)),
		},
		&cli.BoolFlag{
			Name:    "conceal-accounts",
			Usage:   "Do not reveal whether an email is registered when requesting a reset code",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CONCEAL_ACCOUNTS"), toml.TOML("auth.conceal_accounts", configFile)),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (emails are logged when empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), cli.EnvVar("SMTP_USER"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), cli.EnvVar("SMTP_PASS"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address of outgoing emails",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), cli.EnvVar("SENDER_EMAIL"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Usage:   "Sender display name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP (implicit TLS on port 465, STARTTLS otherwise)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "cors-origins",
			Value:   []string{"http://localhost:3000"},
			Usage:   "Origins allowed to call the API with credentials",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CORS_ORIGINS"), toml.TOML("cors.origins", configFile)),
		},
	}
}
