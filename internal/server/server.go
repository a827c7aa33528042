// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/handlers"
	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
	"codeberg.org/oliverandrich/go-account-service/internal/middleware"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
	"codeberg.org/oliverandrich/go-account-service/internal/services/email"
	"codeberg.org/oliverandrich/go-account-service/internal/services/password"
	"codeberg.org/oliverandrich/go-account-service/internal/services/token"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators New wires into the HTTP stack.
type Deps struct {
	Store  repository.Store
	Issuer token.Issuer
	Sender email.Sender
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"environment", cfg.Environment,
		"database", cfg.Database.Driver,
	)

	if err := i18n.Init(); err != nil {
		return fmt.Errorf("failed to init i18n: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	defer closeStore()

	issuer, err := newIssuer(cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to set up token issuer: %w", err)
	}

	sender, err := email.NewSender(&cfg.SMTP, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to set up email: %w", err)
	}
	if !cfg.SMTP.Enabled() {
		slog.Warn("SMTP not configured, emails are logged instead of sent")
	}

	e := New(cfg, Deps{Store: store, Issuer: issuer, Sender: sender})

	return startWithGracefulShutdown(ctx, e, cfg)
}

// New assembles the echo instance: account service, middleware and routes.
func New(cfg *config.Config, deps Deps) *echo.Echo {
	accounts := account.New(
		deps.Store,
		password.NewHasher(cfg.Auth.BcryptCost),
		deps.Issuer,
		nil,
		email.NewNotifier(deps.Sender),
		account.Options{
			VerifyOTPTTL:    cfg.OTP.VerifyTTL,
			ResetOTPTTL:     cfg.OTP.ResetTTL,
			ConcealAccounts: cfg.Auth.ConcealAccounts,
		},
	)

	h := handlers.New(accounts, handlers.CookieConfig{
		Name:   cfg.Token.CookieName,
		Secure: cfg.IsProduction(),
		MaxAge: cfg.Token.TTL,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	metrics := NewMetrics()
	setupMiddleware(e, cfg, metrics)
	setupRoutes(e, h, middleware.RequireSession(deps.Issuer, cfg.Token.CookieName), metrics)

	return e
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers, requireSession echo.MiddlewareFunc, metrics *Metrics) {
	e.GET("/", h.Index)
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.POST("/send-verify-otp", h.SendVerifyOTP, requireSession)
	authGroup.POST("/verify-account", h.VerifyAccount, requireSession)
	authGroup.POST("/is-auth", h.IsAuth, requireSession)
	authGroup.POST("/send-reset-otp", h.SendResetOTP)
	authGroup.POST("/reset-password", h.ResetPassword)

	userGroup := e.Group("/api/user", requireSession)
	userGroup.GET("/data", h.UserData)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	errChan := make(chan error, 2)

	// HTTP server for ACME challenges
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP→HTTPS redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeManual:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.TLSServer.Serve(e.TLSListener)
}
