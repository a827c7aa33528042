// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/middleware"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config, metrics *Metrics) {
	bodyLimit := cfg.Server.MaxBodySize
	if bodyLimit <= 0 {
		bodyLimit = 1
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(requestLogger())
	e.Use(echomw.Secure())
	// promhttp negotiates its own compression.
	e.Use(echomw.GzipWithConfig(echomw.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/metrics"
		},
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", bodyLimit)))
	e.Use(corsMiddleware(cfg))
	e.Use(middleware.Locale())
}

// corsMiddleware lets the browser client send the session cookie cross-origin.
func corsMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORS.Origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"Accept-Language",
		},
		AllowCredentials: true,
		MaxAge:           600,
	})
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics"
		},
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}

			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				} else {
					level = slog.LevelWarn
				}
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)

			return nil
		},
	})
}
