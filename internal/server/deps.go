// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/database"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/services/token"
)

// openStore connects the configured account store. The returned func
// releases its connections.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, func(), error) {
	switch cfg.Driver {
	case "memory":
		slog.Warn("using in-memory account store, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil

	case "postgres":
		pool, err := database.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(pool), pool.Close, nil

	case "sqlite", "":
		db, err := database.Open(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				slog.Error("failed to close database", "error", err)
			}
		}
		return repository.NewSQLiteStore(db), closeDB, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// newIssuer builds the session token issuer. Missing keys are generated,
// which config.Validate only allows outside production.
func newIssuer(cfg config.TokenConfig) (token.Issuer, error) {
	opts := []token.Option{token.WithTTL(cfg.TTL)}

	switch cfg.Format {
	case "securecookie":
		hashKey, err := keyOrGenerate(cfg.HashKey, "token hash key")
		if err != nil {
			return nil, err
		}
		var blockKey []byte
		if cfg.BlockKey != "" {
			if blockKey, err = hex.DecodeString(cfg.BlockKey); err != nil {
				return nil, fmt.Errorf("decode token block key: %w", err)
			}
		}
		return token.NewCookieIssuer(hashKey, blockKey, opts...)

	case "jwt", "":
		secret := []byte(cfg.Secret)
		if len(secret) == 0 {
			generated, err := token.GenerateSecret()
			if err != nil {
				return nil, err
			}
			slog.Warn("token secret not configured, generated one; sessions end on restart")
			secret = generated
		}
		return token.NewJWTIssuer(secret, opts...)

	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.Format)
	}
}

func keyOrGenerate(encoded, name string) ([]byte, error) {
	if encoded != "" {
		key, err := hex.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return key, nil
	}

	key, err := token.GenerateSecret()
	if err != nil {
		return nil, err
	}
	slog.Warn(name + " not configured, generated one; sessions end on restart")
	return key, nil
}
