// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
)

// pgPool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it too.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool pgPool
}

// NewPostgresStore creates a store on top of a migrated pool.
func NewPostgresStore(pool pgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const pgSelectAccount = `SELECT id::text, name, email, password_hash, is_verified,
	verify_otp, verify_otp_expires_at, reset_otp, reset_otp_expires_at,
	version, created_at, updated_at FROM accounts`

// FindByID retrieves an account by its ID. Malformed IDs are reported as not found.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	acc, err := s.get(ctx, pgSelectAccount+` WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, oops.In("repository").With("operation", "find account by id").With("account_id", id).Wrap(err)
	}
	return acc, err
}

// FindByEmail retrieves an account by its email address.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	acc, err := s.get(ctx, pgSelectAccount+` WHERE email = $1`, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, oops.In("repository").With("operation", "find account by email").Wrap(err)
	}
	return acc, err
}

func (s *PostgresStore) get(ctx context.Context, query string, arg any) (*models.Account, error) {
	var (
		acc           models.Account
		verifyExpires int64
		resetExpires  int64
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&acc.ID, &acc.Name, &acc.Email, &acc.PasswordHash, &acc.IsVerified,
		&acc.VerifyOTP, &verifyExpires, &acc.ResetOTP, &resetExpires,
		&acc.Version, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	acc.VerifyOTPExpiresAt = models.MillisToTime(verifyExpires)
	acc.ResetOTPExpiresAt = models.MillisToTime(resetExpires)
	acc.CreatedAt = acc.CreatedAt.UTC()
	acc.UpdatedAt = acc.UpdatedAt.UTC()
	return &acc, nil
}

// Create inserts a new account; the database assigns version and timestamps.
func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	id := account.ID
	if id == "" {
		id = uuid.NewString()
	}

	var (
		version            int64
		createdAt, updated time.Time
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, is_verified,
			verify_otp, verify_otp_expires_at, reset_otp, reset_otp_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING version, created_at, updated_at`,
		id, account.Name, account.Email, account.PasswordHash, account.IsVerified,
		account.VerifyOTP, models.TimeToMillis(account.VerifyOTPExpiresAt),
		account.ResetOTP, models.TimeToMillis(account.ResetOTPExpiresAt),
	).Scan(&version, &createdAt, &updated)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateEmail
		}
		return oops.In("repository").With("operation", "create account").Wrap(err)
	}

	account.ID = id
	account.Version = version
	account.CreatedAt = createdAt.UTC()
	account.UpdatedAt = updated.UTC()
	return nil
}

// Save updates all mutable fields if the stored version still matches.
func (s *PostgresStore) Save(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET name = $1, password_hash = $2, is_verified = $3,
			verify_otp = $4, verify_otp_expires_at = $5,
			reset_otp = $6, reset_otp_expires_at = $7,
			version = version + 1, updated_at = $8
		WHERE id = $9 AND version = $10`,
		account.Name, account.PasswordHash, account.IsVerified,
		account.VerifyOTP, models.TimeToMillis(account.VerifyOTPExpiresAt),
		account.ResetOTP, models.TimeToMillis(account.ResetOTPExpiresAt),
		now, account.ID, account.Version,
	)
	if err != nil {
		return oops.In("repository").With("operation", "save account").With("account_id", account.ID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}

	account.Version++
	account.UpdatedAt = now
	return nil
}
