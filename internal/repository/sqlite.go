// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/vinovest/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
)

// SQLiteStore implements Store on top of sqlx and the pure-Go SQLite driver.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a store for an already migrated database.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// DB returns the underlying connection for direct access.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

type accountRow struct {
	ID                 string `db:"id"`
	Name               string `db:"name"`
	Email              string `db:"email"`
	PasswordHash       string `db:"password_hash"`
	IsVerified         bool   `db:"is_verified"`
	VerifyOTP          string `db:"verify_otp"`
	VerifyOTPExpiresAt int64  `db:"verify_otp_expires_at"`
	ResetOTP           string `db:"reset_otp"`
	ResetOTPExpiresAt  int64  `db:"reset_otp_expires_at"`
	Version            int64  `db:"version"`
	CreatedAt          int64  `db:"created_at"`
	UpdatedAt          int64  `db:"updated_at"`
}

func (r *accountRow) toModel() *models.Account {
	return &models.Account{
		ID:                 r.ID,
		Name:               r.Name,
		Email:              r.Email,
		PasswordHash:       r.PasswordHash,
		IsVerified:         r.IsVerified,
		VerifyOTP:          r.VerifyOTP,
		VerifyOTPExpiresAt: models.MillisToTime(r.VerifyOTPExpiresAt),
		ResetOTP:           r.ResetOTP,
		ResetOTPExpiresAt:  models.MillisToTime(r.ResetOTPExpiresAt),
		Version:            r.Version,
		CreatedAt:          models.MillisToTime(r.CreatedAt),
		UpdatedAt:          models.MillisToTime(r.UpdatedAt),
	}
}

const selectAccount = `SELECT id, name, email, password_hash, is_verified,
	verify_otp, verify_otp_expires_at, reset_otp, reset_otp_expires_at,
	version, created_at, updated_at FROM accounts`

// FindByID retrieves an account by its ID.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return s.get(ctx, selectAccount+` WHERE id = ?`, id)
}

// FindByEmail retrieves an account by its email address.
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.get(ctx, selectAccount+` WHERE email = ?`, email)
}

func (s *SQLiteStore) get(ctx context.Context, query string, arg any) (*models.Account, error) {
	var row accountRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.In("repository").With("operation", "get account").Wrap(err)
	}
	return row.toModel(), nil
}

// Create inserts a new account.
func (s *SQLiteStore) Create(ctx context.Context, account *models.Account) error {
	id := account.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, is_verified,
			verify_otp, verify_otp_expires_at, reset_otp, reset_otp_expires_at,
			version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, account.Name, account.Email, account.PasswordHash, account.IsVerified,
		account.VerifyOTP, models.TimeToMillis(account.VerifyOTPExpiresAt),
		account.ResetOTP, models.TimeToMillis(account.ResetOTPExpiresAt),
		now.UnixMilli(), now.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return oops.In("repository").With("operation", "create account").Wrap(err)
	}

	account.ID = id
	account.Version = 1
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// Save updates all mutable fields if the stored version still matches.
func (s *SQLiteStore) Save(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC().Truncate(time.Millisecond)

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, password_hash = ?, is_verified = ?,
			verify_otp = ?, verify_otp_expires_at = ?,
			reset_otp = ?, reset_otp_expires_at = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		account.Name, account.PasswordHash, account.IsVerified,
		account.VerifyOTP, models.TimeToMillis(account.VerifyOTPExpiresAt),
		account.ResetOTP, models.TimeToMillis(account.ResetOTPExpiresAt),
		now.UnixMilli(), account.ID, account.Version)
	if err != nil {
		return oops.In("repository").With("operation", "save account").With("account_id", account.ID).Wrap(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return oops.In("repository").With("operation", "save account").Wrap(err)
	}
	if n == 0 {
		return ErrStale
	}

	account.Version++
	account.UpdatedAt = now
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
