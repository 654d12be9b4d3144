package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/fieldcrypt"
	"storefront/internal/model"
)

// PostgreSQL error codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func beginTx(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// uniqueViolation reports whether err is a unique constraint violation on constraint.
// An empty constraint matches any unique violation.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func foreignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// mapWriteError converts constraint violations into domain errors.
func mapWriteError(err error, slugConstraint string) error {
	switch {
	case slugConstraint != "" && uniqueViolation(err, slugConstraint):
		return model.ErrSlugTaken
	case foreignKeyViolation(err):
		return model.NewValidationError("reference", "refers to a record that does not exist")
	}
	return err
}

func notFoundUnlessAffected(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// sealJSON marshals v and encrypts the result.
func sealJSON(c *fieldcrypt.Cipher, v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode value: %w", err)
	}
	return c.Encrypt(string(raw))
}

// openJSON decrypts value and unmarshals it into v.
func openJSON(c *fieldcrypt.Cipher, value string, v any) error {
	plain, err := c.Decrypt(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plain), v); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	return nil
}

// pageBounds clamps limit and offset to sane values.
func pageBounds(limit, offset, defaultLimit, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
