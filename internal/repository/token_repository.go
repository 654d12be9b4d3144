package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/model"
)

// tokenRepository implements TokenRepository using PostgreSQL.
type tokenRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTokenRepository creates a new PostgreSQL-backed token repository.
func NewTokenRepository(pool *pgxpool.Pool, logger zerolog.Logger) TokenRepository {
	return &tokenRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "token").Logger(),
	}
}

func (r *tokenRepository) Create(ctx context.Context, t *model.UserToken) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_tokens (user_id, kind, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, t.UserID, t.Kind, t.TokenHash, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", t.UserID.String()).Msg("failed to create token")
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// Consume marks the token used in the same statement that checks it, so a
// token can only be redeemed once even under concurrent requests.
func (r *tokenRepository) Consume(ctx context.Context, tx pgx.Tx, kind model.TokenKind, hash string) (*model.UserToken, error) {
	var t model.UserToken
	err := tx.QueryRow(ctx, `
		UPDATE user_tokens SET used_at = NOW()
		WHERE token_hash = $1 AND kind = $2 AND used_at IS NULL AND expires_at > NOW()
		RETURNING id, user_id, kind, token_hash, expires_at, used_at, created_at
	`, hash, kind).Scan(&t.ID, &t.UserID, &t.Kind, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to consume token")
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}
	return &t, nil
}

func (r *tokenRepository) InvalidateUser(ctx context.Context, userID uuid.UUID, kind model.TokenKind) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_tokens SET used_at = NOW()
		WHERE user_id = $1 AND kind = $2 AND used_at IS NULL
	`, userID, kind)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to invalidate tokens")
		return fmt.Errorf("failed to invalidate tokens: %w", err)
	}
	return nil
}
