package storage

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// fallbackStore writes to a primary store and falls back to a secondary one on failure.
type fallbackStore struct {
	primary   Store
	secondary Store
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries primary first, then secondary.
// A nil primary uses secondary only.
func NewFallbackStore(primary, secondary Store, logger zerolog.Logger) Store {
	if primary == nil {
		return secondary
	}
	return &fallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

func (s *fallbackStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	url, err := s.primary.Put(ctx, key, contentType, data)
	if err == nil {
		return url, nil
	}
	if errors.Is(err, ErrInvalidKey) {
		return "", err
	}

	s.logger.Warn().
		Err(err).
		Str("key", key).
		Msg("primary store failed, falling back to secondary")

	return s.secondary.Put(ctx, key, contentType, data)
}

// Delete removes key from both stores since either may hold it.
func (s *fallbackStore) Delete(ctx context.Context, key string) error {
	primaryErr := s.primary.Delete(ctx, key)
	if err := s.secondary.Delete(ctx, key); err != nil {
		return err
	}
	if primaryErr != nil {
		s.logger.Warn().Err(primaryErr).Str("key", key).Msg("failed to delete from primary store")
	}
	return nil
}
