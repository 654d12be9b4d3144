package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// localStore implements Store on the local filesystem.
type localStore struct {
	root      string
	publicURL string
	logger    zerolog.Logger
}

// NewLocalStore creates a store rooted at dir whose objects are served under publicURL.
func NewLocalStore(dir, publicURL string, logger zerolog.Logger) (Store, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &localStore{
		root:      root,
		publicURL: publicURL,
		logger:    logger.With().Str("component", "local-store").Logger(),
	}, nil
}

func (s *localStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	// Write to a temp file first so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to set permissions on %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move %s into place: %w", key, err)
	}

	s.logger.Info().
		Str("key", key).
		Int("bytes", len(data)).
		Msg("object stored on local file system")

	return joinURL(s.publicURL, key), nil
}

func (s *localStore) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
