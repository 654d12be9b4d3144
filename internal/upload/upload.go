// Package upload validates media uploads and hands them to a storage backend.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/model"
	"storefront/internal/storage"
)

// allowedTypes maps sniffed content types to the extensions accepted for them.
var allowedTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

// Service stores validated image uploads.
type Service interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error)
	Delete(ctx context.Context, key string) error
}

// RejectFunc is notified whenever an upload is refused.
type RejectFunc func(ctx context.Context, filename, reason string)

type service struct {
	store    storage.Store
	maxBytes int64
	onReject RejectFunc
	now      func() time.Time
	logger   zerolog.Logger
}

// NewService creates an upload service. onReject may be nil.
func NewService(store storage.Store, maxBytes int64, onReject RejectFunc, logger zerolog.Logger) Service {
	return &service{
		store:    store,
		maxBytes: maxBytes,
		onReject: onReject,
		now:      time.Now,
		logger:   logger.With().Str("service", "upload").Logger(),
	}
}

func (s *service) Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		s.reject(ctx, filename, "file exceeds size limit")
		return nil, model.ErrFileTooLarge
	}
	if len(data) == 0 {
		s.reject(ctx, filename, "empty file")
		return nil, model.ErrUnsupportedMedia
	}

	contentType := sniff(data)
	exts, ok := allowedTypes[contentType]
	if !ok {
		s.reject(ctx, filename, "content type "+contentType+" not allowed")
		return nil, model.ErrUnsupportedMedia
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !contains(exts, ext) {
		s.reject(ctx, filename, fmt.Sprintf("extension %q does not match %s", ext, contentType))
		return nil, model.ErrUnsupportedMedia
	}

	key := s.objectKey(exts[0])
	url, err := s.store.Put(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Info().
		Str("key", key).
		Str("content_type", contentType).
		Int("bytes", len(data)).
		Msg("upload stored")

	return &model.UploadResult{
		Key:         key,
		URL:         url,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Delete removes a stored upload. Only keys under the upload prefix are
// accepted, so other objects in a shared bucket stay out of reach.
func (s *service) Delete(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, keyPrefix) {
		return invalidKey()
	}
	if err := s.store.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return invalidKey()
		}
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	s.logger.Info().Str("key", key).Msg("upload deleted")
	return nil
}

func invalidKey() error {
	return &model.ValidationError{Fields: map[string]string{"key": "invalid"}}
}

// keyPrefix is the directory every upload key lives under.
const keyPrefix = "products/"

// objectKey returns products/YYYY/MM/<uuid><ext>.
func (s *service) objectKey(ext string) string {
	now := s.now().UTC()
	return fmt.Sprintf("%s%04d/%02d/%s%s", keyPrefix, now.Year(), int(now.Month()), uuid.NewString(), ext)
}

func (s *service) reject(ctx context.Context, filename, reason string) {
	s.logger.Warn().Str("filename", filename).Str("reason", reason).Msg("upload rejected")
	if s.onReject != nil {
		s.onReject(ctx, filename, reason)
	}
}

// sniff detects the content type from magic bytes. WebP is checked explicitly
// since older DetectContentType tables do not recognise it.
func sniff(data []byte) string {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
