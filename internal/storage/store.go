// Package storage persists uploaded media files.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// Store writes and removes objects addressed by a slash-separated key.
type Store interface {
	// Put stores data under key and returns the public URL of the object.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
