// Package blob stores generated documents such as award certificates.
package blob

import (
	"context"
	"errors"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("invalid blob key")

// Store persists a document under key and returns a link to it.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// CleanKey rejects absolute keys and keys that escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
