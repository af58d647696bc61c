// Package storage holds the durable file stores behind uploaded client
// files. Keys are slash-separated, relative, and never contain "..".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrExists     = errors.New("storage: object already exists")
	ErrNotFound   = errors.New("storage: object not found")
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Backend is a flat key/value store of file content. Put never overwrites:
// it returns ErrExists when key is taken.
type Backend interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (*Object, error)
	Remove(ctx context.Context, key string) error
}

type Object struct {
	io.ReadCloser
	Size        int64
	ContentType string
}

// CleanKey validates and normalises a storage key.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// Key joins a client ID and a file name into a storage key. Both parts must
// be single path segments so every client's files stay under its own prefix.
func Key(clientID, name string) (string, error) {
	if !ValidSegment(clientID) || !ValidSegment(name) {
		return "", fmt.Errorf("%w: %q/%q", ErrInvalidKey, clientID, name)
	}
	return clientID + "/" + name, nil
}

// ValidSegment reports whether s can be used as one key segment unchanged.
func ValidSegment(s string) bool {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\\x00") {
		return false
	}
	return path.Clean(s) == s
}
