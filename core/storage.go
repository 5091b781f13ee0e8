package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by a KVStore when a key has no value.
var ErrNotFound = errors.New("not found")

type (
	// KVStore is the small key-value persistence layer behind authentication
	// state. Canvas documents are never persisted.
	KVStore interface {
		// Get returns the value stored under key, or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)

		// Put creates or replaces the value stored under key.
		Put(ctx context.Context, key string, value []byte) error

		// Delete removes key. Deleting a missing key is not an error.
		Delete(ctx context.Context, key string) error
	}
)

// ValidateKey rejects keys that are empty or contain empty, "." or ".."
// segments, so that backends mapping keys to paths stay inside their root.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("invalid key: must not be empty")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("invalid key %q", key)
		}
	}
	return nil
}
