package storage

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("store is closed")

// Store is a string-keyed persistent value store.
type Store interface {
	// Get returns the value at key; found is false when the key was never set.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
