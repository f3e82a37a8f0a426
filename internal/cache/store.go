// Package cache keeps cached aggregate reads consistent with ledger writes.
//
// Entries are keyed by (company, kind, params, version). Writers bump the
// version of every kind they affect, which orphans all older entries for that
// kind without having to enumerate them.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is the key-value capability the consistency layer depends on
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr atomically increments the integer at key, creating it at 0 first
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}
