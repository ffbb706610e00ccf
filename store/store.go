// Package store defines the key-value persistence contract used by settle.
//
// The registry persists its whole participant list as a single value under
// a fixed key, so backends only need point reads and full overwrites.
// Implementations live in the sub-packages: memory, file, redis, s3,
// sqlite, postgres, mongo and nop.
package store

import "context"

// Store is the unified storage interface for settle snapshots.
type Store interface {
	// Get returns the value stored under key, or an error wrapping
	// settle.ErrNotFound when nothing is stored.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
