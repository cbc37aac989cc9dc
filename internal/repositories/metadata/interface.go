// Package metadata is the durable key-value area: per-backend sync state,
// cached auth tokens and remote item handles live here, outside the record
// table, and survive restarts.
package metadata

import (
	"context"
	"time"
)

type Repository interface {
	// Get returns the value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix (token purge on
	// sign-out).
	DeletePrefix(ctx context.Context, prefix string) error

	// GetTime/SetTime store timestamps as RFC 3339 text. Get returns nil
	// when the key is absent.
	GetTime(ctx context.Context, key string) (*time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error

	// Clear removes every key (full local reset).
	Clear(ctx context.Context) error
}
