// Package backend defines the contract every remote storage target
// satisfies: whole-snapshot upload/download plus a remote modification
// timestamp. The orchestrator in internal/sync is the only caller that
// decides direction; backends just move bytes.
package backend

import (
	"context"
	"time"

	"github.com/dmitrijs2005/daybook/internal/snapshot"
)

// Backend is an external storage target for snapshots.
//
// Uploads overwrite: repeating an upload with identical content leaves the
// remote unchanged. Downloads are whole-document; there is no partial or
// resumed transfer.
type Backend interface {
	// Name identifies the backend in logs and metadata keys.
	Name() string

	// IsAuthenticated reports whether the backend may be called at all.
	// It is a pure local check (cached token and expiry); it never
	// touches the network.
	IsAuthenticated() bool

	// Upload replaces the remote snapshot with snap.
	Upload(ctx context.Context, snap *snapshot.Snapshot) error

	// Download fetches the remote snapshot. A remote that has never seen
	// an upload returns (nil, nil): first-time sync is success with an
	// empty result, not an error.
	Download(ctx context.Context) (*snapshot.Snapshot, error)

	// RemoteModifiedTime returns when the remote snapshot last changed,
	// or nil when no remote state exists yet.
	RemoteModifiedTime(ctx context.Context) (*time.Time, error)
}

// Watcher is implemented by backends that can push change notifications.
// Watch blocks, delivering the remote modification time of each change to
// onChange until ctx is cancelled.
type Watcher interface {
	Watch(ctx context.Context, onChange func(remoteTime time.Time)) error
}
