// Package folder syncs snapshots into a user-chosen local directory.
//
// The directory is a capability that cannot be persisted: only its display
// name survives a restart, the path itself must be granted again each
// session. IsConfigured (display name remembered) and IsGranted (path
// supplied this session) are deliberately separate so callers can tell
// "never set up" from "needs re-grant".
package folder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/filex"
	"github.com/dmitrijs2005/daybook/internal/repositories/metadata"
	"github.com/dmitrijs2005/daybook/internal/snapshot"
)

const (
	displayNameKey = "sync.folder.displayName"
	snapshotFile   = "daybook-snapshot.json"
)

type Backend struct {
	meta metadata.Repository

	mu          sync.RWMutex
	path        string // granted this session; empty means not granted
	displayName string
}

// New restores the remembered display name (if any). The path itself is
// never restored; Grant must be called again.
func New(ctx context.Context, meta metadata.Repository) (*Backend, error) {
	b := &Backend{meta: meta}

	name, err := meta.Get(ctx, displayNameKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load folder sync state: %w", err)
	}
	b.displayName = string(name)
	return b, nil
}

func (b *Backend) Name() string { return "folder" }

// Grant supplies the directory for this session and remembers its base name
// for display.
func (b *Backend) Grant(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	name := filepath.Base(path)
	if err := b.meta.Set(ctx, displayNameKey, []byte(name)); err != nil {
		return fmt.Errorf("failed to remember folder name: %w", err)
	}

	b.mu.Lock()
	b.path = path
	b.displayName = name
	b.mu.Unlock()
	return nil
}

// IsConfigured reports whether a folder was ever chosen (display name
// remembered), regardless of whether it is usable right now.
func (b *Backend) IsConfigured() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.displayName != ""
}

// IsGranted reports whether the directory is usable this session.
func (b *Backend) IsGranted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path != ""
}

// DisplayName returns the remembered folder name for UI purposes.
func (b *Backend) DisplayName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.displayName
}

// IsAuthenticated is the generic gate the orchestrator checks; for a folder
// it means "granted".
func (b *Backend) IsAuthenticated() bool { return b.IsGranted() }

// snapshotPath returns the snapshot file path, or the error describing why
// the folder is unusable: ErrNotConfigured when never set up,
// ErrUnauthenticated when the grant is missing this session.
func (b *Backend) snapshotPath() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.path == "" {
		if b.displayName == "" {
			return "", backend.ErrNotConfigured
		}
		return "", backend.ErrUnauthenticated
	}
	return filepath.Join(b.path, snapshotFile), nil
}

func (b *Backend) Upload(ctx context.Context, snap *snapshot.Snapshot) error {
	path, err := b.snapshotPath()
	if err != nil {
		return err
	}

	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	return nil
}

func (b *Backend) Download(ctx context.Context) (*snapshot.Snapshot, error) {
	path, err := b.snapshotPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil // nothing uploaded yet: empty success
	}
	if err != nil {
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	return snapshot.Decode(data)
}

func (b *Backend) RemoteModifiedTime(ctx context.Context) (*time.Time, error) {
	path, err := b.snapshotPath()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	t := info.ModTime().UTC()
	return &t, nil
}
