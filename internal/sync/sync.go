// Package sync decides the direction of whole-snapshot synchronization.
//
// The merge is deliberately coarse: one timestamp per side, the newer side
// wins wholesale. There is no per-record merge and no lock between
// triggers (timer, debounce, explicit command, push notification); two
// overlapping invocations race last-writer-wins at the remote. That is the
// product's conflict policy, not an oversight.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/repositories/metadata"
	"github.com/dmitrijs2005/daybook/internal/repositories/records"
	"github.com/dmitrijs2005/daybook/internal/snapshot"
)

// Action is the orchestrator's decision for one invocation, exposed so
// callers and tests can observe it.
type Action int

const (
	ActionNone Action = iota
	ActionUpload
	ActionDownload
)

func (a Action) String() string {
	switch a {
	case ActionUpload:
		return "upload"
	case ActionDownload:
		return "download"
	default:
		return "none"
	}
}

// Orchestrator compares the local data clock against a backend's remote
// clock and moves snapshots accordingly.
type Orchestrator struct {
	records records.Repository
	meta    metadata.Repository
	log     logging.Logger

	now func() time.Time
}

func New(recordsRepo records.Repository, meta metadata.Repository, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		records: recordsRepo,
		meta:    meta,
		log:     log,
		now:     time.Now,
	}
}

func lastSyncKey(b backend.Backend) string {
	return "sync." + b.Name() + ".last"
}

// LastSync returns the persisted last-successful-sync time for the backend,
// or nil when it never synced. This is the wall clock of the sync itself,
// distinct from the data clock MaxUpdatedAt tracks.
func (o *Orchestrator) LastSync(ctx context.Context, b backend.Backend) (*time.Time, error) {
	return o.meta.GetTime(ctx, lastSyncKey(b))
}

// decide implements the five-row decision table. preferDownloadOnTie
// distinguishes pull (trust the cloud) from sync (protect local edits).
func decide(local, remote *time.Time, preferDownloadOnTie bool) Action {
	switch {
	case local == nil && remote == nil:
		return ActionNone
	case remote == nil:
		return ActionUpload
	case local == nil:
		return ActionDownload
	}

	if local.Equal(*remote) {
		if preferDownloadOnTie {
			return ActionDownload
		}
		return ActionUpload
	}
	if remote.After(*local) {
		return ActionDownload
	}
	return ActionUpload
}

// SyncMostRecent compares clocks and transfers in whichever direction the
// decision table picks, favoring upload on an exact tie.
func (o *Orchestrator) SyncMostRecent(ctx context.Context, b backend.Backend) (Action, error) {
	return o.reconcile(ctx, b, false)
}

// PullMostRecent is SyncMostRecent with the tie-break inverted: on an exact
// tie the cloud copy wins.
func (o *Orchestrator) PullMostRecent(ctx context.Context, b backend.Backend) (Action, error) {
	return o.reconcile(ctx, b, true)
}

func (o *Orchestrator) reconcile(ctx context.Context, b backend.Backend, preferDownloadOnTie bool) (Action, error) {
	local, err := o.records.MaxUpdatedAt(ctx)
	if err != nil {
		return ActionNone, fmt.Errorf("failed to read local modification time: %w", err)
	}
	remote, err := b.RemoteModifiedTime(ctx)
	if err != nil {
		return ActionNone, err
	}

	action := decide(local, remote, preferDownloadOnTie)
	o.log.Debug(ctx, "sync decision",
		"backend", b.Name(), "action", action.String(),
		"local", local, "remote", remote)

	switch action {
	case ActionUpload:
		return action, o.Upload(ctx, b)
	case ActionDownload:
		return action, o.download(ctx, b)
	default:
		return action, nil
	}
}

// Upload exports the full local state and overwrites the remote snapshot.
// The interval scheduler calls this directly, bypassing the decision table.
func (o *Orchestrator) Upload(ctx context.Context, b backend.Backend) error {
	snap, err := snapshot.Export(ctx, o.records)
	if err != nil {
		return fmt.Errorf("failed to export snapshot: %w", err)
	}
	if err := b.Upload(ctx, snap); err != nil {
		o.log.Error(ctx, "upload failed", "backend", b.Name(), "error", err)
		return err
	}

	o.log.Info(ctx, "upload complete", "backend", b.Name(), "records", len(snap.Records))
	return o.markSynced(ctx, b)
}

func (o *Orchestrator) download(ctx context.Context, b backend.Backend) error {
	snap, err := b.Download(ctx)
	if err != nil {
		o.log.Error(ctx, "download failed", "backend", b.Name(), "error", err)
		return err
	}

	if snap != nil {
		result, applyErr := snapshot.Apply(ctx, o.records, snap)
		if applyErr != nil {
			// already-applied upserts stay in place; there is no rollback
			o.log.Warn(ctx, "some records failed to apply",
				"backend", b.Name(), "applied", result.Applied, "failed", result.Failed)
			return fmt.Errorf("failed to apply snapshot: %w", applyErr)
		}
		o.log.Info(ctx, "download complete", "backend", b.Name(), "records", result.Applied)
	} else {
		// nothing was ever uploaded; first-time sync succeeds empty
		o.log.Info(ctx, "download complete", "backend", b.Name(), "records", 0)
	}
	return o.markSynced(ctx, b)
}

func (o *Orchestrator) markSynced(ctx context.Context, b backend.Backend) error {
	if err := o.meta.SetTime(ctx, lastSyncKey(b), o.now().UTC()); err != nil {
		return fmt.Errorf("failed to persist sync state: %w", err)
	}
	return nil
}

// HandleRemoteChange reconciles a push notification: download only when the
// remote changed strictly after the last successful sync. Coarse
// whole-snapshot invalidation; concurrent local edits older than the remote
// change are overwritten.
func (o *Orchestrator) HandleRemoteChange(ctx context.Context, b backend.Backend, remoteTime time.Time) (Action, error) {
	last, err := o.LastSync(ctx, b)
	if err != nil {
		return ActionNone, fmt.Errorf("failed to read sync state: %w", err)
	}
	if last != nil && !remoteTime.After(*last) {
		o.log.Debug(ctx, "remote change already covered",
			"backend", b.Name(), "remote", remoteTime, "lastSync", *last)
		return ActionNone, nil
	}
	return ActionDownload, o.download(ctx, b)
}
