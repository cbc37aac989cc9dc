package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatchBackend struct {
	fakeBackend
	changes []time.Time
}

func (f *fakeWatchBackend) Watch(ctx context.Context, onChange func(remoteTime time.Time)) error {
	for _, c := range f.changes {
		onChange(c)
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestWatch_FeedsReconciliation(t *testing.T) {
	orch, recs, _ := newOrchestrator(t)

	f := &fakeWatchBackend{
		fakeBackend: fakeBackend{authed: true, snap: remoteSnapshot(t, 2)},
		changes:     []time.Time{time.Now().UTC()},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- orch.Watch(ctx, f) }()

	require.Eventually(t, func() bool { return f.downloads.Load() == 1 },
		time.Second, 5*time.Millisecond)

	count, err := recs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestWatch_RejectsBackendsWithoutPush(t *testing.T) {
	orch, _, _ := newOrchestrator(t)
	err := orch.Watch(context.Background(), &fakeBackend{})
	assert.Error(t, err)
}
