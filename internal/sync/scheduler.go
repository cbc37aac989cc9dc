package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// DefaultSyncInterval is how often the background scheduler uploads when no
// other interval is configured.
const DefaultSyncInterval = 5 * time.Minute

// Scheduler uploads the local state to one backend on a fixed interval, as
// a backstop for missed debounce triggers. It never consults the decision
// table and never downloads on its own initiative.
type Scheduler struct {
	orch     *Orchestrator
	backend  backend.Backend
	interval time.Duration
	log      logging.Logger

	mu     stdsync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(orch *Orchestrator, b backend.Backend, interval time.Duration, log logging.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Scheduler{orch: orch, backend: b, interval: interval, log: log}
}

// Start launches the interval loop. Calling Start on a running scheduler is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop cancels the loop and waits for it to exit, so teardown and sign-out
// are deterministic.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.backend.IsAuthenticated() {
				continue
			}
			if err := s.orch.Upload(ctx, s.backend); err != nil {
				s.log.Warn(ctx, "scheduled upload failed",
					"backend", s.backend.Name(), "error", err)
			}
		}
	}
}
