package sync

import (
	stdsync "sync"
	"time"
)

// Debouncer schedules a function after a quiet period following the last
// notification. Trailing-edge and single-flight: every Notify restarts the
// pending timer, it never queues a second run.
type Debouncer struct {
	quiet time.Duration
	fn    func()

	mu    stdsync.Mutex
	timer *time.Timer
}

func NewDebouncer(quiet time.Duration, fn func()) *Debouncer {
	return &Debouncer{quiet: quiet, fn: fn}
}

// Notify records a local mutation and (re)starts the quiet-period timer.
func (d *Debouncer) Notify() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.fn)
}

// Stop cancels any pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
