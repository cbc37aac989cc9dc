package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/daybook/internal/backend"
)

// Watch runs a backend's push subscription and feeds each notification into
// the reconciliation path. It blocks until ctx is cancelled or the
// subscription drops; reconnection is the caller's business.
func (o *Orchestrator) Watch(ctx context.Context, b backend.Backend) error {
	w, ok := b.(backend.Watcher)
	if !ok {
		return fmt.Errorf("backend %s does not push change notifications", b.Name())
	}

	return w.Watch(ctx, func(remoteTime time.Time) {
		action, err := o.HandleRemoteChange(ctx, b, remoteTime)
		if err != nil {
			o.log.Error(ctx, "remote change reconciliation failed",
				"backend", b.Name(), "error", err)
			return
		}
		o.log.Debug(ctx, "remote change handled",
			"backend", b.Name(), "action", action.String())
	})
}
