package cli

import (
	"bufio"
	"context"
	"os"
)

// Run starts the REPL and keeps the nimbus change subscription alive while
// the app runs.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to daybook (type 'help' for commands)")

	a.startWatch(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, scanner)
}

// startWatch launches the push-notification loop for backends that support
// it. A dropped subscription stays down until the next signin.
func (a *App) startWatch(ctx context.Context) {
	b, ok := a.backends["nimbus"]
	if !ok || !b.IsAuthenticated() {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	go func() {
		if err := a.orch.Watch(ctx, b); err != nil && ctx.Err() == nil {
			a.log.Warn(ctx, "change subscription ended", "backend", b.Name(), "error", err)
		}
	}()
}
