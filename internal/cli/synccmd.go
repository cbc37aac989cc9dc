package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/daybook/internal/authsession"
	"github.com/dmitrijs2005/daybook/internal/backend"
)

func (a *App) lookupBackend(name string) (backend.Backend, error) {
	b, ok := a.backends[name]
	if !ok {
		printlnFn("Unknown backend:", name)
		return nil, fmt.Errorf("unknown backend %q", name)
	}
	return b, nil
}

// Backends prints each sync target and its current state.
func (a *App) Backends(ctx context.Context) error {
	status := func(b backend.Backend) string {
		if b.IsAuthenticated() {
			return "ready"
		}
		return "signed out"
	}

	switch {
	case a.folderBackend.IsGranted():
		printlnFn(fmt.Sprintf("folder  ready (%s)", a.folderBackend.DisplayName()))
	case a.folderBackend.IsConfigured():
		printlnFn(fmt.Sprintf("folder  needs re-grant (%s)", a.folderBackend.DisplayName()))
	default:
		printlnFn("folder  not set up")
	}

	printlnFn("s3      " + status(a.backends["s3"]))

	for _, name := range []string{"drive", "nimbus"} {
		line := name + "  " + status(a.backends[name])
		if profile, ok := a.sessions[name].Profile(); ok && profile.Email != "" {
			line += " (" + profile.Email + ")"
		}
		printlnFn(line)
	}

	for _, name := range []string{"folder", "s3", "drive", "nimbus"} {
		if last, err := a.orch.LastSync(ctx, a.backends[name]); err == nil && last != nil {
			printlnFn(fmt.Sprintf("  last sync %s: %s", name, last.Format(time.RFC3339)))
		}
	}
	return nil
}

// Grant supplies the folder backend its directory for this session.
func (a *App) Grant(ctx context.Context, path string) error {
	if err := a.folderBackend.Grant(ctx, path); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Folder granted:", a.folderBackend.DisplayName())
	return nil
}

// SignIn stores pasted credentials for a cloud backend. The sign-in page
// runs in the browser; the user pastes the access token from the redirect.
func (a *App) SignIn(ctx context.Context, name string) error {
	session, ok := a.sessions[name]
	if !ok {
		printlnFn("Backend", name, "has no sign-in (folder uses 'grant', s3 is configured statically)")
		return fmt.Errorf("backend %q has no session", name)
	}

	token, err := GetSecret("Paste the access token", os.Stdout)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Account email (optional)", os.Stdout)
	if err != nil {
		return err
	}
	lifetime, err := GetSimpleText(a.reader, "Token lifetime, e.g. 1h (blank to read it from the token)", os.Stdout)
	if err != nil {
		return err
	}

	creds := authsession.Credentials{
		AccessToken: token,
		Profile:     authsession.Profile{Email: email},
	}
	if lifetime != "" {
		d, err := time.ParseDuration(lifetime)
		if err != nil {
			printlnFn("Error:", err.Error())
			return err
		}
		creds.Expiry = time.Now().Add(d)
	}

	if err := session.SignIn(ctx, creds); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Signed in to", name)

	if name == "nimbus" && a.watchCancel == nil {
		a.startWatch(ctx)
	}
	return nil
}

// SignOut purges local credentials; no remote session is invalidated.
func (a *App) SignOut(ctx context.Context, name string) error {
	session, ok := a.sessions[name]
	if !ok {
		printlnFn("Backend", name, "has no sign-in")
		return fmt.Errorf("backend %q has no session", name)
	}

	if err := session.SignOut(ctx); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if name == "nimbus" && a.watchCancel != nil {
		a.watchCancel()
		a.watchCancel = nil
	}
	printlnFn("Signed out of", name)
	return nil
}

func (a *App) Sync(ctx context.Context, name string) error {
	b, err := a.lookupBackend(name)
	if err != nil {
		return err
	}

	action, err := a.orch.SyncMostRecent(ctx, b)
	return a.reportSync(name, action.String(), err)
}

func (a *App) Pull(ctx context.Context, name string) error {
	b, err := a.lookupBackend(name)
	if err != nil {
		return err
	}

	action, err := a.orch.PullMostRecent(ctx, b)
	return a.reportSync(name, action.String(), err)
}

func (a *App) reportSync(name, action string, err error) error {
	switch {
	case errors.Is(err, backend.ErrUnauthenticated):
		printlnFn("Sign in to", name, "first (or re-grant the folder)")
		return err
	case errors.Is(err, backend.ErrNotConfigured):
		printlnFn("Backend", name, "is not configured")
		return err
	case err != nil:
		printlnFn("Sync failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("%s: %s complete", name, action))
	return nil
}

// Reset wipes all local data after confirmation. The remote snapshots are
// left alone; auth tokens go with the metadata table, so every backend ends
// up signed out.
func (a *App) Reset(ctx context.Context) error {
	answer, err := GetSimpleText(a.reader, "This deletes all local records and signs you out everywhere. Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		printlnFn("Cancelled")
		return nil
	}

	if err := a.repos.Reset(ctx); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchCancel = nil
	}
	printlnFn("Local data wiped")
	return nil
}

// AutoSync starts or stops the background interval schedulers.
func (a *App) AutoSync(ctx context.Context, on bool) error {
	if on {
		for _, s := range a.schedulers {
			s.Start(ctx)
		}
		printlnFn("Background sync on")
		return nil
	}
	for _, s := range a.schedulers {
		s.Stop()
	}
	printlnFn("Background sync off")
	return nil
}
