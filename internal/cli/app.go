package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/daybook/internal/authsession"
	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/backend/drive"
	"github.com/dmitrijs2005/daybook/internal/backend/folder"
	"github.com/dmitrijs2005/daybook/internal/backend/nimbus"
	"github.com/dmitrijs2005/daybook/internal/backend/s3"
	"github.com/dmitrijs2005/daybook/internal/classify"
	"github.com/dmitrijs2005/daybook/internal/config"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/services"
	"github.com/dmitrijs2005/daybook/internal/store"
	syncx "github.com/dmitrijs2005/daybook/internal/sync"
	"github.com/dmitrijs2005/daybook/internal/transcribe"
)

// App wires the data layer to the REPL: one store, one orchestrator, and
// the four backends with their sessions and schedulers.
type App struct {
	config *config.Config
	log    logging.Logger

	repos       *store.Repositories
	records     services.RecordService
	classifier  classify.Classifier
	transcriber *transcribe.Client
	orch        *syncx.Orchestrator

	folderBackend *folder.Backend
	backends      map[string]backend.Backend
	sessions      map[string]authsession.Session
	schedulers    map[string]*syncx.Scheduler
	debouncer     *syncx.Debouncer

	watchCancel context.CancelFunc

	reader *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := store.Open(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config:     c,
		log:        log,
		repos:      repos,
		backends:   map[string]backend.Backend{},
		sessions:   map[string]authsession.Session{},
		schedulers: map[string]*syncx.Scheduler{},
		reader:     bufio.NewReader(os.Stdin),
	}

	a.folderBackend, err = folder.New(ctx, repos.Metadata)
	if err != nil {
		repos.Close()
		return nil, err
	}
	a.backends["folder"] = a.folderBackend
	a.backends["s3"] = s3.New(s3.Config{
		Region:          c.S3.Region,
		Endpoint:        c.S3.Endpoint,
		Bucket:          c.S3.Bucket,
		Key:             c.S3.Key,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
	})

	for _, name := range []string{"drive", "nimbus"} {
		session, err := authsession.New(ctx, name, repos.Metadata)
		if err != nil {
			repos.Close()
			return nil, err
		}
		a.sessions[name] = session
	}

	driveBackend := drive.New(a.sessions["drive"], repos.Metadata)
	if c.DriveBaseURL != "" {
		driveBackend.BaseURL = c.DriveBaseURL
	}
	if c.DriveUploadURL != "" {
		driveBackend.UploadURL = c.DriveUploadURL
	}
	a.backends["drive"] = driveBackend
	a.backends["nimbus"] = nimbus.New(nimbus.Config{
		BaseURL: c.NimbusURL,
		APIKey:  c.NimbusAPIKey,
	}, a.sessions["nimbus"])

	a.orch = syncx.New(repos.Records, repos.Metadata, log)
	a.debouncer = syncx.NewDebouncer(c.DebounceQuiet, a.uploadAll)
	for name, b := range a.backends {
		a.schedulers[name] = syncx.NewScheduler(a.orch, b, c.SyncInterval, log)
	}

	a.records = services.NewRecordService(repos.Records, a.debouncer)
	a.transcriber = transcribe.New(c.TranscribeURL)
	if c.ClassifyModel != "" {
		a.classifier = classify.NewLLMClassifier(c.ClassifyModel)
	} else {
		a.classifier = classify.NewRuleClassifier()
	}

	return a, nil
}

// uploadAll pushes the local state to every backend that is currently
// usable. Called by the debouncer after a quiet period.
func (a *App) uploadAll() {
	ctx := context.Background()
	for name, b := range a.backends {
		if !b.IsAuthenticated() {
			continue
		}
		if err := a.orch.Upload(ctx, b); err != nil {
			a.log.Warn(ctx, "debounced upload failed", "backend", name, "error", err)
		}
	}
}

// Close stops background work and releases the database.
func (a *App) Close() error {
	a.debouncer.Stop()
	for _, s := range a.schedulers {
		s.Stop()
	}
	if a.watchCancel != nil {
		a.watchCancel()
	}
	return a.repos.Close()
}
