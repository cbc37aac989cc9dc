// Package store opens the local SQLite database and wires up the
// repositories. The database is the single source of truth for the running
// application; everything the sync layer does is derived from it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/filex"
	"github.com/dmitrijs2005/daybook/internal/migrations"
	"github.com/dmitrijs2005/daybook/internal/repositories/metadata"
	"github.com/dmitrijs2005/daybook/internal/repositories/records"
)

// Repositories bundles the two local stores: the unified record table and
// the durable key-value area holding sync state and auth tokens.
type Repositories struct {
	Records  records.Repository
	Metadata metadata.Repository
	DB       *sql.DB
}

// RunMigrations applies all embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the database at dsn, runs migrations and
// returns the repository set.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	if !strings.Contains(dsn, ":memory:") {
		if _, err := filex.EnsureDir(filepath.Dir(dsn)); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repositories{
		Records:  records.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
		DB:       db,
	}, nil
}

// Reset wipes all local data, records and sync bookkeeping alike, in one
// transaction. Auth tokens live in the metadata table too, so this also
// signs the user out of every backend.
func (r *Repositories) Reset(ctx context.Context) error {
	return dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := records.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Clear(ctx)
	})
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.DB.Close()
}
