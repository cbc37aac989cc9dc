package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/daybook/internal/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE records (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  logical_date TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  tags TEXT NOT NULL DEFAULT '[]',
  quadrant INTEGER NOT NULL DEFAULT 0,
  done INTEGER NOT NULL DEFAULT 0,
  archived INTEGER NOT NULL DEFAULT 0,
  provenance TEXT NOT NULL DEFAULT 'manual'
);
`)
	require.NoError(t, err)
	return db
}

func newTask(content string) *models.Record {
	return models.New(models.KindTask, content, models.ProvenanceManual)
}

func TestUpsert_InsertThenOverwrite(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := newTask("water plants")
	rec.Tags = []string{"home", "Home", " garden "}
	require.NoError(t, r.Upsert(ctx, rec))

	got, err := r.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "water plants", got.Content)
	assert.Equal(t, []string{"garden", "home"}, got.Tags) // normalized on write

	// overwrite by id
	rec.Content = "water plants twice"
	rec.Done = true
	rec.Touch()
	require.NoError(t, r.Upsert(ctx, rec))

	got, err = r.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "water plants twice", got.Content)
	assert.True(t, got.Done)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsert_KindIsImmutable(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := newTask("t")
	require.NoError(t, r.Upsert(ctx, rec))

	mutated := *rec
	mutated.Kind = models.KindNote
	require.NoError(t, r.Upsert(ctx, &mutated))

	got, err := r.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KindTask, got.Kind)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDPrefix(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := newTask("alpha")
	a.ID = "0123456789abcdef"
	b := newTask("bravo")
	b.ID = "0123456700000000"
	c := newTask("charlie")
	c.ID = "fedcba9876543210"
	for _, rec := range []*models.Record{a, b, c} {
		require.NoError(t, r.Upsert(ctx, rec))
	}

	// unique prefix resolves
	got, err := r.GetByIDPrefix(ctx, "fedcba98")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	// the full id is its own prefix
	got, err = r.GetByIDPrefix(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	// shared prefix is ambiguous
	_, err = r.GetByIDPrefix(ctx, "01234567")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = r.GetByIDPrefix(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// LIKE metacharacters in user input match nothing, not everything
	_, err = r.GetByIDPrefix(ctx, "%")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Filters(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	task := newTask("task one")
	task.Tags = []string{"work"}
	note := models.New(models.KindNote, "a note", models.ProvenanceManual)
	archived := newTask("old")
	archived.Archived = true
	done := newTask("shipped")
	done.Done = true
	urgent := newTask("now")
	urgent.Quadrant = models.QuadrantUrgentImportant

	for _, rec := range []*models.Record{task, note, archived, done, urgent} {
		require.NoError(t, r.Upsert(ctx, rec))
	}

	got, err := r.List(ctx, Filter{Kind: models.KindTask})
	require.NoError(t, err)
	assert.Len(t, got, 2) // task + urgent; archived and done excluded

	got, err = r.List(ctx, Filter{Kind: models.KindTask, IncludeArchived: true, IncludeDone: true})
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = r.List(ctx, Filter{Tag: "work"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, task.ID, got[0].ID)

	got, err = r.List(ctx, Filter{Quadrant: models.QuadrantUrgentImportant})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, urgent.ID, got[0].ID)
}

func TestDeleteByID_MissingIsNoError(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, r.DeleteByID(context.Background(), "missing"))
}

func TestClear(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, newTask("one")))
	require.NoError(t, r.Upsert(ctx, newTask("two")))
	require.NoError(t, r.Clear(ctx))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMaxUpdatedAt(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// empty store: nil, not an error
	got, err := r.MaxUpdatedAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := newTask("older")
	older.UpdatedAt = base
	// sub-second difference must still order correctly
	newer := newTask("newer")
	newer.UpdatedAt = base.Add(500 * time.Millisecond)

	require.NoError(t, r.Upsert(ctx, newer))
	require.NoError(t, r.Upsert(ctx, older))

	got, err = r.MaxUpdatedAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(newer.UpdatedAt))
}

func TestDateFieldsRoundTrip(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := models.New(models.KindDiary, "dear diary", models.ProvenanceDiary)
	rec.LogicalDate = time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	rec.CreatedAt = time.Date(2026, 2, 14, 8, 30, 15, 123456789, time.FixedZone("CET", 3600))
	rec.UpdatedAt = rec.CreatedAt.Add(time.Hour)

	require.NoError(t, r.Upsert(ctx, rec))

	got, err := r.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	// stored in UTC, instants preserved
	assert.True(t, got.CreatedAt.Equal(rec.CreatedAt))
	assert.True(t, got.UpdatedAt.Equal(rec.UpdatedAt))
	assert.Equal(t, "2026-02-14", got.LogicalDate.Format("2006-01-02"))
}
