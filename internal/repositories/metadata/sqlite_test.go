package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB)`)
	require.NoError(t, err)
	return db
}

func TestSetGetDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// absent key: nil, no error
	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Set(ctx, "k", []byte("v1")))
	v, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	// overwrite
	require.NoError(t, r.Set(ctx, "k", []byte("v2")))
	v, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, r.Delete(ctx, "k"))
	v, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDeletePrefix(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "auth.drive.token", []byte("t")))
	require.NoError(t, r.Set(ctx, "auth.drive.profile", []byte("p")))
	require.NoError(t, r.Set(ctx, "auth.nimbus.token", []byte("t")))
	require.NoError(t, r.Set(ctx, "sync.drive.last", []byte("x")))

	require.NoError(t, r.DeletePrefix(ctx, "auth.drive."))

	for key, want := range map[string][]byte{
		"auth.drive.token":   nil,
		"auth.drive.profile": nil,
		"auth.nimbus.token":  []byte("t"),
		"sync.drive.last":    []byte("x"),
	} {
		v, err := r.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, v, key)
	}
}

func TestTimeHelpers(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// absent key
	got, err := r.GetTime(ctx, "ts")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := time.Date(2026, 5, 1, 12, 30, 0, 250000000, time.UTC)
	require.NoError(t, r.SetTime(ctx, "ts", want))

	got, err = r.GetTime(ctx, "ts")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(want))

	// garbage value surfaces as an error
	require.NoError(t, r.Set(ctx, "bad", []byte("not a time")))
	_, err = r.GetTime(ctx, "bad")
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte("1")))
	require.NoError(t, r.Set(ctx, "b", []byte("2")))
	require.NoError(t, r.Clear(ctx))

	for _, key := range []string{"a", "b"} {
		v, err := r.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
}
