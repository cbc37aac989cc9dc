package authsession

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/repositories/metadata"
)

func setupRepo(t *testing.T) metadata.Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB)`)
	require.NoError(t, err)
	return metadata.NewSQLiteRepository(db)
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		Subject:   "user-1",
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestSignIn_PersistsAcrossSessions(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	s, err := New(ctx, "drive", repo)
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())

	creds := Credentials{
		AccessToken: "tok-123",
		Expiry:      time.Now().Add(time.Hour),
		Profile:     Profile{Email: "a@b.c", DisplayName: "A"},
	}
	require.NoError(t, s.SignIn(ctx, creds))
	assert.True(t, s.IsAuthenticated())

	// a fresh session over the same store sees the token (survives restart)
	s2, err := New(ctx, "drive", repo)
	require.NoError(t, err)
	assert.True(t, s2.IsAuthenticated())

	tok, err := s2.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)

	p, ok := s2.Profile()
	require.True(t, ok)
	assert.Equal(t, "a@b.c", p.Email)
}

func TestIsAuthenticated_PureExpiryCheck(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	s, err := New(ctx, "drive", repo)
	require.NoError(t, err)

	require.NoError(t, s.SignIn(ctx, Credentials{
		AccessToken: "tok",
		Expiry:      time.Now().Add(time.Minute),
	}))
	assert.True(t, s.IsAuthenticated())

	// move the clock past expiry: no refresh happens, just false
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.False(t, s.IsAuthenticated())

	_, err = s.Token()
	assert.ErrorIs(t, err, backend.ErrUnauthenticated)
}

func TestSignIn_DerivesExpiryFromJWT(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok := signedJWT(t, exp)

	s, err := New(ctx, "nimbus", repo)
	require.NoError(t, err)
	require.NoError(t, s.SignIn(ctx, Credentials{AccessToken: tok}))

	assert.True(t, s.IsAuthenticated())
	s.now = func() time.Time { return exp.Add(time.Second) }
	assert.False(t, s.IsAuthenticated())
}

func TestSignIn_NoExpiryAnywhereFails(t *testing.T) {
	repo := setupRepo(t)
	s, err := New(context.Background(), "nimbus", repo)
	require.NoError(t, err)

	err = s.SignIn(context.Background(), Credentials{AccessToken: "opaque-not-a-jwt"})
	assert.Error(t, err)
	assert.False(t, s.IsAuthenticated())
}

func TestSignOut_PurgesOnlyOwnPrefix(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	drive, err := New(ctx, "drive", repo)
	require.NoError(t, err)
	nimbus, err := New(ctx, "nimbus", repo)
	require.NoError(t, err)

	require.NoError(t, drive.SignIn(ctx, Credentials{AccessToken: "d", Expiry: time.Now().Add(time.Hour)}))
	require.NoError(t, nimbus.SignIn(ctx, Credentials{AccessToken: "n", Expiry: time.Now().Add(time.Hour)}))

	require.NoError(t, drive.SignOut(ctx))
	assert.False(t, drive.IsAuthenticated())
	assert.True(t, nimbus.IsAuthenticated())

	// and it is durable
	drive2, err := New(ctx, "drive", repo)
	require.NoError(t, err)
	assert.False(t, drive2.IsAuthenticated())
}

func TestExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, err := ExpiryFromJWT(signedJWT(t, exp))
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))

	_, err = ExpiryFromJWT("garbage")
	assert.Error(t, err)
}
