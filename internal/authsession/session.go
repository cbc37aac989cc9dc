// Package authsession keeps per-backend cloud credentials: an opaque access
// token, its expiry and a minimal user profile, persisted in the durable
// metadata area. There is no refresh flow: once a token expires the user
// signs in again.
package authsession

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/repositories/metadata"
)

// Profile is the minimal identity cached alongside a token.
type Profile struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Credentials is what a completed sign-in hands to the session. A zero
// Expiry means "derive it from the token's exp claim".
type Credentials struct {
	AccessToken string
	Expiry      time.Time
	Profile     Profile
}

// Session is the token lifecycle for one cloud backend.
type Session interface {
	// IsAuthenticated is a pure expiry check against the current clock.
	IsAuthenticated() bool

	// Token returns the access token, or backend.ErrUnauthenticated when
	// it is missing or expired.
	Token() (string, error)

	// SignIn stores the credentials durably.
	SignIn(ctx context.Context, creds Credentials) error

	// SignOut purges local state only; no remote session invalidation is
	// attempted.
	SignOut(ctx context.Context) error

	// Profile returns the cached identity, if any.
	Profile() (Profile, bool)
}

type storedToken struct {
	AccessToken string    `json:"accessToken"`
	Expiry      time.Time `json:"expiry"`
	Profile     Profile   `json:"profile"`
}

// KVSession implements Session on top of the metadata repository, under the
// key prefix "auth.<backend>.". The token is cached in memory so
// IsAuthenticated stays synchronous.
type KVSession struct {
	name string
	repo metadata.Repository
	now  func() time.Time

	mu  sync.RWMutex
	tok *storedToken
}

// New loads any previously persisted token for the named backend.
func New(ctx context.Context, name string, repo metadata.Repository) (*KVSession, error) {
	s := &KVSession{name: name, repo: repo, now: time.Now}

	data, err := repo.Get(ctx, s.tokenKey())
	if err != nil {
		return nil, fmt.Errorf("failed to load auth state: %w", err)
	}
	if data != nil {
		var tok storedToken
		if err := json.Unmarshal(data, &tok); err != nil {
			// Unreadable cached token: treat as signed out.
			return s, nil
		}
		s.tok = &tok
	}
	return s, nil
}

func (s *KVSession) keyPrefix() string { return "auth." + s.name + "." }
func (s *KVSession) tokenKey() string  { return s.keyPrefix() + "token" }

func (s *KVSession) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok != nil && s.now().Before(s.tok.Expiry)
}

func (s *KVSession) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok == nil || !s.now().Before(s.tok.Expiry) {
		return "", backend.ErrUnauthenticated
	}
	return s.tok.AccessToken, nil
}

func (s *KVSession) SignIn(ctx context.Context, creds Credentials) error {
	expiry := creds.Expiry
	if expiry.IsZero() {
		derived, err := ExpiryFromJWT(creds.AccessToken)
		if err != nil {
			return fmt.Errorf("no expiry given and none in token: %w", err)
		}
		expiry = derived
	}

	tok := storedToken{AccessToken: creds.AccessToken, Expiry: expiry, Profile: creds.Profile}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode auth state: %w", err)
	}
	if err := s.repo.Set(ctx, s.tokenKey(), data); err != nil {
		return fmt.Errorf("failed to persist auth state: %w", err)
	}

	s.mu.Lock()
	s.tok = &tok
	s.mu.Unlock()
	return nil
}

func (s *KVSession) SignOut(ctx context.Context) error {
	if err := s.repo.DeletePrefix(ctx, s.keyPrefix()); err != nil {
		return fmt.Errorf("failed to purge auth state: %w", err)
	}
	s.mu.Lock()
	s.tok = nil
	s.mu.Unlock()
	return nil
}

func (s *KVSession) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok == nil {
		return Profile{}, false
	}
	return s.tok.Profile, true
}

// ExpiryFromJWT reads the exp claim from a JWT without verifying its
// signature. The client only needs the expiry for its local "do I still
// have a usable token" check; the provider verifies signatures server-side.
func ExpiryFromJWT(tokenString string) (time.Time, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return exp.Time, nil
}
