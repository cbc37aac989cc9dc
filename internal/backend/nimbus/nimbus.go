// Package nimbus syncs snapshots to the hosted daybook service: a Postgres
// row per user behind a PostgREST-style API, with a realtime websocket
// channel pushing change notifications. The user is identified by the sub
// claim of the session's JWT; the service enforces row ownership on its
// side.
package nimbus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/daybook/internal/authsession"
	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/snapshot"
)

const snapshotsTable = "snapshots"

// Config identifies one service project.
type Config struct {
	BaseURL string // project URL, e.g. https://abc.nimbus.example
	APIKey  string // public API key, sent alongside the user JWT
}

type Backend struct {
	cfg     Config
	session authsession.Session
	httpc   *http.Client
}

func New(cfg Config, session authsession.Session) *Backend {
	return &Backend{cfg: cfg, session: session, httpc: http.DefaultClient}
}

func (b *Backend) Name() string { return "nimbus" }

func (b *Backend) IsAuthenticated() bool {
	return b.cfg.BaseURL != "" && b.cfg.APIKey != "" && b.session.IsAuthenticated()
}

// creds returns the JWT and the user id from its sub claim.
func (b *Backend) creds() (token, userID string, err error) {
	if b.cfg.BaseURL == "" || b.cfg.APIKey == "" {
		return "", "", backend.ErrNotConfigured
	}
	token, err = b.session.Token()
	if err != nil {
		return "", "", err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}
	userID, err = claims.GetSubject()
	if err != nil || userID == "" {
		return "", "", fmt.Errorf("token has no sub claim")
	}
	return token, userID, nil
}

func (b *Backend) newRequest(ctx context.Context, token, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", b.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (b *Backend) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return backend.ErrUnauthenticated
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &backend.RemoteError{Backend: b.Name(), Status: resp.StatusCode, Message: string(body)}
}

type snapshotRow struct {
	UserID    string          `json:"user_id"`
	Document  json.RawMessage `json:"document,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

func (b *Backend) rowsURL(userID, selectCols string) string {
	return fmt.Sprintf("%s/rest/v1/%s?user_id=eq.%s&select=%s",
		b.cfg.BaseURL, snapshotsTable, url.QueryEscape(userID), url.QueryEscape(selectCols))
}

// fetchRows runs a select for the user's row; an empty result means no
// snapshot was ever uploaded.
func (b *Backend) fetchRows(ctx context.Context, token, userID, selectCols string) ([]snapshotRow, error) {
	req, err := b.newRequest(ctx, token, http.MethodGet, b.rowsURL(userID, selectCols), nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpc.Do(req)
	if err != nil {
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	defer resp.Body.Close()

	if err := b.checkStatus(resp); err != nil {
		return nil, err
	}
	var rows []snapshotRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	return rows, nil
}

func (b *Backend) Upload(ctx context.Context, snap *snapshot.Snapshot) error {
	token, userID, err := b.creds()
	if err != nil {
		return err
	}

	doc, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	body, err := json.Marshal([]snapshotRow{{
		UserID:    userID,
		Document:  doc,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/rest/v1/%s", b.cfg.BaseURL, snapshotsTable)
	req, err := b.newRequest(ctx, token, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := b.httpc.Do(req)
	if err != nil {
		return &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	defer resp.Body.Close()
	return b.checkStatus(resp)
}

func (b *Backend) Download(ctx context.Context) (*snapshot.Snapshot, error) {
	token, userID, err := b.creds()
	if err != nil {
		return nil, err
	}

	rows, err := b.fetchRows(ctx, token, userID, "document")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil // never uploaded: empty success
	}
	return snapshot.Decode(rows[0].Document)
}

func (b *Backend) RemoteModifiedTime(ctx context.Context) (*time.Time, error) {
	token, userID, err := b.creds()
	if err != nil {
		return nil, err
	}

	rows, err := b.fetchRows(ctx, token, userID, "updated_at")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t, err := parsePgTime(rows[0].UpdatedAt)
	if err != nil {
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	return &t, nil
}

// parsePgTime accepts the timestamp shapes Postgres emits: RFC3339 with
// offset, or a naive timestamp which is taken as UTC.
func parsePgTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05.999999999", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	return t.UTC(), nil
}

// websocketURL derives the realtime endpoint from the project URL.
func (b *Backend) websocketURL() string {
	u := strings.Replace(b.cfg.BaseURL, "http", "ws", 1)
	return fmt.Sprintf("%s/realtime/v1/websocket?apikey=%s&vsn=1.0.0", u, url.QueryEscape(b.cfg.APIKey))
}
