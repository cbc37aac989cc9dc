// Package drive syncs snapshots to a Drive-style file REST API: one named
// file in the user's space, found by name, overwritten in place on every
// upload. The remote file id is cached in the metadata area so repeated
// uploads update the same file instead of piling up copies.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrijs2005/daybook/internal/authsession"
	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/repositories/metadata"
	"github.com/dmitrijs2005/daybook/internal/snapshot"
)

const (
	fileIDKey    = "sync.drive.fileId"
	snapshotName = "daybook-snapshot.json"
)

type Backend struct {
	session authsession.Session
	meta    metadata.Repository

	// BaseURL serves metadata calls, UploadURL media content. Overridable
	// in tests.
	BaseURL   string
	UploadURL string
}

func New(session authsession.Session, meta metadata.Repository) *Backend {
	return &Backend{
		session:   session,
		meta:      meta,
		BaseURL:   "https://www.googleapis.com/drive/v3",
		UploadURL: "https://www.googleapis.com/upload/drive/v3",
	}
}

func (b *Backend) Name() string { return "drive" }

func (b *Backend) IsAuthenticated() bool { return b.session.IsAuthenticated() }

// httpClient builds an authenticated client around the session's token.
func (b *Backend) httpClient(ctx context.Context) (*http.Client, error) {
	tok, err := b.session.Token()
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok})), nil
}

type fileInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

type fileList struct {
	Files []fileInfo `json:"files"`
}

func (b *Backend) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return backend.ErrUnauthenticated
	}
	if resp.StatusCode == http.StatusNotFound {
		return backend.ErrNotFound
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &backend.RemoteError{Backend: b.Name(), Status: resp.StatusCode, Message: string(body)}
}

func (b *Backend) doJSON(ctx context.Context, client *http.Client, method, url string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	defer resp.Body.Close()

	if err := b.checkStatus(resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &backend.ConnectionError{Backend: b.Name(), Err: err}
		}
	}
	return nil
}

// findFile locates the snapshot file, preferring the cached id and falling
// back to a name search. Returns a zero fileInfo when no remote snapshot
// exists yet.
func (b *Backend) findFile(ctx context.Context, client *http.Client) (fileInfo, error) {
	cached, err := b.meta.Get(ctx, fileIDKey)
	if err != nil {
		return fileInfo{}, err
	}

	if len(cached) > 0 {
		var info fileInfo
		u := fmt.Sprintf("%s/files/%s?fields=id,name,modifiedTime", b.BaseURL, url.PathEscape(string(cached)))
		err := b.doJSON(ctx, client, http.MethodGet, u, nil, "", &info)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, backend.ErrNotFound) {
			return fileInfo{}, err
		}
		// the cached file is gone remotely: forget it and search again
		if err := b.meta.Delete(ctx, fileIDKey); err != nil {
			return fileInfo{}, err
		}
	}

	q := url.QueryEscape(fmt.Sprintf("name = '%s' and trashed = false", snapshotName))
	u := fmt.Sprintf("%s/files?q=%s&fields=files(id,name,modifiedTime)", b.BaseURL, q)

	var list fileList
	if err := b.doJSON(ctx, client, http.MethodGet, u, nil, "", &list); err != nil {
		return fileInfo{}, err
	}
	if len(list.Files) == 0 {
		return fileInfo{}, nil
	}

	info := list.Files[0]
	if err := b.meta.Set(ctx, fileIDKey, []byte(info.ID)); err != nil {
		return fileInfo{}, err
	}
	return info, nil
}

func (b *Backend) Upload(ctx context.Context, snap *snapshot.Snapshot) error {
	client, err := b.httpClient(ctx)
	if err != nil {
		return err
	}

	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	info, err := b.findFile(ctx, client)
	if err != nil {
		return err
	}

	if info.ID == "" {
		// create the metadata shell first, then fill in content
		meta, _ := json.Marshal(map[string]string{"name": snapshotName})
		var created fileInfo
		u := b.BaseURL + "/files?fields=id,name,modifiedTime"
		if err := b.doJSON(ctx, client, http.MethodPost, u, bytes.NewReader(meta), "application/json", &created); err != nil {
			return err
		}
		if err := b.meta.Set(ctx, fileIDKey, []byte(created.ID)); err != nil {
			return err
		}
		info = created
	}

	u := fmt.Sprintf("%s/files/%s?uploadType=media", b.UploadURL, url.PathEscape(info.ID))
	return b.doJSON(ctx, client, http.MethodPatch, u, bytes.NewReader(data), "application/json", nil)
}

func (b *Backend) Download(ctx context.Context) (*snapshot.Snapshot, error) {
	client, err := b.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	info, err := b.findFile(ctx, client)
	if err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, nil // first-time sync: nothing remote yet
	}

	u := fmt.Sprintf("%s/files/%s?alt=media", b.BaseURL, url.PathEscape(info.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	defer resp.Body.Close()

	if err := b.checkStatus(resp); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	return snapshot.Decode(data)
}

func (b *Backend) RemoteModifiedTime(ctx context.Context) (*time.Time, error) {
	client, err := b.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	info, err := b.findFile(ctx, client)
	if err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, nil
	}
	t := info.ModifiedTime.UTC()
	return &t, nil
}
