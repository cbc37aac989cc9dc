package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(url string) *Client {
	c := New(url)
	c.baseBackoff = time.Millisecond
	return c
}

func TestFetch_ReturnsTranscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "audio-bytes", string(body))
		assert.Equal(t, "audio/webm", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"text":"buy milk"}`))
	}))
	t.Cleanup(srv.Close)

	text, err := newClient(srv.URL).Fetch(context.Background(), []byte("audio-bytes"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", text)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"text":"second time lucky"}`))
	}))
	t.Cleanup(srv.Close)

	text, err := newClient(srv.URL).Fetch(context.Background(), []byte("a"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", text)
	assert.Equal(t, int64(3), calls.Load())
}

func TestFetch_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported format", http.StatusUnsupportedMediaType)
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(srv.URL).Fetch(context.Background(), []byte("a"), "audio/ogg")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load(), "4xx is not retried")
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(srv.URL).Fetch(context.Background(), []byte("a"), "audio/webm")
	require.Error(t, err)
	assert.Equal(t, int64(4), calls.Load(), "initial attempt plus three retries")
}

func TestFetch_RequiresEndpoint(t *testing.T) {
	_, err := New("").Fetch(context.Background(), []byte("a"), "audio/webm")
	assert.Error(t, err)
}
