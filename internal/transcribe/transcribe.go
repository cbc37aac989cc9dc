// Package transcribe fetches text for captured audio from an HTTP
// transcription endpoint. Unlike the sync path, which never retries, this
// helper retries transient failures with exponential backoff: a voice
// capture is gone if its one transcription attempt fails, so the tradeoff
// is different here.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

type Client struct {
	url   string
	httpc *http.Client

	maxRetries  uint64
	baseBackoff time.Duration
}

func New(url string) *Client {
	return &Client{
		url:         url,
		httpc:       http.DefaultClient,
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
	}
}

type response struct {
	Text string `json:"text"`
}

// Fetch posts the audio and returns the transcription. Connection failures
// and 5xx answers are retried with exponential backoff; 4xx answers are
// permanent.
func (c *Client) Fetch(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if c.url == "" {
		return "", fmt.Errorf("transcription endpoint not configured")
	}

	var text string

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(audio))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", mimeType)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("transcription service returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			return fmt.Errorf("transcription rejected: %d %s", resp.StatusCode, body)
		}

		var r response
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return fmt.Errorf("malformed transcription response: %w", err)
		}
		text = r.Text
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
