// Package translate fills in English definitions for lemmas that only carry
// a Greek one. The step is batched, rate limited, and resumable through a
// checkpoint file, so an interrupted run picks up where it stopped.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client translates a batch of texts. The returned slice is positional and
// must have the same length as the input.
type Client interface {
	TranslateBatch(ctx context.Context, texts []string) ([]string, error)
}

// RetryableError marks a failure worth retrying on the next batch pass
// (rate limiting, transient server trouble). Anything else is treated as a
// configuration problem and aborts the run.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a RetryableError.
func IsRetryable(err error) bool {
	_, ok := err.(*RetryableError)
	return ok
}

// HTTPClient talks to a LibreTranslate-compatible endpoint.
type HTTPClient struct {
	Endpoint string
	APIKey   string
	Source   string
	Target   string
	HTTP     *http.Client
}

// NewHTTPClient builds a client translating Greek to English.
func NewHTTPClient(endpoint, apiKey string) *HTTPClient {
	return &HTTPClient{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Source:   "el",
		Target:   "en",
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

type translateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	APIKey string   `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText []string `json:"translatedText"`
}

// TranslateBatch posts one batch. HTTP 429 and 5xx come back as retryable.
func (c *HTTPClient) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(translateRequest{
		Q:      texts,
		Source: c.Source,
		Target: c.Target,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{Err: fmt.Errorf("translate: status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate: status %d", resp.StatusCode)
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("translate: decode response: %w", err)
	}
	if len(out.TranslatedText) != len(texts) {
		return nil, fmt.Errorf("translate: got %d translations for %d texts", len(out.TranslatedText), len(texts))
	}
	return out.TranslatedText, nil
}
