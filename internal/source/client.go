package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"brane-view/internal/invocation"
	"brane-view/internal/logger"
)

var log = logger.Named("source")

// ErrNotFound means brane-api has no invocation with the requested id.
var ErrNotFound = errors.New("invocation not found")

// maxBody caps how much of a response body is read.
const maxBody = 8 << 20

// StatusError is a non-2xx response other than 404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("brane-api: HTTP %d", e.Code)
	}
	return fmt.Sprintf("brane-api: HTTP %d: %s", e.Code, e.Body)
}

// Client reads invocation records from brane-api.
// All methods are safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client for the API at baseURL. A nil httpClient gets a
// default one with a 10-second timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("brane-api: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("brane-api: invalid base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, client: httpClient}, nil
}

// Invocation fetches one invocation record by uuid.
func (c *Client) Invocation(ctx context.Context, id string) (invocation.Record, error) {
	body, err := c.get(ctx, "/invocations/"+url.PathEscape(id))
	if err != nil {
		return invocation.Record{}, err
	}
	frag, err := invocation.ParseFragment(body)
	if err != nil {
		return invocation.Record{}, fmt.Errorf("brane-api: decode invocation %s: %w", id, err)
	}
	return frag.Record, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/health")
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brane-api: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("brane-api: read %s: %w", path, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
