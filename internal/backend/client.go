// Package backend is the HTTP client for the finance backend collaborator:
// one read endpoint for the transaction feed and one multipart endpoint for
// bulk imports.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gofinances/internal/core"
)

// Config is the explicit client configuration, built once at startup.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Headers are sent with every request (e.g. an API key).
	Headers map[string]string
}

type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
}

// FeedResponse is the raw payload of GET /transactions.
type FeedResponse struct {
	Transactions []core.RawTransaction `json:"transactions"`
	Balance      core.RawBalance       `json:"balance"`
}

// ImportError is a backend rejection of one imported file. It matches
// core.ErrImportRejected so callers can tell rejections from transport
// failures.
type ImportError struct {
	StatusCode int
	Message    string
}

func (e *ImportError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("import rejected (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("import rejected (status %d): %s", e.StatusCode, e.Message)
}

func (e *ImportError) Unwrap() error { return core.ErrImportRejected }

func NewClient(cfg Config) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", parsed.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    cfg.Headers,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// FetchFeed performs one GET /transactions round-trip. Any transport
// failure, non-2xx status, or undecodable body wraps
// core.ErrFeedUnavailable; the caller keeps its previous state.
func (c *Client) FetchFeed(ctx context.Context) (FeedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions", nil)
	if err != nil {
		return FeedResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FeedResponse{}, fmt.Errorf("%w: %v", core.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FeedResponse{}, fmt.Errorf("%w: backend returned status %d", core.ErrFeedUnavailable, resp.StatusCode)
	}

	var feed FeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return FeedResponse{}, fmt.Errorf("%w: decode response: %v", core.ErrFeedUnavailable, err)
	}

	return feed, nil
}

// Import uploads one file to POST /transactions/import as multipart field
// "file". A non-2xx response comes back as *ImportError; transport errors
// are returned as-is.
func (c *Client) Import(ctx context.Context, name string, content io.Reader) error {
	var body strings.Builder
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions/import", strings.NewReader(body.String()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send import: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &ImportError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(msg)),
	}
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}
