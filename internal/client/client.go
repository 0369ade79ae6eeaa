// Package client talks to the external compliance backend that owns the
// regulations, articles, systems and impacts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cindral/core/internal/models"
)

const (
	TenantHeader   = "X-Organization-ID"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// StatusError is a non-2xx backend response. 404 unwraps to ErrNotFound,
// 400 and 422 to ErrInvalid.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: backend returned %d", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return models.ErrInvalid
	}
	return nil
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit bounds outgoing requests. A zero limit disables limiting.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(r, burst)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Fetch(ctx context.Context, tenantID string) (*models.SystemMapData, error) {
	var data models.SystemMapData
	if err := c.do(ctx, http.MethodGet, "/system-map", tenantID, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) CreateImpact(ctx context.Context, tenantID string, imp models.Impact) error {
	return c.do(ctx, http.MethodPost, "/impacts", tenantID, imp, nil)
}

func (c *Client) UpdateImpact(ctx context.Context, tenantID string, imp models.Impact) error {
	return c.do(ctx, http.MethodPut, "/impacts", tenantID, imp, nil)
}

func (c *Client) DeleteImpact(ctx context.Context, tenantID, articleID, systemID string) error {
	q := url.Values{"articleId": {articleID}, "systemId": {systemID}}
	return c.do(ctx, http.MethodDelete, "/impacts?"+q.Encode(), tenantID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, tenantID string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TenantHeader, tenantID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "backend request",
		"method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
