package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/parcel-api/internal/domain"
	"github.com/phrazzld/parcel-api/internal/frontend"
)

// DefaultTimeout bounds each request made with the default HTTP client.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an unexpected response is kept for errors.
const maxErrorBody = 1 << 10

var (
	// ErrAPIDisabled is returned by every Client method when the settings
	// select local-only mode. No request is issued.
	ErrAPIDisabled = errors.New("backend API disabled by configuration")

	// ErrParcelNotFound is returned when the backend answers 404 for a parcel.
	ErrParcelNotFound = errors.New("parcel not found")
)

// StatusError reports a response status the client does not handle.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status string `json:"status"`
}

// OK reports whether the backend declared itself healthy.
func (h HealthStatus) OK() bool { return h.Status == "ok" }

// Client calls the backend API rooted at the settings' API base.
type Client struct {
	settings   frontend.Settings
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for settings.
func New(settings frontend.Settings, opts ...Option) *Client {
	c := &Client{
		settings:   settings,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "api_client"))
	return c
}

// Settings returns the settings the client was built with.
func (c *Client) Settings() frontend.Settings { return c.settings }

// Health queries the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.getJSON(ctx, c.settings.HealthURL(), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Parcel fetches the view of a single parcel.
func (c *Client) Parcel(ctx context.Context, parcelID string) (*domain.ParcelView, error) {
	if !c.settings.UsingAPI() {
		return nil, ErrAPIDisabled
	}
	if err := domain.ValidateParcelID(parcelID); err != nil {
		return nil, err
	}

	var view domain.ParcelView
	err := c.getJSON(ctx, c.settings.ParcelURL(parcelID), &view)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrParcelNotFound, parcelID)
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	if !c.settings.UsingAPI() {
		return ErrAPIDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("api request completed",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
