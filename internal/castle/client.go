package castle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the capability interface against the remote risk service. All
// operations make a single attempt bounded by the configured timeout; the
// caller decides what a failure means.
type Client interface {
	// Risk scores an event and returns the full verdict.
	Risk(ctx context.Context, payload *Payload) (*Verdict, error)
	// Filter assesses a pre-authentication event (typically status $attempted).
	Filter(ctx context.Context, payload *Payload) (*Verdict, error)
	// Log records an event without expecting a routing decision from it.
	Log(ctx context.Context, payload *Payload) (*Verdict, error)
	// ApproveDevice marks the device behind token as trusted.
	ApproveDevice(ctx context.Context, deviceToken string) error
}

// ClientConfig carries the immutable settings for the HTTP client.
type ClientConfig struct {
	APISecret       string
	BaseURL         string
	Timeout         time.Duration
	LogHTTPRequests bool
}

// HTTPClient talks JSON over HTTPS to the risk service. Authentication is
// HTTP Basic with an empty user and the API secret as password.
type HTTPClient struct {
	cfg    ClientConfig
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// HTTPClientOption customizes an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithLogger attaches a structured logger for degraded-path and debug logs.
func WithLogger(logger *slog.Logger) HTTPClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.http = h
	}
}

// NewHTTPClient validates the configuration and builds a client. A missing
// secret or base URL is a configuration error surfaced at assembly time.
func NewHTTPClient(cfg ClientConfig, opts ...HTTPClientOption) (*HTTPClient, error) {
	if cfg.APISecret == "" {
		return nil, errors.New("castle: api secret is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("castle: base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("castle: parse base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}

	c := &HTTPClient{
		cfg:  cfg,
		base: base,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Risk(ctx context.Context, payload *Payload) (*Verdict, error) {
	return c.post(ctx, "risk", payload)
}

func (c *HTTPClient) Filter(ctx context.Context, payload *Payload) (*Verdict, error) {
	return c.post(ctx, "filter", payload)
}

func (c *HTTPClient) Log(ctx context.Context, payload *Payload) (*Verdict, error) {
	return c.post(ctx, "log", payload)
}

// ApproveDevice issues PUT /v1/devices/{token}/approve. The response body
// carries nothing of interest; only the status matters.
func (c *HTTPClient) ApproveDevice(ctx context.Context, deviceToken string) error {
	if deviceToken == "" {
		return errors.New("castle: device token is required")
	}
	endpoint := c.endpoint("v1/devices/" + url.PathEscape(deviceToken) + "/approve")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return &TransportError{Operation: "approve_device", Err: err}
	}
	req.SetBasicAuth("", c.cfg.APISecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Operation: "approve_device", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Operation: "approve_device", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, operation string, payload *Payload) (*Verdict, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}

	if c.cfg.LogHTTPRequests && c.logger != nil {
		c.logger.DebugContext(ctx, "castle request",
			"operation", operation,
			"body", string(body),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("v1/"+operation), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("", c.cfg.APISecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Operation: operation, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}
	return verdict, nil
}

func (c *HTTPClient) endpoint(path string) string {
	base := strings.TrimRight(c.base.String(), "/")
	return base + "/" + path
}
