package library

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

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Doer sends one request to the library service and returns the decoded
// envelope. It is implemented by *Client and can be faked in tests.
type Doer interface {
	Do(ctx context.Context, method, path string, body any) (Envelope, error)
}

// Ensure Client implements Doer at compile time.
var _ Doer = (*Client)(nil)

// Client talks to the library service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Options configure a Client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // zero disables rate limiting
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

const (
	DefaultBaseURL   = "https://phl-2-b5-mission04-assignment04-ser.vercel.app"
	defaultUserAgent = "shelf/0.1"
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 8 << 20
)

// NewClient builds a Client for the service at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: defaultUserAgent,
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends method to path with an optional JSON body and unwraps the
// response envelope.
func (c *Client) Do(ctx context.Context, method, path string, body any) (Envelope, error) {
	if c == nil {
		return Envelope{}, fmt.Errorf("client is nil")
	}
	rel, err := url.Parse(path)
	if err != nil {
		return Envelope{}, fmt.Errorf("parse path %q: %w", path, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return Envelope{}, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Envelope{}, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("library request failed",
			"request_id", requestID, "method", method, "path", path, "error", err)
		return Envelope{}, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("library request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Envelope{}, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("read response: %w", err)}
	}
	return decodeEnvelope(method, path, resp.StatusCode, raw)
}

func decodeEnvelope(method, path string, status int, raw []byte) (Envelope, error) {
	ok := status >= 200 && status < 300
	if len(bytes.TrimSpace(raw)) == 0 {
		if ok {
			return Envelope{Success: true}, nil
		}
		return Envelope{}, &ServerError{Method: method, Path: path, Status: status}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		serverErr := &ServerError{Method: method, Path: path, Status: status}
		if ok {
			serverErr.Err = fmt.Errorf("decode response: %w", err)
		}
		return Envelope{}, serverErr
	}
	if !ok {
		return env, &ServerError{Method: method, Path: path, Status: status, Message: env.Message}
	}
	if !env.Success {
		return env, &ServerError{Method: method, Path: path, Status: status, Message: env.Message,
			Err: errors.New("envelope reported success=false")}
	}
	return env, nil
}

// parseBaseURL normalizes the configured service address. Any path, query
// or fragment is dropped; endpoint paths are absolute.
func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
