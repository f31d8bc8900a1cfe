package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// Observer receives the latency of every completed round trip. op is one of
// "login", "verify_otp", "probe" or "list".
type Observer func(op string, elapsed time.Duration)

// Client issues requests against one backend. It is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	logger   *slog.Logger
	observer Observer
}

// Option customises a [Client].
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The configured timeout and mTLS
// settings are not applied to a caller-supplied client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger for failed round trips.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver reports the latency of every round trip to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New validates cfg and returns a ready client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		transport, err := transportFor(cfg.MTLS)
		if err != nil {
			return nil, fmt.Errorf("backend: mtls: %w", err)
		}
		c.http = &http.Client{Timeout: cfg.Timeout}
		if transport != nil {
			c.http.Transport = transport
		}
	}
	return c, nil
}

func (c *Client) loginPath(loginType string) (string, error) {
	switch loginType {
	case "admin":
		return c.cfg.Endpoints.AdminLogin, nil
	case "editor":
		if c.cfg.Endpoints.EditorLogin != "" {
			return c.cfg.Endpoints.EditorLogin, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLoginType, loginType)
}

func (c *Client) verifyPath(loginType string) (string, error) {
	switch loginType {
	case "admin":
		return c.cfg.Endpoints.AdminVerifyOTP, nil
	case "editor":
		if c.cfg.Endpoints.EditorVerifyOTP != "" {
			return c.cfg.Endpoints.EditorVerifyOTP, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLoginType, loginType)
}

// Login submits credentials to the login endpoint for loginType. Any JSON
// body is returned regardless of status, since failures carry lockout and
// attempts data.
func (c *Client) Login(ctx context.Context, loginType string, creds Credentials) (*LoginResponse, error) {
	path, err := c.loginPath(loginType)
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	if _, err := c.do(ctx, "login", http.MethodPost, path, "", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP submits the one-time code for loginType.
func (c *Client) VerifyOTP(ctx context.Context, loginType string, req OTPRequest) (*VerifyResponse, error) {
	path, err := c.verifyPath(loginType)
	if err != nil {
		return nil, err
	}
	var out VerifyResponse
	if _, err := c.do(ctx, "verify_otp", http.MethodPost, path, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Probe asks the backend whether token is still accepted. It returns nil for
// any 2xx, an *APIError matching [ErrUnauthorized] for 401/403, and an error
// wrapping [ErrUnavailable] or an *APIError otherwise.
func (c *Client) Probe(ctx context.Context, token string) error {
	status, err := c.do(ctx, "probe", http.MethodGet, c.cfg.Endpoints.Probe, token, nil, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &APIError{Status: status}
	}
	return nil
}

// List fetches the entries of a dashboard section. The body may be a bare
// array or an object wrapping the array under "data" or "items".
func (c *Client) List(ctx context.Context, token, section string) ([]Item, error) {
	var raw json.RawMessage
	status, err := c.do(ctx, "list", http.MethodGet, c.cfg.Endpoints.Sections+section, token, nil, &raw)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &APIError{Status: status, Message: messageOf(raw)}
	}
	return decodeItems(raw)
}

func decodeItems(raw json.RawMessage) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Data  []Item `json:"data"`
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %v", ErrUnavailable, err)
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return wrapped.Items, nil
}

func messageOf(raw json.RawMessage) string {
	var m struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &m) != nil {
		return ""
	}
	if m.Message != "" {
		return m.Message
	}
	return m.Detail
}

// do performs one request. When out is nil the body is drained and ignored.
func (c *Client) do(ctx context.Context, op, method, path, token string, payload, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Api-Key", c.cfg.APIKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.observer != nil {
		c.observer(op, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("backend request failed",
			slog.String("op", op),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		slog.String("op", op),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return resp.StatusCode, &APIError{Status: resp.StatusCode}
		}
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return resp.StatusCode, fmt.Errorf("%w: status %d: %v", ErrUnavailable, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
