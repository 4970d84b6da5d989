// Package client is the HTTP submission client for the contact endpoint.
// It makes exactly one POST per Submit: no retries, no backoff.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/inquiry/contact"
	"go.uber.org/zap"
)

// DefaultPath is the endpoint path used when the configured URL has none.
const DefaultPath = "/contact"

// maxAckBytes caps how much of a response body is read.
const maxAckBytes = 64 << 10

// Client submits contact inquiries to one fixed endpoint.
// It implements contact.Submitter.
type Client struct {
	endpoint  string
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport-default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Client for endpoint. A URL without a path ("https://host")
// targets DefaultPath on that host.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("client: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: endpoint %q must be an http or https URL", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("client: endpoint %q has no host", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}

	c := &Client{
		endpoint:  u.String(),
		http:      NewHTTPClient(DefaultTransportConfig()),
		userAgent: "inquiry-client",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the resolved endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Error is returned for every failed submission. StatusCode is zero when the
// request never got a response.
type Error struct {
	StatusCode int
	Code       string // error code from the endpoint's JSON envelope, if any
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("client: endpoint returned %d (%s)", e.StatusCode, e.Code)
	case e.StatusCode != 0:
		return fmt.Sprintf("client: endpoint returned %d", e.StatusCode)
	case e.Err != nil:
		return "client: " + e.Err.Error()
	default:
		return "client: submission failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Submit posts s as JSON and returns the endpoint's Ack on any 2xx.
func (c *Client) Submit(ctx context.Context, s contact.Submission) (contact.Ack, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return contact.Ack{}, &Error{Err: fmt.Errorf("encode submission: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return contact.Ack{}, &Error{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("contact request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return contact.Ack{}, &Error{Err: err}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxAckBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &env)
		c.logger.Debug("contact endpoint rejected submission",
			zap.Int("status", resp.StatusCode),
			zap.String("code", env.Error),
		)
		return contact.Ack{}, &Error{StatusCode: resp.StatusCode, Code: env.Error}
	}

	// Any 2xx is an accepted submission; a body we cannot read or decode is
	// not a failure.
	if readErr != nil {
		c.logger.Debug("contact ack not readable", zap.Int("status", resp.StatusCode), zap.Error(readErr))
		return contact.Ack{}, nil
	}
	var ack contact.Ack
	if len(bytes.TrimSpace(raw)) == 0 {
		return ack, nil
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		c.logger.Debug("contact ack not decodable", zap.Int("status", resp.StatusCode), zap.Error(err))
		return contact.Ack{}, nil
	}
	return ack, nil
}

// IsStatus reports whether err is a client Error carrying the given status.
func IsStatus(err error, status int) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.StatusCode == status
}

var _ contact.Submitter = (*Client)(nil)
