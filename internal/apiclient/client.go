// Package apiclient is the typed HTTP client for the StockBot API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/stockboard/internal/core"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single request. AI-backed endpoints can be slow.
const DefaultTimeout = 120 * time.Second

// Error is a non-2xx response. Its text is the server's detail when present,
// otherwise the HTTP status text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches core.ErrAPI so callers can test the class without a type switch.
func (e *Error) Is(target error) bool {
	return target == core.ErrAPI
}

// Recorder receives per-request metrics.
type Recorder interface {
	RecordAPIRequest(method, endpoint string, status int, duration float64)
}

// Client talks JSON to the StockBot API.
type Client struct {
	baseURL  string
	client   *http.Client
	header   http.Header
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHeader adds a header sent on every request. Content-Type and Accept
// cannot be overridden.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		header:  make(http.Header),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Do sends a request and decodes a 2xx JSON response into out. A nil body
// sends no payload; a nil out discards the response.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.record(method, path, 0, duration)
		c.logger.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return core.WrapError(core.ErrTransport, err)
	}
	defer resp.Body.Close()

	c.record(method, path, resp.StatusCode, duration)
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapError(core.ErrDecode, err)
	}
	return nil
}

// newError prefers the body's detail and otherwise uses the status text,
// even when that is empty.
func newError(resp *http.Response) *Error {
	e := &Error{Status: resp.StatusCode, Message: statusText(resp)}
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		e.Message = body.Detail
	}
	return e
}

// statusText is the reason phrase the server sent.
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	if text = strings.TrimSpace(text); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func (c *Client) record(method, path string, status int, d time.Duration) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordAPIRequest(method, endpointLabel(path), status, d.Seconds())
}

// endpointLabel keeps metric cardinality bounded by dropping symbols.
func endpointLabel(path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return "/" + p
}
