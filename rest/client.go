package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/deepnoodle-ai/docdb/retry"
	"github.com/deepnoodle-ai/docdb/slogger"
)

var (
	DefaultEndpoint   = "http://localhost:8040"
	DefaultMaxRetries = 3
	DefaultBaseWait   = 250 * time.Millisecond
)

var _ Services = &Client{}

// Client implements Services against a docdb REST server. It is safe for
// concurrent use.
type Client struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	baseWait   time.Duration
	logger     slogger.Logger

	mu            sync.RWMutex
	requestLogger RequestLogger
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithMaxRetries(maxRetries int) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

func WithBaseWait(baseWait time.Duration) Option {
	return func(c *Client) {
		c.baseWait = baseWait
	}
}

func WithLogger(logger slogger.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		client:     http.DefaultClient,
		maxRetries: DefaultMaxRetries,
		baseWait:   DefaultBaseWait,
		logger:     slogger.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.endpoint = strings.TrimRight(c.endpoint, "/")
	return c
}

// Endpoint returns the base URL of the server
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) StartLogging(logger RequestLogger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestLogger = logger
}

func (c *Client) StopLogging() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestLogger = nil
}

func (c *Client) currentRequestLogger() RequestLogger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requestLogger
}

type request struct {
	method      string
	path        string
	query       url.Values
	header      http.Header
	body        []byte
	contentType string
	noRetry     bool
}

// do sends the request, retrying connection failures and retryable status
// codes. Any other non-2xx status is returned as a *ServiceError. On success
// the caller owns the response body.
func (c *Client) do(ctx context.Context, r *request) (*http.Response, error) {
	target := c.endpoint + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	op := r.method + " " + r.path
	started := time.Now()

	var resp *http.Response
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, r.method, target, bytes.NewReader(r.body))
		if err != nil {
			return fmt.Errorf("error creating request: %w", err)
		}
		for k, values := range r.header {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}
		res, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.NewRecoverableError(&TransportError{Op: op, Err: err})
		}
		if res.StatusCode >= 400 {
			serr := NewServiceError(res)
			if retry.ShouldRetry(res.StatusCode) {
				return retry.NewRecoverableError(serr)
			}
			return serr
		}
		resp = res
		return nil
	}

	maxRetries := c.maxRetries
	if r.noRetry {
		maxRetries = 1
	}
	err := retry.Do(ctx, attempt,
		retry.WithMaxRetries(maxRetries),
		retry.WithBaseWait(c.baseWait),
		retry.WithOnRetry(func(n int, err error, wait time.Duration) {
			c.logger.Warn("retrying docdb request", "op", op, "attempt", n+1, "wait", wait, "error", err)
		}))

	c.logRequest(r, resp, err, time.Since(started))
	if err != nil {
		c.logger.Debug("docdb request failed", "op", op, "error", err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) logRequest(r *request, resp *http.Response, err error, d time.Duration) {
	logger := c.currentRequestLogger()
	if logger == nil {
		return
	}
	entry := &RequestLog{
		Method:   r.method,
		Path:     r.path,
		Query:    r.query,
		Duration: d,
		Err:      err,
	}
	if resp != nil {
		entry.StatusCode = resp.StatusCode
	}
	var serr *ServiceError
	if errors.As(err, &serr) {
		entry.StatusCode = serr.StatusCode
	}
	if n := min(logger.ContentMax(), int64(len(r.body))); n > 0 {
		entry.Body = r.body[:n]
	}
	logger.LogRequest(entry)
}

// discard drains and closes a response body so the connection can be reused
func discard(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
