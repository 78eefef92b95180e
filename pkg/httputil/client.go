package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/budgetmap/pkg/buildinfo"
	"github.com/matzehuels/budgetmap/pkg/errors"
)

const (
	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 30 * time.Second

	// MaxBodySize is the largest accepted response body.
	MaxBodySize = 64 << 20
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.http = hc } }

// WithBackoff replaces [DefaultBackoff].
func WithBackoff(b Backoff) ClientOption { return func(c *Client) { c.backoff = b } }

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

// Client fetches remote sources. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	backoff Backoff
	headers map[string]string
}

// NewClient creates a client with [DefaultTimeout] and [DefaultBackoff].
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		backoff: DefaultBackoff,
		headers: map[string]string{"User-Agent": "budgetmap/" + buildinfo.Version},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsRemote reports whether source is an http or https URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Get returns the body of url, retrying transient failures.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := Retry(ctx, c.backoff, func() error {
		var err error
		data, err = c.get(ctx, url)
		return err
	})
	if err != nil {
		if errors.GetCode(err) != "" || ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "fetch %s", url)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid url %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("read body: %w", err)}
	}
	if len(data) > MaxBodySize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is larger than %d bytes", url, MaxBodySize)
	}
	return data, nil
}

func checkStatus(url string, code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeFileNotFound, "%s: status %d", url, code)
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: fmt.Errorf("%s: status %d", url, code)}
	default:
		return errors.New(errors.ErrCodeUpstream, "%s: status %d", url, code)
	}
}
