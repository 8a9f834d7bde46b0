// Package whttp is the shared HTTP gateway used by every API client.
// It wraps retryablehttp with a bounded, fixed-delay retry policy that
// only retries transport-level failures, never HTTP status codes.
package whttp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	requestTimeout = 10 * time.Second
	retryAttempts  = 2 // retries after the first attempt, 3 attempts total
	retryDelay     = 2 * time.Second
)

type Header struct {
	Name  string
	Value string
}

type Request struct {
	Method  string
	URL     string
	Headers []Header
	Query   url.Values
	Body    []byte // JSON, sent with Content-Type application/json
}

type Response struct {
	StatusCode int
	BodyString string
}

// TransientError is returned when all transport-level attempts failed.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("request failed after retries: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError is returned for any non-2xx HTTP response. Callers decide
// whether a given status (e.g. 404) is a valid empty result or a failure.
type PermanentError struct {
	StatusCode int
	Body       string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a PermanentError with status 404.
func IsNotFound(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm) && perm.StatusCode == http.StatusNotFound
}

type Client struct {
	rc *retryablehttp.Client
}

type Option func(*Client)

// WithRetryWait overrides the fixed delay between attempts (used in tests).
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		c.rc.RetryWaitMin = d
		c.rc.RetryWaitMax = d
	}
}

func NewClient(opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = log.New(io.Discard, "", 0)
	rc.RetryMax = retryAttempts
	rc.RetryWaitMin = retryDelay
	rc.RetryWaitMax = retryDelay
	rc.HTTPClient.Timeout = requestTimeout
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// Retry transport failures only; HTTP statuses are the caller's problem.
		return err != nil, nil
	}

	c := &Client{rc: rc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetProxy routes all requests through an HTTP proxy (debugging aid).
func (c *Client) SetProxy(proxy string) error {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	c.rc.HTTPClient.Transport = &http.Transport{
		Proxy:           http.ProxyURL(proxyURL),
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return nil
}

// Do sends the request and maps the outcome onto the gateway error taxonomy:
// 2xx yields a Response, any other status a PermanentError, and a transport
// failure that survives all retries a TransientError.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	reqURL := r.URL
	if len(r.Query) > 0 {
		reqURL += "?" + r.Query.Encode()
	}

	var rawBody interface{}
	if len(r.Body) > 0 {
		rawBody = r.Body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, r.Method, reqURL, rawBody)
	if err != nil {
		return nil, err
	}

	// Common headers
	req.Header.Set("User-Agent", "pmdbsync")
	req.Header.Set("Accept", "application/json")
	if len(r.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, h := range r.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := c.rc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Err: err}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PermanentError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	return &Response{StatusCode: resp.StatusCode, BodyString: string(bodyBytes)}, nil
}
