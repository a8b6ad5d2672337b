package http

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/exp/rand"
)

const (
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = time.Millisecond * 500
)

//go:generate mockgen -source=http.go -destination=mocks/http_mocks.go -package=mocks

// HTTPClient executes a single http request
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient wraps an HTTPClient and retries requests that fail transiently.
// A request is retried when the transport returns an error, when the server
// responds 429, or when it responds with a 5xx status. The last response and
// error seen are returned once the retry budget is exhausted.
type RetryClient struct {
	client      HTTPClient
	baseBackoff time.Duration
	maxRetries  int
}

// ClientOption configures a RetryClient
type ClientOption func(*RetryClient)

// NewRetryClient creates a RetryClient. It is safe for concurrent use as long
// as the wrapped client is.
func NewRetryClient(opts ...ClientOption) *RetryClient {
	c := &RetryClient{
		client:      http.DefaultClient,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: DefaultBaseBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithMaxRetries sets the maximum number of attempts for the client
func WithMaxRetries(maxRetries int) ClientOption {
	return func(c *RetryClient) {
		c.maxRetries = maxRetries
	}
}

// WithBaseBackoff sets the base backoff time for the client
func WithBaseBackoff(baseBackoff time.Duration) ClientOption {
	return func(c *RetryClient) {
		c.baseBackoff = baseBackoff
	}
}

// WithHTTPClient sets the underlying http client
func WithHTTPClient(client HTTPClient) ClientOption {
	return func(c *RetryClient) {
		c.client = client
	}
}

// Do executes the request, retrying transient failures until the retry budget
// runs out. The request context still bounds the total time spent; a canceled
// context surfaces as the transport error of the final attempt.
func (c *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err = c.client.Do(req)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		if attempt == c.maxRetries-1 {
			break
		}

		delay := c.backoff(resp, attempt)
		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}

	return resp, err
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// backoff calculates the delay before the next attempt. A Retry-After header
// from the server wins over the computed backoff.
func (c *RetryClient) backoff(resp *http.Response, attempt int) time.Duration {
	if resp != nil {
		retryAfterHeader := resp.Header.Get("Retry-After")
		if retryAfterHeader != "" {
			seconds, err := strconv.Atoi(retryAfterHeader)
			if err == nil {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	// 2^n backoff
	expBackoff := time.Duration(1<<attempt) * c.baseBackoff

	// staggers the backoff to avoid a thundering herd
	jitter := time.Duration(rand.Int63n(int64(c.baseBackoff)))

	return expBackoff + jitter
}
