package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxSummary = 300

// Options configures the retrying transport shared by the source and destination clients.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Client executes HTTP requests, retrying 429 and 5xx answers with exponential backoff.
// Transport failures are retried only for requests that are safe to resend.
type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Summary renders a short status/body description for error messages.
func (r *Response) Summary() string {
	if r == nil {
		return ""
	}
	body := strings.TrimSpace(string(r.Body))
	if len(body) > maxSummary {
		body = body[:maxSummary] + "..."
	}
	return fmt.Sprintf("status=%d body=%s", r.StatusCode, body)
}

// RequestFunc builds a fresh request for every attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// CallOption adjusts retry behaviour for a single call.
type CallOption func(*callOptions)

type callOptions struct {
	replayable bool
}

// Replayable marks a request sent with a non-idempotent method, such as a read-only
// POST query, as safe to resend after a transport failure.
func Replayable() CallOption {
	return func(o *callOptions) { o.replayable = true }
}

var errRetryableStatus = errors.New("retryable status")

// New builds a Client. Zero options fall back to a 20s timeout, a 100ms base delay and
// a 2s delay cap.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// Do sends the request built by build. Non-retryable answers, including 4xx, are
// returned as responses, as is the last retryable answer once retries run out. A
// transport failure is returned as an error. It is retried only when the method is
// idempotent or the call is marked Replayable, since a POST may already have been applied.
func (c *Client) Do(ctx context.Context, build RequestFunc, opts ...CallOption) (*Response, error) {
	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}

	policy := &retryAfterBackOff{BackOff: c.newBackOff(), max: c.maxDelay}
	var last *Response
	err := backoff.Retry(func() error {
		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil || !(call.replayable || idempotent(req.Method)) {
				return backoff.Permanent(err)
			}
			return err
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return backoff.Permanent(err)
		}

		last = &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
		if retryable(resp.StatusCode) {
			policy.retryAfter = parseRetryAfterSeconds(resp.Header.Get("Retry-After"))
			return errRetryableStatus
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx))

	if err != nil && !errors.Is(err, errRetryableStatus) {
		return nil, err
	}
	return last, nil
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.baseDelay
	b.MaxInterval = c.maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// retryAfterBackOff prefers a server supplied Retry-After delay, capped at max, over the
// exponential schedule.
type retryAfterBackOff struct {
	backoff.BackOff
	retryAfter time.Duration
	max        time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if wait := b.retryAfter; wait > 0 {
		b.retryAfter = 0
		if wait > b.max {
			return b.max
		}
		return wait
	}
	return next
}

func (b *retryAfterBackOff) Reset() {
	b.retryAfter = 0
	b.BackOff.Reset()
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
