// Package http is the retrying dispatcher every endpoint call goes through.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/eodhd/internal/constants"
	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// Logger is the logging interface the dispatcher writes to.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}

// Client dispatches request descriptors with retry and failure classification.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	baseURL      string
	logger       Logger
	debug        bool
	userAgent    string
	maxAttempts  int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	timeout      time.Duration
	transport    http.RoundTripper
	interceptors *eodhd.InterceptorChain
	retryClient  *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets the attempt budget, first try included, and the backoff bounds.
func WithRetryConfig(maxAttempts int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTransport sets the round tripper performing each attempt.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithInterceptors sets the interceptor chain run around each call.
func WithInterceptors(chain *eodhd.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a dispatcher rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		logger:       noopLogger{},
		userAgent:    constants.DefaultUserAgent,
		maxAttempts:  constants.DefaultMaxAttempts,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
		timeout:      constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	// A private pool, so closing idle connections after a failure leaves
	// http.DefaultTransport alone.
	if client.transport == nil {
		client.transport = cleanhttp.DefaultPooledTransport()
	}

	if client.maxAttempts < 1 {
		client.maxAttempts = 1
	}

	if client.retryWaitMax < client.retryWaitMin {
		client.retryWaitMax = client.retryWaitMin
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Transport: client.transport,
		Timeout:   client.timeout,
	}
	retryClient.RetryMax = client.maxAttempts - 1
	retryClient.RetryWaitMin = client.retryWaitMin
	retryClient.RetryWaitMax = client.retryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.Backoff = Backoff
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.RequestLogHook = client.requestLogHook
	retryClient.ResponseLogHook = client.responseLogHook

	client.retryClient = retryClient

	return client
}

type attemptCounterKey struct{}

type requestIDKey struct{}

// Do sends the request, retrying transient failures, and returns the final
// successful response. Every failure is an *eodhd.Error.
func (c *Client) Do(ctx context.Context, desc *eodhd.RequestDescriptor) (*eodhd.RawResponse, error) {
	if ctx.Err() != nil {
		return nil, cancelled(desc.Op(), 0, ctx.Err())
	}

	requestID := uuid.NewString()
	view := &eodhd.Request{
		Op:        desc.Op(),
		Method:    desc.Method(),
		Path:      desc.Path(),
		Query:     desc.Redacted(),
		RequestID: requestID,
		Headers:   make(http.Header),
	}

	if c.interceptors != nil {
		err := c.interceptors.ExecuteRequestInterceptors(ctx, view)
		if err != nil {
			return nil, &eodhd.Error{Kind: eodhd.KindValidation, Op: desc.Op(), Message: "request rejected", Err: err}
		}
	}

	counter := new(atomic.Int32)
	ctx = context.WithValue(ctx, attemptCounterKey{}, counter)
	ctx = context.WithValue(ctx, requestIDKey{}, requestID)

	req, err := retryablehttp.NewRequestWithContext(ctx, desc.Method(), c.baseURL+desc.Path()+"?"+desc.RawQuery(), nil)
	if err != nil {
		return nil, &eodhd.Error{Kind: eodhd.KindTransport, Op: desc.Op(), Message: "invalid request", Err: redact(err)}
	}

	for key, values := range view.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":     desc.Method(),
			"url":        c.baseURL + desc.Path() + "?" + desc.Redacted(),
			"request_id": requestID,
		})
	}

	start := time.Now()
	raw, callErr := c.dispatch(ctx, req, desc.Op(), counter)

	if c.debug {
		fields := map[string]interface{}{
			"attempts":   int(counter.Load()),
			"duration":   time.Since(start).String(),
			"request_id": requestID,
		}

		if raw != nil {
			fields["status_code"] = raw.StatusCode
		}

		if callErr != nil {
			fields["error"] = callErr.Error()
		}

		c.logger.Debug("HTTP Response", fields)
	}

	if c.interceptors != nil {
		outcome := &eodhd.Response{Attempts: int(counter.Load()), Error: callErr}
		if raw != nil {
			outcome.StatusCode = raw.StatusCode
			outcome.Headers = raw.Header
			outcome.Body = raw.Body
		}

		if callErr != nil {
			if apiErr, ok := eodhd.AsError(callErr); ok {
				outcome.StatusCode = apiErr.Status
			}
		}

		err := c.interceptors.ExecuteResponseInterceptors(ctx, view, outcome)
		if err != nil && callErr == nil {
			return nil, &eodhd.Error{Kind: eodhd.KindTransport, Op: desc.Op(), Message: "response rejected", Err: err}
		}
	}

	if callErr != nil {
		return nil, callErr
	}

	return raw, nil
}

// dispatch runs the retry loop and classifies its outcome.
func (c *Client) dispatch(ctx context.Context, req *retryablehttp.Request, op string, counter *atomic.Int32) (*eodhd.RawResponse, error) {
	resp, err := c.retryClient.Do(req)
	attempts := int(counter.Load())

	if ctx.Err() != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, cancelled(op, attempts, ctx.Err())
	}

	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, &eodhd.Error{
			Kind:     eodhd.KindTransport,
			Op:       op,
			Attempts: attempts,
			Message:  "request failed",
			Err:      redact(err),
		}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(op, attempts, ctx.Err())
		}

		return nil, &eodhd.Error{
			Kind:     eodhd.KindTransport,
			Op:       op,
			Status:   resp.StatusCode,
			Attempts: attempts,
			Message:  "reading response body",
			Err:      redact(err),
		}
	}

	if apiErr := classify(op, resp.StatusCode, body, attempts); apiErr != nil {
		return nil, apiErr
	}

	return &eodhd.RawResponse{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
		Attempts:    attempts,
	}, nil
}

// classify maps a final non-2xx status to its error kind.
func classify(op string, status int, body []byte, attempts int) *eodhd.Error {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	apiErr := &eodhd.Error{
		Op:       op,
		Status:   status,
		Attempts: attempts,
		Message:  eodhd.ParseErrorMessage(status, body),
		Body:     excerpt(body),
	}

	switch {
	case status == http.StatusTooManyRequests:
		apiErr.Kind = eodhd.KindRateLimit
	case status >= http.StatusInternalServerError:
		apiErr.Kind = eodhd.KindServer
	default:
		apiErr.Kind = eodhd.KindClient
	}

	return apiErr
}

func cancelled(op string, attempts int, cause error) *eodhd.Error {
	return &eodhd.Error{
		Kind:     eodhd.KindTransport,
		Op:       op,
		Attempts: attempts,
		Message:  eodhd.MsgCancelled,
		Err:      cause,
	}
}

func excerpt(body []byte) []byte {
	if len(body) > constants.MaxLoggedBodyBytes {
		body = body[:constants.MaxLoggedBodyBytes]
	}

	copied := make([]byte, len(body))
	copy(copied, body)

	return copied
}

// redact masks the credential in any *url.Error in err's chain.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = eodhd.RedactURL(urlErr.URL)
	}

	return err
}

// checkRetry retries connection errors, 429 and every 5xx. A cancelled or
// expired caller context stops the loop immediately.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return true, nil
	}

	return false, nil
}

// Backoff waits exponentially longer with full jitter between waitMin and
// waitMax. A Retry-After header on 429 or 503 takes precedence, capped at waitMax.
func Backoff(waitMin, waitMax time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if wait, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
			return min(wait, waitMax)
		}
	}

	ceiling := waitMin
	for range attemptNum {
		ceiling *= constants.ExponentialBackoffBase
		if ceiling >= waitMax || ceiling <= 0 {
			ceiling = waitMax

			break
		}
	}

	if ceiling <= waitMin {
		return waitMin
	}

	return waitMin + rand.N(ceiling-waitMin+1) //nolint:gosec // jitter does not need a secure source
}

// ParseRetryAfter reads a Retry-After value given in seconds or as an HTTP date.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}

		return time.Duration(seconds) * time.Second, true
	}

	when, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}

	wait := when.Sub(now)
	if wait < 0 {
		wait = 0
	}

	return wait, true
}

func (c *Client) requestLogHook(_ retryablehttp.Logger, req *http.Request, attemptNum int) {
	if counter, ok := req.Context().Value(attemptCounterKey{}).(*atomic.Int32); ok {
		counter.Add(1)
	}

	if attemptNum > 0 && c.debug {
		requestID, _ := req.Context().Value(requestIDKey{}).(string)
		c.logger.Debug("HTTP Retry", map[string]interface{}{
			"attempt":    attemptNum + 1,
			"url":        eodhd.RedactURL(req.URL.String()),
			"request_id": requestID,
		})
	}
}

func (c *Client) responseLogHook(_ retryablehttp.Logger, resp *http.Response) {
	if !c.debug || resp.Request == nil {
		return
	}

	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < http.StatusInternalServerError {
		return
	}

	requestID, _ := resp.Request.Context().Value(requestIDKey{}).(string)
	c.logger.Debug("HTTP Attempt Failed", map[string]interface{}{
		"status_code": resp.StatusCode,
		"retry_after": resp.Header.Get("Retry-After"),
		"request_id":  requestID,
	})
}

// String describes the dispatcher without revealing any credential.
func (c *Client) String() string {
	return fmt.Sprintf("dispatcher(%s, attempts=%d)", c.baseURL, c.maxAttempts)
}
