package eodhd_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// recordingLogger captures log calls.
type recordingLogger struct {
	mutex   sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

func (l *recordingLogger) add(level, msg string, fields map[string]interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *recordingLogger) messages() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	messages := make([]string, 0, len(l.entries))
	for _, entry := range l.entries {
		messages = append(messages, entry.msg)
	}

	return messages
}

func TestInterceptorChain_Order(t *testing.T) {
	t.Parallel()

	chain := eodhd.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *eodhd.Request) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *eodhd.Request) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})
	chain.AddResponseInterceptor(func(ctx context.Context, req *eodhd.Request, resp *eodhd.Response) error {
		executionOrder = append(executionOrder, "response")

		return nil
	})

	req := &eodhd.Request{Op: "eod", Method: "GET", Path: "/eod/MCD.US"}

	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &eodhd.Response{StatusCode: 200}))
	assert.Equal(t, []string{"first", "second", "response"}, executionOrder)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	errBlocked := errors.New("blocked")
	chain := eodhd.NewInterceptorChain()
	called := false

	chain.AddRequestInterceptor(func(ctx context.Context, req *eodhd.Request) error { return errBlocked })
	chain.AddRequestInterceptor(func(ctx context.Context, req *eodhd.Request) error {
		called = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &eodhd.Request{})
	require.ErrorIs(t, err, errBlocked)
	assert.False(t, called)
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	serverDown := &eodhd.Error{Kind: eodhd.KindServer, Status: 503}

	t.Run("opens and recovers", func(t *testing.T) {
		t.Parallel()

		breaker := eodhd.NewCircuitBreaker(&eodhd.CircuitBreakerConfig{
			Threshold:        2,
			Cooldown:         100 * time.Millisecond,
			SuccessThreshold: 1,
		})
		chain := eodhd.NewInterceptorChain().WithCircuitBreaker(breaker)

		ctx := context.Background()
		req := &eodhd.Request{Op: "eod", Method: "GET", Path: "/eod/AAPL.US"}

		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
		assert.Equal(t, eodhd.CircuitClosed, breaker.State())

		for range 2 {
			require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &eodhd.Response{Attempts: 3, Error: serverDown}))
		}

		assert.Equal(t, eodhd.CircuitOpen, breaker.State())
		require.ErrorIs(t, chain.ExecuteRequestInterceptors(ctx, req), eodhd.ErrCircuitOpen)

		time.Sleep(150 * time.Millisecond)

		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
		assert.Equal(t, eodhd.CircuitHalfOpen, breaker.State())

		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &eodhd.Response{StatusCode: 200, Attempts: 1}))
		assert.Equal(t, eodhd.CircuitClosed, breaker.State())
		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	})

	t.Run("half open failure reopens", func(t *testing.T) {
		t.Parallel()

		breaker := eodhd.NewCircuitBreaker(&eodhd.CircuitBreakerConfig{Threshold: 1, Cooldown: 50 * time.Millisecond})
		request := eodhd.CircuitBreakerRequestInterceptor(breaker)
		response := eodhd.CircuitBreakerResponseInterceptor(breaker)

		ctx := context.Background()
		req := &eodhd.Request{Op: "eod"}

		require.NoError(t, response(ctx, req, &eodhd.Response{Error: serverDown}))
		time.Sleep(80 * time.Millisecond)
		require.NoError(t, request(ctx, req))

		require.NoError(t, response(ctx, req, &eodhd.Response{Error: &eodhd.Error{Kind: eodhd.KindRateLimit, Status: 429}}))
		assert.Equal(t, eodhd.CircuitOpen, breaker.State())
		require.ErrorIs(t, request(ctx, req), eodhd.ErrCircuitOpen)
	})

	t.Run("permanent failures do not count", func(t *testing.T) {
		t.Parallel()

		breaker := eodhd.NewCircuitBreaker(&eodhd.CircuitBreakerConfig{Threshold: 1})
		response := eodhd.CircuitBreakerResponseInterceptor(breaker)

		ctx := context.Background()
		req := &eodhd.Request{Op: "eod"}

		for _, err := range []error{
			&eodhd.Error{Kind: eodhd.KindClient, Status: 404},
			&eodhd.Error{Kind: eodhd.KindValidation, Param: "symbol"},
			&eodhd.Error{Kind: eodhd.KindTransport, Message: eodhd.MsgCancelled},
		} {
			require.NoError(t, response(ctx, req, &eodhd.Response{Error: err}))
		}

		assert.Equal(t, eodhd.CircuitClosed, breaker.State())
	})

	t.Run("success resets the failure run", func(t *testing.T) {
		t.Parallel()

		breaker := eodhd.NewCircuitBreaker(&eodhd.CircuitBreakerConfig{Threshold: 2})
		response := eodhd.CircuitBreakerResponseInterceptor(breaker)

		ctx := context.Background()
		req := &eodhd.Request{Op: "eod"}

		require.NoError(t, response(ctx, req, &eodhd.Response{Error: serverDown}))
		require.NoError(t, response(ctx, req, &eodhd.Response{StatusCode: 200}))
		require.NoError(t, response(ctx, req, &eodhd.Response{Error: serverDown}))

		assert.Equal(t, eodhd.CircuitClosed, breaker.State())
	})
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := eodhd.HeaderInterceptor(map[string]string{"X-Client": "reports"})
	req := &eodhd.Request{Method: "GET", Path: "/exchanges-list"}

	require.NoError(t, interceptor(context.Background(), req))
	assert.Equal(t, "reports", req.Headers.Get("X-Client"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	chain := eodhd.NewInterceptorChain().WithLogging(logger)
	ctx := context.Background()
	req := &eodhd.Request{Op: "eod", Method: "GET", Path: "/eod/MCD.US", Query: "api_token=***&fmt=json"}

	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &eodhd.Response{StatusCode: 200, Attempts: 1}))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &eodhd.Response{StatusCode: 500, Attempts: 3, Error: errors.New("server error")}))

	assert.Equal(t, []string{"API Request", "API Response", "API Response Error"}, logger.messages())
	assert.Equal(t, 3, logger.entries[2].fields["attempts"])
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	collector := eodhd.NewMetricsCollector()
	chain := eodhd.NewInterceptorChain().WithMetrics(collector)
	ctx := context.Background()

	var (
		notifiedEndpoint string
		notifiedMetrics  eodhd.Metrics
	)

	collector.SetOnChange(func(endpoint string, metrics eodhd.Metrics) {
		notifiedEndpoint = endpoint
		notifiedMetrics = metrics
	})

	for _, resp := range []*eodhd.Response{
		{StatusCode: 200, Attempts: 1},
		{StatusCode: 429, Attempts: 3, Error: errors.New("rate limited")},
	} {
		req := &eodhd.Request{Op: "us-extended-quotes", Method: "GET", Path: "/us-quote-delayed"}
		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, resp))
	}

	metrics, ok := collector.GetMetrics("us-extended-quotes")
	require.True(t, ok)
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
	assert.Equal(t, int64(2), metrics.TotalRetries)
	assert.False(t, metrics.LastRequestTime.IsZero())

	assert.Equal(t, "us-extended-quotes", notifiedEndpoint)
	assert.Equal(t, metrics.TotalRequests, notifiedMetrics.TotalRequests)
	assert.Equal(t, []string{"us-extended-quotes"}, collector.Endpoints())

	_, ok = collector.GetMetrics("eod")
	assert.False(t, ok)
}
