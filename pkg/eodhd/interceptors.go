package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fivetwenty-io/eodhd/internal/constants"
)

// Request is the view of an outgoing call handed to request interceptors.
// Query is the redacted query string; interceptors never see the credential.
type Request struct {
	Op        string
	Method    string
	Path      string
	Query     string
	RequestID string
	Headers   http.Header
	Metadata  map[string]interface{}
}

// Response is the final outcome of a call handed to response interceptors.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Attempts   int
	Error      error
}

// RequestInterceptor is called once before the first attempt.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called once after the last attempt.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	mutex                sync.RWMutex
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors runs all request interceptors in order.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	c.mutex.RLock()
	interceptors := append([]RequestInterceptor(nil), c.requestInterceptors...)
	c.mutex.RUnlock()

	for _, interceptor := range interceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors in order.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	c.mutex.RLock()
	interceptors := append([]ResponseInterceptor(nil), c.responseInterceptors...)
	c.mutex.RUnlock()

	for _, interceptor := range interceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("API Request", map[string]interface{}{
			"op":         req.Op,
			"method":     req.Method,
			"path":       req.Path,
			"request_id": req.RequestID,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"op":          req.Op,
			"path":        req.Path,
			"status_code": resp.StatusCode,
			"attempts":    resp.Attempts,
			"request_id":  req.RequestID,
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// Metrics are the counters kept per endpoint.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalRetries    int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector collects per-endpoint call metrics. It is safe for
// concurrent use.
type MetricsCollector struct {
	mutex    sync.Mutex
	metrics  map[string]*Metrics
	onChange func(endpoint string, metrics Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// SetOnChange sets a callback for when metrics change. The callback receives a copy.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot of the metrics for an endpoint.
func (m *MetricsCollector) GetMetrics(endpoint string) (Metrics, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if metrics, ok := m.metrics[endpoint]; ok {
		return *metrics, true
	}

	return Metrics{}, false
}

// Endpoints returns the endpoint names seen so far.
func (m *MetricsCollector) Endpoints() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	names := make([]string, 0, len(m.metrics))
	for name := range m.metrics {
		names = append(names, name)
	}

	return names
}

func (m *MetricsCollector) record(endpoint string, latency time.Duration, failed bool, attempts int) {
	m.mutex.Lock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		metrics = &Metrics{}
		m.metrics[endpoint] = metrics
	}

	metrics.TotalRequests++
	metrics.LastRequestTime = time.Now()

	if latency > 0 {
		metrics.TotalLatency += latency
		metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
	}

	if failed {
		metrics.TotalErrors++
	}

	if attempts > 1 {
		metrics.TotalRetries += int64(attempts - 1)
	}

	snapshot := *metrics
	onChange := m.onChange

	m.mutex.Unlock()

	if onChange != nil {
		onChange(endpoint, snapshot)
	}
}

const metadataStartTime = "start_time"

// MetricsRequestInterceptor records request start time.
func MetricsRequestInterceptor(collector *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[metadataStartTime] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records response metrics keyed by endpoint name.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		var latency time.Duration

		if startTime, ok := req.Metadata[metadataStartTime].(time.Time); ok {
			latency = time.Since(startTime)
		}

		failed := resp.Error != nil || resp.StatusCode >= http.StatusBadRequest
		collector.record(req.Op, latency, failed, resp.Attempts)

		return nil
	}
}

// WithMetrics registers both metrics interceptors on the chain.
func (c *InterceptorChain) WithMetrics(collector *MetricsCollector) *InterceptorChain {
	c.AddRequestInterceptor(MetricsRequestInterceptor(collector))
	c.AddResponseInterceptor(MetricsResponseInterceptor(collector))

	return c
}

// WithLogging registers both logging interceptors on the chain.
func (c *InterceptorChain) WithLogging(logger Logger) *InterceptorChain {
	c.AddRequestInterceptor(LoggingInterceptor(logger))
	c.AddResponseInterceptor(LoggingResponseInterceptor(logger))

	return c
}

// CircuitState is the state of a CircuitBreaker.
type CircuitState string

// Circuit states.
const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half-open"
)

// CircuitBreakerConfig tunes a CircuitBreaker. Zero fields take their defaults.
type CircuitBreakerConfig struct {
	Threshold        int           // transient failures in a row before opening
	Cooldown         time.Duration // time open before a trial call
	SuccessThreshold int           // successes in a row to close again
}

// CircuitBreaker stops calls after repeated transient failures. Only
// outcomes for which IsTemporary holds count as failures, so a bad
// symbol or a cancelled call never opens the circuit. It is safe for
// concurrent use.
type CircuitBreaker struct {
	mutex     sync.Mutex
	config    CircuitBreakerConfig
	failures  int
	successes int
	state     CircuitState
	openedAt  time.Time
	now       func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	breaker := &CircuitBreaker{
		config: CircuitBreakerConfig{
			Threshold:        constants.CircuitBreakerThreshold,
			Cooldown:         constants.CircuitBreakerCooldown,
			SuccessThreshold: constants.CircuitBreakerSuccessThreshold,
		},
		state: CircuitClosed,
		now:   time.Now,
	}

	if config != nil {
		if config.Threshold > 0 {
			breaker.config.Threshold = config.Threshold
		}

		if config.Cooldown > 0 {
			breaker.config.Cooldown = config.Cooldown
		}

		if config.SuccessThreshold > 0 {
			breaker.config.SuccessThreshold = config.SuccessThreshold
		}
	}

	return breaker
}

// State reports the current state.
func (b *CircuitBreaker) State() CircuitState {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.state
}

func (b *CircuitBreaker) allow() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.state != CircuitOpen {
		return nil
	}

	if b.now().Sub(b.openedAt) < b.config.Cooldown {
		return ErrCircuitOpen
	}

	b.state = CircuitHalfOpen
	b.successes = 0

	return nil
}

func (b *CircuitBreaker) record(resp *Response) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if resp.Error != nil && !IsTemporary(resp.Error) {
		return
	}

	if resp.Error != nil {
		b.failures++
		b.successes = 0

		if b.state == CircuitHalfOpen || b.failures >= b.config.Threshold {
			b.state = CircuitOpen
			b.openedAt = b.now()
		}

		return
	}

	switch b.state {
	case CircuitHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.state = CircuitClosed
			b.failures = 0
		}
	case CircuitClosed:
		b.failures = 0
	case CircuitOpen:
	}
}

// CircuitBreakerRequestInterceptor rejects calls while the circuit is open.
func CircuitBreakerRequestInterceptor(breaker *CircuitBreaker) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		return breaker.allow()
	}
}

// CircuitBreakerResponseInterceptor feeds each call outcome to the breaker.
// A call counts once however many attempts it took.
func CircuitBreakerResponseInterceptor(breaker *CircuitBreaker) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		breaker.record(resp)

		return nil
	}
}

// WithCircuitBreaker registers both circuit breaker interceptors on the chain.
func (c *InterceptorChain) WithCircuitBreaker(breaker *CircuitBreaker) *InterceptorChain {
	c.AddRequestInterceptor(CircuitBreakerRequestInterceptor(breaker))
	c.AddResponseInterceptor(CircuitBreakerResponseInterceptor(breaker))

	return c
}
