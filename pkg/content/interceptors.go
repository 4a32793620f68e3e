package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Request is the view of an outgoing content request seen by interceptors.
// Header values added by request hooks are sent with the request.
type Request struct {
	Method string
	URL    string
	Header http.Header

	startedAt time.Time
}

// Response is the outcome of a content request. Err is set when the
// exchange failed or the server answered with an error status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

// RequestHook runs before a request is sent. Returning an error aborts the
// request.
type RequestHook func(ctx context.Context, req *Request) error

// ResponseHook runs after every exchange, including failed ones.
type ResponseHook func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain holds the hooks run around each HTTP exchange, in the
// order they were added.
type InterceptorChain struct {
	before []RequestHook
	after  []ResponseHook
}

// NewInterceptorChain creates an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// OnRequest appends a request hook.
func (c *InterceptorChain) OnRequest(hook RequestHook) *InterceptorChain {
	c.before = append(c.before, hook)

	return c
}

// OnResponse appends a response hook.
func (c *InterceptorChain) OnResponse(hook ResponseHook) *InterceptorChain {
	c.after = append(c.after, hook)

	return c
}

// BeforeRequest runs the request hooks, stopping at the first error.
func (c *InterceptorChain) BeforeRequest(ctx context.Context, req *Request) error {
	req.startedAt = time.Now()

	for _, hook := range c.before {
		if err := hook(ctx, req); err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// AfterResponse runs the response hooks, stopping at the first error.
func (c *InterceptorChain) AfterResponse(ctx context.Context, req *Request, resp *Response) error {
	for _, hook := range c.after {
		if err := hook(ctx, req, resp); err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// RequestLogger logs each request at debug level.
func RequestLogger(logger Logger) RequestHook {
	return func(_ context.Context, req *Request) error {
		logger.Debug("Content Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		})

		return nil
	}
}

// ResponseLogger logs each response, failures at error level.
func ResponseLogger(logger Logger) ResponseHook {
	return func(_ context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL,
			"status_code": resp.StatusCode,
		}

		if resp.Err == nil {
			logger.Debug("Content Response", fields)

			return nil
		}

		fields["error"] = resp.Err.Error()
		logger.Error("Content Response Error", fields)

		return nil
	}
}

// StaticHeaders sets the given headers on every request.
func StaticHeaders(headers map[string]string) RequestHook {
	return func(_ context.Context, req *Request) error {
		if req.Header == nil {
			req.Header = make(http.Header, len(headers))
		}

		for name, value := range headers {
			req.Header.Set(name, value)
		}

		return nil
	}
}

// Metrics counts the exchanges of one endpoint.
type Metrics struct {
	Requests     int64
	Errors       int64
	TotalLatency time.Duration
	LastStatus   int
	LastRequest  time.Time
}

// AverageLatency is TotalLatency spread over Requests.
func (m Metrics) AverageLatency() time.Duration {
	if m.Requests == 0 {
		return 0
	}

	return m.TotalLatency / time.Duration(m.Requests)
}

// MetricsCollector aggregates Metrics per endpoint, keyed by EndpointKey.
// Tests use it to count network calls.
type MetricsCollector struct {
	mu        sync.Mutex
	endpoints map[string]*Metrics
	onChange  func(endpoint string, metrics Metrics)
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{endpoints: make(map[string]*Metrics)}
}

// SetOnChange registers fn to receive a snapshot after every recorded
// exchange. fn runs outside the collector's lock.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// GetMetrics returns a snapshot for endpoint, or nil if it was never called.
func (m *MetricsCollector) GetMetrics(endpoint string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.endpoints[endpoint]
	if !ok {
		return nil
	}

	snapshot := *metrics

	return &snapshot
}

// TotalRequests sums Requests over every endpoint.
func (m *MetricsCollector) TotalRequests() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, metrics := range m.endpoints {
		total += metrics.Requests
	}

	return total
}

// Reset forgets every endpoint.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	m.endpoints = make(map[string]*Metrics)
	m.mu.Unlock()
}

// ResponseHook returns the hook that records each exchange.
func (m *MetricsCollector) ResponseHook() ResponseHook {
	return func(_ context.Context, req *Request, resp *Response) error {
		var latency time.Duration
		if !req.startedAt.IsZero() {
			latency = time.Since(req.startedAt)
		}

		failed := resp.Err != nil || resp.StatusCode >= http.StatusBadRequest
		m.record(EndpointKey(req.Method, req.URL), resp.StatusCode, latency, failed)

		return nil
	}
}

func (m *MetricsCollector) record(endpoint string, status int, latency time.Duration, failed bool) {
	m.mu.Lock()

	metrics, ok := m.endpoints[endpoint]
	if !ok {
		metrics = &Metrics{}
		m.endpoints[endpoint] = metrics
	}

	metrics.Requests++
	metrics.TotalLatency += latency
	metrics.LastStatus = status
	metrics.LastRequest = time.Now()

	if failed {
		metrics.Errors++
	}

	snapshot := *metrics
	onChange := m.onChange

	m.mu.Unlock()

	if onChange != nil {
		onChange(endpoint, snapshot)
	}
}

// WithMetrics records every exchange of the chain in collector.
func (c *InterceptorChain) WithMetrics(collector *MetricsCollector) *InterceptorChain {
	return c.OnResponse(collector.ResponseHook())
}

// EndpointKey is "METHOD /path", dropping scheme, host and query so that
// facet requests for one environment share a key.
func EndpointKey(method, rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		return method + " " + parsed.Path
	}

	return method + " " + rawURL
}
