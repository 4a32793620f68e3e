// Package http is the transport used by the content clients: a retrying HTTP
// client that presents the site credential, runs interceptors, and maps
// non-success responses to *content.FetchError.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/hashicorp/go-retryablehttp"
)

// Client performs authenticated requests against the content API.
type Client struct {
	baseURL      string
	credential   string
	httpClient   *retryablehttp.Client
	logger       content.Logger
	debug        bool
	userAgent    string
	interceptors *content.InterceptorChain
}

// Request describes one exchange. URL may be absolute or a path joined to
// the client's base URL; its query string is sent exactly as given.
type Request struct {
	Method  string
	URL     string
	Body    interface{}
	Headers map[string]string
	// Credential overrides the client's credential for this exchange.
	Credential string
}

// Response holds a fully read response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug and retry diagnostics.
func WithLogger(logger content.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = leveledLogger{logger: logger}
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets how connection failures are retried. HTTP error
// statuses are never retried. A negative retryMax disables retries.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		if retryMax < 0 {
			retryMax = 0
		}

		c.httpClient.RetryMax = retryMax

		if waitMin > 0 {
			c.httpClient.RetryWaitMin = waitMin
		}

		if waitMax > 0 {
			c.httpClient.RetryWaitMax = waitMax
		}
	}
}

// WithTimeout bounds a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithInterceptors runs chain around every exchange.
func WithInterceptors(chain *content.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithHTTPClient replaces the underlying *http.Client, e.g. to install a
// custom transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// NewClient creates a client presenting credential as a bearer token. baseURL
// may be empty when every request carries an absolute URL.
func NewClient(baseURL, credential string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.CheckRetry = connectionErrorsOnly
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
		httpClient: retryClient,
		logger:     content.NopLogger{},
		userAgent:  constants.UserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// connectionErrorsOnly retries transport failures and never a response.
func connectionErrorsOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err == nil {
		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Do executes req. On a non-success status both the response and a
// *content.FetchError are returned.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	target := c.resolveURL(req.URL)

	intercepted := &content.Request{
		Method: req.Method,
		URL:    target,
		Header: make(http.Header),
	}

	for key, value := range req.Headers {
		intercepted.Header.Set(key, value)
	}

	if c.interceptors != nil {
		err := c.interceptors.BeforeRequest(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	credential := c.credential
	if req.Credential != "" {
		credential = req.Credential
	}

	httpReq.Header.Set("Authorization", "Bearer "+credential)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, values := range intercepted.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    target,
		})
	}

	resp, err := c.execute(httpReq)
	if err != nil {
		_ = c.runResponseInterceptors(ctx, intercepted, &content.Response{Err: err})

		return nil, fmt.Errorf("executing request: %w", err)
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    target,
			"bytes":  len(resp.Body),
		})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		fetchErr := content.NewFetchError(resp.StatusCode, resp.Body, target)
		_ = c.runResponseInterceptors(ctx, intercepted, &content.Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Headers,
			Body:       resp.Body,
			Err:        fetchErr,
		})

		return resp, fetchErr
	}

	err = c.runResponseInterceptors(ctx, intercepted, &content.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Headers,
		Body:       resp.Body,
	})
	if err != nil {
		return resp, err
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    url,
	})
}

// Post performs a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, url string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    url,
		Body:   body,
	})
}

func (c *Client) execute(httpReq *retryablehttp.Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}, nil
}

func (c *Client) runResponseInterceptors(ctx context.Context, req *content.Request, resp *content.Response) error {
	if c.interceptors == nil {
		return nil
	}

	return c.interceptors.AfterResponse(ctx, req, resp)
}

func (c *Client) resolveURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}

	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}

	return c.baseURL + target
}

func encodeBody(body interface{}) ([]byte, error) {
	switch value := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	case json.RawMessage:
		return value, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return data, nil
}

// leveledLogger routes retryablehttp diagnostics to a content.Logger.
type leveledLogger struct {
	logger content.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsOf(keysAndValues))
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsOf(keysAndValues))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsOf(keysAndValues))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsOf(keysAndValues))
}

func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2) //nolint:mnd // key/value pairs

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
