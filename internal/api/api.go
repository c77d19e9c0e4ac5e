package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mtf-trading-bot/internal/logger"
)

// Client is a JSON HTTP client shared by the market-data and text-generation
// collaborators.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	useLogging bool
}

// HTTPError is returned for any response with status >= 400.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// ClientOption configures the API client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL sets the base URL for all requests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeader sets a default header for all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogging enables request/response debug logs
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Request represents an HTTP request configuration
type Request struct {
	Method  string
	URL     string
	Body    any
	Headers map[string]string
	ctx     context.Context
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

func NewRequest(method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(map[string]string),
		ctx:     context.Background(),
	}
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// WithBody sets the request body (will be JSON encoded)
func (r *Request) WithBody(body any) *Request {
	r.Body = body
	return r
}

func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) WithHeaders(headers map[string]string) *Request {
	for k, v := range headers {
		r.Headers[k] = v
	}
	return r
}

// Do executes the HTTP request
func (c *Client) Do(req *Request) (*Response, error) {
	url := req.URL
	if c.baseURL != "" {
		url = c.baseURL + req.URL
	}

	var bodyReader io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(req.ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}
	// request headers override defaults
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.useLogging {
		logger.Debug(req.ctx, "HTTP Request", "method", req.Method, "url", url)
	}

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.useLogging {
		logger.Debug(req.ctx, "HTTP Response",
			"method", req.Method,
			"url", url,
			"status", httpResp.StatusCode,
			"duration_ms", time.Since(startTime).Milliseconds(),
			"body_size", len(body))
	}

	if httpResp.StatusCode >= 400 {
		if c.useLogging {
			logger.Warn(req.ctx, "HTTP error response", "method", req.Method, "url", url, "status", httpResp.StatusCode)
		}
		return nil, &HTTPError{StatusCode: httpResp.StatusCode, Body: string(body)}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

// GET performs a GET request
func (c *Client) GET(ctx context.Context, url string, headers ...map[string]string) (*Response, error) {
	req := NewRequest(http.MethodGet, url).WithContext(ctx)
	if len(headers) > 0 {
		req.WithHeaders(headers[0])
	}
	return c.Do(req)
}

// POST performs a JSON POST request
func (c *Client) POST(ctx context.Context, url string, body any, headers ...map[string]string) (*Response, error) {
	req := NewRequest(http.MethodPost, url).WithContext(ctx).WithBody(body)
	if len(headers) > 0 {
		req.WithHeaders(headers[0])
	}
	return c.Do(req)
}

// ParseJSON parses the response body as JSON into the given struct
func (r *Response) ParseJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

func (r *Response) String() string {
	return string(r.Body)
}

// YahooFinanceHeaders returns headers accepted by the Yahoo chart API
func YahooFinanceHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}
}

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Second,
		MaxWait:     5 * time.Second,
	}
}

// DoWithRetry retries transport errors, 429 and 5xx with exponential backoff.
// Other HTTP errors return immediately.
func (c *Client) DoWithRetry(req *Request, config *RetryConfig) (*Response, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	waitTime := config.InitialWait
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		resp, err := c.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var he *HTTPError
		if errors.As(err, &he) && !he.Retryable() {
			return nil, err
		}
		if attempt == config.MaxAttempts {
			break
		}
		if c.useLogging {
			logger.Warn(req.ctx, "Request failed, retrying", "attempt", attempt, "error", err, "wait", waitTime)
		}

		select {
		case <-req.ctx.Done():
			return nil, req.ctx.Err()
		case <-time.After(waitTime):
		}
		waitTime = min(waitTime*2, config.MaxWait)
	}

	return nil, fmt.Errorf("all %d retry attempts failed: %w", config.MaxAttempts, lastErr)
}
