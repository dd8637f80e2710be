package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/rider-client/pkg/resilience"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 30 * time.Second

// IdempotencyHeader is sent on mutating requests that must not be applied twice.
const IdempotencyHeader = "Idempotency-Key"

// TokenSource returns the bearer token attached to every request.
type TokenSource func(ctx context.Context) (string, error)

// Client is a small JSON-over-HTTP client for the ride backend.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig *resilience.RetryConfig
	breaker     *resilience.CircuitBreaker
	tokens      TokenSource
	userAgent   string
	tracer      trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a client. The first timeout wins; zero means the default.
func NewClient(baseURL string, timeout ...time.Duration) *Client {
	t := defaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		t = timeout[0]
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: t},
		userAgent:  "rider-client/1.0",
		tracer:     otel.Tracer("github.com/richxcame/rider-client/pkg/httpclient"),
	}
}

// With applies options and returns the client.
func (c *Client) With(opts ...Option) *Client {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithRetry enables retries for idempotent GET requests.
func WithRetry(config resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retryConfig = &config
	}
}

// WithDefaultRetry enables GET retries on transport errors and retryable statuses.
func WithDefaultRetry() Option {
	cfg := resilience.PollingRetryConfig()
	cfg.RetryableChecker = isHTTPRetryable
	return WithRetry(cfg)
}

// WithBreaker routes every request through breaker.
func WithBreaker(breaker *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = breaker
	}
}

// WithTokenSource sets the bearer token provider.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// WithStaticToken sets a fixed bearer token.
func WithStaticToken(token string) Option {
	return WithTokenSource(func(context.Context) (string, error) { return token, nil })
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	if c.retryConfig == nil {
		return c.do(ctx, http.MethodGet, path, nil, headers)
	}
	send := func(ctx context.Context) (interface{}, error) {
		return c.send(ctx, http.MethodGet, path, nil, headers)
	}
	var (
		res interface{}
		err error
	)
	if c.breaker != nil {
		res, err = resilience.RetryWithBreaker(ctx, *c.retryConfig, c.breaker, send)
	} else {
		res, err = resilience.Retry(ctx, *c.retryConfig, send)
	}
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// Post sends body as JSON. Mutations are never retried.
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body, headers)
}

// PostWithIdempotency sends body with an Idempotency-Key header. An empty key gets a fresh UUID.
func (c *Client) PostWithIdempotency(ctx context.Context, path string, body interface{}, headers map[string]string, key string) ([]byte, error) {
	if key == "" {
		key = uuid.NewString()
	}
	merged := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		merged[k] = v
	}
	merged[IdempotencyHeader] = key
	return c.do(ctx, http.MethodPost, path, body, merged)
}

// GetJSON performs a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	data, err := c.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	return decode(data, out)
}

// PostJSON posts body and decodes the response into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := c.Post(ctx, path, body, nil)
	if err != nil {
		return err
	}
	return decode(data, out)
}

func decode(data []byte, out interface{}) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string) ([]byte, error) {
	send := func(ctx context.Context) (interface{}, error) {
		return c.send(ctx, method, path, body, headers)
	}
	if c.breaker == nil {
		res, err := send(ctx)
		if err != nil {
			return nil, err
		}
		return res.([]byte), nil
	}
	res, err := c.breaker.Execute(ctx, send)
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}, headers map[string]string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// IsServerFault reports whether err should count against the breaker.
// Client errors (4xx other than 408/429) are the caller's fault and do not.
func IsServerFault(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return resilience.IsRetryableHTTPStatus(httpErr.StatusCode)
	}
	return !errors.Is(err, context.Canceled)
}

func isHTTPRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return resilience.IsRetryableHTTPStatus(httpErr.StatusCode)
	}
	return true
}
