package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richxcame/rider-client/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Timeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout []time.Duration
		want    time.Duration
	}{
		{"default", nil, defaultTimeout},
		{"custom", []time.Duration{5 * time.Second}, 5 * time.Second},
		{"zero uses default", []time.Duration{0}, defaultTimeout},
		{"first wins", []time.Duration{10 * time.Second, 20 * time.Second}, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("https://api.example.com", tt.timeout...)
			assert.Equal(t, "https://api.example.com", c.BaseURL())
			assert.Equal(t, tt.want, c.httpClient.Timeout)
		})
	}
}

func TestWithDefaultRetry_SetsChecker(t *testing.T) {
	c := NewClient("https://api.example.com").With(WithDefaultRetry())
	require.NotNil(t, c.retryConfig)
	assert.NotNil(t, c.retryConfig.RetryableChecker)
}

func TestClient_GetSendsTokenAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/rides/r1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "yes", r.Header.Get("X-Trace"))
		w.Write([]byte(`{"id":"r1"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL).With(WithStaticToken("tok"))
	body, err := c.Get(context.Background(), "/api/rides/r1", map[string]string{"X-Trace": "yes"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"r1"}`, string(body))
}

func TestClient_NonSuccessReturnsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"ride not found"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Get(context.Background(), "/api/rides/missing", nil)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "ride not found")
}

func TestClient_PostEncodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "too long", body["reason"])
		w.Write([]byte(`{"status":"cancelled"}`))
	}))
	defer server.Close()

	var out struct {
		Status string `json:"status"`
	}
	err := NewClient(server.URL).PostJSON(context.Background(), "/api/rides/r1/cancel", map[string]string{"reason": "too long"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
}

func TestClient_PostWithIdempotency(t *testing.T) {
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get(IdempotencyHeader))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.PostWithIdempotency(context.Background(), "/api/rides/r1/finish", nil, nil, "finish-r1")
	require.NoError(t, err)
	_, err = c.PostWithIdempotency(context.Background(), "/api/rides/r1/finish", nil, nil, "")
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.Equal(t, "finish-r1", keys[0])
	assert.NotEmpty(t, keys[1])
}

func TestClient_RetryOnlyAppliesToGet(t *testing.T) {
	var gets, posts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if atomic.AddInt32(&gets, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{}`))
			return
		}
		atomic.AddInt32(&posts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, RetryableChecker: isHTTPRetryable}
	c := NewClient(server.URL).With(WithRetry(cfg))

	_, err := c.Get(context.Background(), "/api/rides/r1", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets))

	_, err = c.Post(context.Background(), "/api/rides/r1/finish", nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))
}

func TestClient_BreakerIgnoresClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	breaker := resilience.NewCircuitBreaker(resilience.Settings{
		Name:             "httpclient-test",
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
		IsFailure:        IsServerFault,
	}, nil)
	c := NewClient(server.URL).With(WithBreaker(breaker))

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), "/bad", nil)
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
	}

	_, _ = c.Get(context.Background(), "/down", nil)
	_, _ = c.Get(context.Background(), "/down", nil)
	_, err := c.Get(context.Background(), "/bad", nil)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestClient_TokenSourceError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1").With(WithTokenSource(func(context.Context) (string, error) {
		return "", errors.New("vault sealed")
	}))
	_, err := c.Get(context.Background(), "/api/rides", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault sealed")
}

func TestIsHTTPRetryable(t *testing.T) {
	assert.False(t, isHTTPRetryable(nil))
	assert.False(t, isHTTPRetryable(context.Canceled))
	assert.False(t, isHTTPRetryable(&HTTPError{StatusCode: 400}))
	assert.True(t, isHTTPRetryable(&HTTPError{StatusCode: 503}))
	assert.True(t, isHTTPRetryable(io.ErrUnexpectedEOF))
}

func TestClient_RetriedGetsPassThroughBreaker(t *testing.T) {
	var gets int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&gets, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	breaker := resilience.NewCircuitBreaker(resilience.Settings{
		Name:             "httpclient-retry-test",
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
		IsFailure:        IsServerFault,
	}, nil)
	cfg := resilience.RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, RetryableChecker: isHTTPRetryable}
	c := NewClient(server.URL).With(WithBreaker(breaker), WithRetry(cfg))

	// each attempt counts against the breaker, and an open breaker ends the retries
	_, err := c.Get(context.Background(), "/api/rides/r1", nil)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets))
}
