// Package backend is the typed client for the ride backend REST API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/richxcame/rider-client/internal/querycache"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/config"
	"github.com/richxcame/rider-client/pkg/httpclient"
	"github.com/richxcame/rider-client/pkg/resilience"
	"go.uber.org/zap"
)

// HTTP is the transport the backend client needs.
type HTTP interface {
	Get(ctx context.Context, path string, headers map[string]string) ([]byte, error)
	Post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error)
	PostWithIdempotency(ctx context.Context, path string, body interface{}, headers map[string]string, key string) ([]byte, error)
}

// Client calls the ride backend. It is safe for concurrent use.
type Client struct {
	http   HTTP
	cache  *querycache.Cache
	logger *zap.Logger
}

// New builds a client over an existing transport.
func New(transport HTTP, cache *querycache.Cache, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: transport, cache: cache, logger: log}
}

// NewFromConfig wires the HTTP client with bearer auth, a circuit breaker and
// opt-in GET retries.
func NewFromConfig(cfg config.APIConfig, token httpclient.TokenSource, cache *querycache.Cache, log *zap.Logger) *Client {
	settings := resilience.BackendSettings(cfg.BreakerName, cfg.BreakerFails)
	settings.IsFailure = httpclient.IsServerFault
	breaker := resilience.NewCircuitBreaker(settings, resilience.LogRejections(log))

	opts := []httpclient.Option{httpclient.WithBreaker(breaker), httpclient.WithTokenSource(token)}
	if cfg.RetryGets {
		opts = append(opts, httpclient.WithDefaultRetry())
	}
	hc := httpclient.NewClient(cfg.BaseURL, cfg.Timeout).With(opts...)
	return New(hc, cache, log)
}

// Cache exposes the query cache so flows can invalidate after their own mutations.
func (c *Client) Cache() *querycache.Cache {
	return c.cache
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	data, err := c.http.Get(ctx, path, nil)
	if err != nil {
		return mapError(err)
	}
	return decode(data, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := c.http.Post(ctx, path, body, nil)
	if err != nil {
		return mapError(err)
	}
	return decode(data, out)
}

func (c *Client) postOnce(ctx context.Context, path, key string, body, out interface{}) error {
	data, err := c.http.PostWithIdempotency(ctx, path, body, nil, key)
	if err != nil {
		return mapError(err)
	}
	return decode(data, out)
}

func decode(data []byte, out interface{}) error {
	if out == nil || len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return common.NewInternalError("unexpected response from server", err)
	}
	return nil
}

// mapError turns transport failures into AppErrors carrying the server's message when present.
func mapError(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return common.NewAppError(http.StatusServiceUnavailable, "Service is temporarily unavailable. Please try again shortly.", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return common.NewAppError(http.StatusServiceUnavailable, "Could not reach the server. Check your connection.", err)
	}

	msg := serverMessage(httpErr.Body)
	if msg == "" {
		msg = http.StatusText(httpErr.StatusCode)
	}
	return common.NewAppError(httpErr.StatusCode, msg, err)
}

func serverMessage(body string) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal([]byte(body), &envelope) != nil {
		return ""
	}
	if len(envelope.Error) > 0 {
		var s string
		if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return envelope.Message
}

func ridePath(rideID string, suffix ...string) string {
	p := "/api/rides/" + url.PathEscape(rideID)
	if len(suffix) > 0 {
		p += "/" + strings.Join(suffix, "/")
	}
	return p
}

func cacheKeyRide(rideID string) string {
	return querycache.Key("rides", rideID)
}

func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return common.NewBadRequestError(fmt.Sprintf("%s is required", name), nil)
	}
	return nil
}
