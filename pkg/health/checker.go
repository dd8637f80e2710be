// Package health builds the readiness probes of the callback server.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Check reports the health of one dependency. Callers bound it with a deadline.
type Check func(ctx context.Context) error

// Redis pings the shared query cache.
func Redis(client *redis.Client) Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Backend issues a GET against the ride backend. Any status below 500 means
// the backend is reachable, which is all the payment return needs.
func Backend(url string, client *http.Client) Check {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%s returned %d", url, resp.StatusCode)
		}
		return nil
	}
}

// Cached remembers the last result of check for ttl so frequent readiness
// probes do not turn into backend traffic.
func Cached(check Check, ttl time.Duration) Check {
	var (
		mu      sync.Mutex
		last    error
		checked time.Time
	)
	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if !checked.IsZero() && time.Since(checked) < ttl {
			return last
		}
		last = check(ctx)
		checked = time.Now()
		return last
	}
}
