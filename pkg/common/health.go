package common

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultCheckTimeout bounds each dependency probe of a readiness request.
const DefaultCheckTimeout = 3 * time.Second

// HealthResponse is the body of /healthz and /readyz
type HealthResponse struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency probe
type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthCheck returns a liveness handler
func HealthCheck(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: serviceName, Version: version})
	}
}

// HealthCheckWithDeps returns a readiness handler. Checks run concurrently,
// each under DefaultCheckTimeout; any failure makes the response a 503.
func HealthCheckWithDeps(serviceName, version string, checks map[string]func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := RunChecks(c.Request.Context(), checks, DefaultCheckTimeout)

		status, code := "healthy", http.StatusOK
		for _, r := range results {
			if r.Status != "healthy" {
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(code, HealthResponse{Status: status, Service: serviceName, Version: version, Checks: results})
	}
}

// RunChecks probes every dependency concurrently.
func RunChecks(ctx context.Context, checks map[string]func(ctx context.Context) error, timeout time.Duration) map[string]CheckResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check func(ctx context.Context) error) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := check(cctx)
			r := CheckResult{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				r.Status = "unhealthy"
				r.Error = err.Error()
			}
			mu.Lock()
			results[name] = r
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	return results
}
