package common

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunChecks(t *testing.T) {
	results := RunChecks(context.Background(), map[string]func(ctx context.Context) error{
		"redis":   func(context.Context) error { return nil },
		"backend": func(context.Context) error { return errors.New("connection refused") },
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, 20*time.Millisecond)

	require.Len(t, results, 3)
	assert.Equal(t, "healthy", results["redis"].Status)
	assert.Equal(t, "unhealthy", results["backend"].Status)
	assert.Equal(t, "connection refused", results["backend"].Error)
	assert.Equal(t, "unhealthy", results["slow"].Status)
	assert.Contains(t, results["slow"].Error, "deadline")
}

func TestHealthCheckWithDeps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/readyz", HealthCheckWithDeps("rider", "test", map[string]func(ctx context.Context) error{
		"redis": func(context.Context) error { return nil },
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["redis"].Status)
}

func TestAppErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name      string
		err       error
		code      int
		retryable bool
	}{
		{"app error", NewConflictError("already paid"), http.StatusConflict, false},
		{"retryable", NewServiceUnavailableError("backend down"), http.StatusServiceUnavailable, true},
		{"plain error", errors.New("nil pointer"), http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Set("correlation_id", "req-1")

			AppErrorResponse(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.retryable, body.Error.Retryable)
			assert.Equal(t, "req-1", body.Error.CorrelationID)
			assert.NotContains(t, body.Error.Message, "nil pointer")
		})
	}
}
