package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCorrelationID_GeneratesAndPropagates(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationID())

	var fromCtx string
	r.GET("/return", func(c *gin.Context) {
		fromCtx = logger.CorrelationID(c.Request.Context())
		assert.Equal(t, fromCtx, GetCorrelationID(c))
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/return", nil))

	assert.Len(t, fromCtx, 36)
	assert.Equal(t, fromCtx, w.Header().Get(CorrelationIDHeader))
}

func TestCorrelationID_IncomingHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"request id", map[string]string{CorrelationIDHeader: "req-1"}, "req-1"},
		{"alternate header", map[string]string{AltCorrelationIDHeader: "corr.2"}, "corr.2"},
		{"request id wins", map[string]string{CorrelationIDHeader: "a", AltCorrelationIDHeader: "b"}, "a"},
		{"unsafe falls through", map[string]string{CorrelationIDHeader: "x\ny", AltCorrelationIDHeader: "ok_3"}, "ok_3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CorrelationID())
			r.GET("/return", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/return", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := serve(r, req)
			assert.Equal(t, tt.want, w.Header().Get(CorrelationIDHeader))
		})
	}
}

func TestCorrelationID_TooLongIsReplaced(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationID())
	r.GET("/return", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/return", nil)
	req.Header.Set(CorrelationIDHeader, strings.Repeat("a", 65))
	w := serve(r, req)

	assert.Len(t, w.Header().Get(CorrelationIDHeader), 36)
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)), CorrelationID(), RequestLogger(nil), Metrics())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(CorrelationIDHeader, "req-9")
	w := serve(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "payment return could not be processed")
	assert.Contains(t, w.Body.String(), `"correlation_id":"req-9"`)
	assert.Equal(t, 1, logs.FilterMessage("callback handler panicked").Len())
}

func TestRequestLogger_OmitsQueryValues(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/return", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/return?pspReference=PSP-SECRET&rideId=r1", nil))

	entries := logs.FilterMessage("callback request").All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, []interface{}{"pspReference", "rideId"}, ctx["params"])
		for k, v := range ctx {
			if s, ok := v.(string); ok {
				assert.NotContains(t, s, "PSP-SECRET", k)
			}
		}
	}
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusOK))
	assert.Equal(t, "3xx", statusClass(http.StatusSeeOther))
	assert.Equal(t, "5xx", statusClass(http.StatusGatewayTimeout))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/return", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/return", nil))

	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
