package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callbackRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rider_callback_requests_total",
			Help: "Requests served by the local callback server, by route and status class",
		},
		[]string{"route", "class"},
	)

	callbackRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "rider_callback_request_duration_seconds",
			Help: "Callback request latency. Payment returns wait for ride confirmation",
			// returns can block for the whole confirmation window
			Buckets: []float64{.01, .05, .25, 1, 2.5, 5, 10, 20, 45},
		},
		[]string{"route"},
	)

	callbackInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rider_callback_requests_in_flight",
		Help: "Callback requests currently being served",
	})
)

// Metrics records request counts and latency per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		callbackInFlight.Inc()
		defer callbackInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		callbackRequestsTotal.WithLabelValues(route, statusClass(c.Writer.Status())).Inc()
		callbackRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
