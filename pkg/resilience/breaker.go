package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is matched by every rejection from an open or half-open breaker.
var ErrCircuitOpen = errors.New("circuit breaker open")

// OpenError is a call rejected without running. RetryIn is the breaker's
// open period, an upper bound on when the next probe is let through.
type OpenError struct {
	Breaker string
	RetryIn time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s: circuit breaker open, retry in %s", e.Breaker, e.RetryIn)
}

// Is makes errors.Is(err, ErrCircuitOpen) hold.
func (e *OpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rider_backend_breaker_state",
		Help: "Breaker state: 0 closed, 0.5 half-open, 1 open",
	}, []string{"breaker"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rider_backend_breaker_calls_total",
		Help: "Backend calls through a breaker by result: ok, failed or rejected",
	}, []string{"breaker", "result"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rider_backend_breaker_state_changes_total",
		Help: "Breaker state transitions",
	}, []string{"breaker", "from", "to"})
)

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	}
	return -1
}

// Settings tunes a circuit breaker.
type Settings struct {
	Name             string
	Interval         time.Duration // closed-state window after which counts reset
	Timeout          time.Duration // how long the breaker stays open
	FailureThreshold uint32        // consecutive failures that open it
	SuccessThreshold uint32        // probes allowed while half-open
	// IsFailure decides which errors count against the breaker. Nil counts every error.
	IsFailure func(err error) bool
}

// BackendSettings are the defaults for the ride backend: the breaker opens
// after failures consecutive server faults and probes again after 30s.
func BackendSettings(name string, failures int) Settings {
	s := Settings{Name: name, FailureThreshold: uint32(max(failures, 0))}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.Name == "" {
		s.Name = "backend"
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	return s
}

// Operation is a unit of work guarded by a breaker or retried.
type Operation func(ctx context.Context) (interface{}, error)

// FallbackFunc decides the result of a rejected call. err is an *OpenError.
type FallbackFunc func(ctx context.Context, err error) (interface{}, error)

// Reject is the default fallback: the call fails with the *OpenError.
func Reject(_ context.Context, err error) (interface{}, error) {
	return nil, err
}

// LogRejections logs each rejected call before failing it, so a silent outage
// is visible next to the rider-facing "temporarily unavailable" message.
func LogRejections(log *zap.Logger) FallbackFunc {
	log = logger.OrNop(log)
	return func(ctx context.Context, err error) (interface{}, error) {
		fields := []zap.Field{zap.Error(err)}
		if id := logger.CorrelationID(ctx); id != "" {
			fields = append(fields, zap.String("correlation_id", id))
		}
		log.Warn("backend call rejected by circuit breaker", fields...)
		return nil, err
	}
}

// CircuitBreaker wraps gobreaker with metrics and a fallback.
type CircuitBreaker struct {
	settings Settings
	cb       *gobreaker.CircuitBreaker
	fallback FallbackFunc
}

// NewCircuitBreaker builds a breaker that opens after FailureThreshold consecutive failures.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	settings = settings.withDefaults()
	if fallback == nil {
		fallback = Reject
	}

	gs := gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.SuccessThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
		IsSuccessful: func(err error) bool {
			switch {
			case err == nil:
				return true
			case errors.Is(err, context.Canceled):
				// the rider gave up; says nothing about the backend
				return true
			case settings.IsFailure != nil:
				return !settings.IsFailure(err)
			}
			return false
		},
	}
	breakerState.WithLabelValues(settings.Name).Set(0)

	return &CircuitBreaker{settings: settings, cb: gobreaker.NewCircuitBreaker(gs), fallback: fallback}
}

// Name returns the metric label of the breaker.
func (b *CircuitBreaker) Name() string {
	return b.settings.Name
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Execute runs op through the breaker. Rejected calls go to the fallback.
func (b *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := b.cb.Execute(func() (interface{}, error) { return op(ctx) })
	switch {
	case err == nil:
		breakerCalls.WithLabelValues(b.settings.Name, "ok").Inc()
		return result, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		breakerCalls.WithLabelValues(b.settings.Name, "rejected").Inc()
		return b.fallback(ctx, &OpenError{Breaker: b.settings.Name, RetryIn: b.settings.Timeout})
	default:
		breakerCalls.WithLabelValues(b.settings.Name, "failed").Inc()
		return nil, err
	}
}
