// Package logger configures the process-wide zap logger. The rider CLI writes
// its own output to stdout, so log lines always go to stderr.
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

type ctxKey int

const (
	correlationIDKey ctxKey = iota
	rideIDKey
)

// New builds a logger for environment. level overrides the default, which is
// info in production and warn elsewhere so interactive use stays readable.
func New(environment, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Init sets the global logger
func Init(environment, level string) error {
	l, err := New(environment, level)
	if err != nil {
		return err
	}
	log = l
	return nil
}

// Get returns the global logger, or a no-op one before Init.
func Get() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// ContextWithCorrelationID stores an id that WithContext attaches to log lines.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithRideID stores the ride being worked on.
func ContextWithRideID(ctx context.Context, rideID string) context.Context {
	return context.WithValue(ctx, rideIDKey, rideID)
}

// CorrelationID returns the correlation id stored in ctx, if any.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// RideID returns the ride id stored in ctx, if any.
func RideID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(rideIDKey).(string)
	return id
}

// WithContext returns the global logger with the request and ride ids of ctx.
func WithContext(ctx context.Context) *zap.Logger {
	l := Get()
	if id := CorrelationID(ctx); id != "" {
		l = l.With(zap.String("correlation_id", id))
	}
	if id := RideID(ctx); id != "" {
		l = l.With(zap.String("ride_id", id))
	}
	return l
}

// Info logs on the global logger
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Warn logs on the global logger
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Sync flushes buffered entries
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}
