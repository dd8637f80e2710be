package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

// LogSink writes notifications to the structured log.
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, n Notification) {
	l := logger.WithContext(ctx)
	fields := []zap.Field{zap.String("level", string(n.Level)), zap.String("body", n.Body)}
	if n.Err != nil {
		l.Warn("rider notified of failure", append(fields, zap.Error(n.Err))...)
		return
	}
	l.Debug("rider notified", fields...)
}

// SentrySink reports error notifications to Sentry.
type SentrySink struct {
	Hub *sentry.Hub
}

func (s SentrySink) Deliver(ctx context.Context, n Notification) {
	if n.Level != LevelError || n.Err == nil {
		return
	}
	hub := s.Hub
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if id := logger.CorrelationID(ctx); id != "" {
			scope.SetTag("correlation_id", id)
		}
		hub.CaptureException(n.Err)
	})
}

// WriterSink prints notifications for a terminal.
type WriterSink struct {
	mu sync.Mutex
	W  io.Writer
}

func (s *WriterSink) Deliver(_ context.Context, n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Title != "" {
		fmt.Fprintf(s.W, "[%s] %s: %s\n", n.Level, n.Title, n.Body)
		return
	}
	fmt.Fprintf(s.W, "[%s] %s\n", n.Level, n.Body)
}

// MemorySink keeps every notification. Useful for embedding UIs that render
// their own toasts.
type MemorySink struct {
	mu    sync.Mutex
	items []Notification
}

func (m *MemorySink) Deliver(_ context.Context, n Notification) {
	m.mu.Lock()
	m.items = append(m.items, n)
	m.mu.Unlock()
}

// All returns a copy of the delivered notifications.
func (m *MemorySink) All() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.items))
	copy(out, m.items)
	return out
}

// Levels returns only the levels, in delivery order.
func (m *MemorySink) Levels() []Level {
	all := m.All()
	out := make([]Level, len(all))
	for i, n := range all {
		out[i] = n.Level
	}
	return out
}
