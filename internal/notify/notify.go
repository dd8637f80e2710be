// Package notify delivers user-visible notifications: toasts, error
// messages and desktop alerts.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelDesktop Level = "desktop"
)

// Permission mirrors the desktop notification permission of the host.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

// Notification is one delivered message.
type Notification struct {
	Level Level
	Title string
	Body  string
	Err   error
	At    time.Time
}

// Sink receives notifications.
type Sink interface {
	Deliver(ctx context.Context, n Notification)
}

// Notifier is what components use to reach the rider.
type Notifier interface {
	Info(ctx context.Context, key string, args ...interface{})
	Success(ctx context.Context, key string, args ...interface{})
	Error(ctx context.Context, err error)
	Desktop(ctx context.Context, title, body string)
}

// Service fans notifications out to its sinks.
type Service struct {
	lang   string
	sinks  []Sink
	logger *zap.Logger

	mu         sync.RWMutex
	permission Permission
}

// NewService creates a notifier that localizes keys into lang.
func NewService(lang string, log *zap.Logger, sinks ...Sink) *Service {
	return &Service{lang: lang, sinks: sinks, logger: logger.OrNop(log)}
}

// SetPermission records the desktop notification permission.
func (s *Service) SetPermission(p Permission) {
	s.mu.Lock()
	s.permission = p
	s.mu.Unlock()
}

// Permission returns the recorded desktop permission.
func (s *Service) Permission() Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.permission
}

// Info sends a localized informational toast.
func (s *Service) Info(ctx context.Context, key string, args ...interface{}) {
	s.deliver(ctx, Notification{Level: LevelInfo, Body: i18n.Translate(key, s.lang, args...)})
}

// Success sends a localized success toast.
func (s *Service) Success(ctx context.Context, key string, args ...interface{}) {
	s.deliver(ctx, Notification{Level: LevelSuccess, Body: i18n.Translate(key, s.lang, args...)})
}

// Error surfaces err with the message the server or processor supplied, or a generic one.
func (s *Service) Error(ctx context.Context, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	s.deliver(ctx, Notification{Level: LevelError, Body: common.UserMessage(err), Err: err})
}

// Desktop raises a desktop alert when permission has been granted.
func (s *Service) Desktop(ctx context.Context, title, body string) {
	if s.Permission() != PermissionGranted {
		s.logger.Debug("desktop notification suppressed", zap.String("title", title))
		return
	}
	s.deliver(ctx, Notification{Level: LevelDesktop, Title: title, Body: body})
}

// Translate exposes the notifier's language for callers building titles.
func (s *Service) Translate(key string, args ...interface{}) string {
	return i18n.Translate(key, s.lang, args...)
}

func (s *Service) deliver(ctx context.Context, n Notification) {
	n.At = time.Now()
	for _, sink := range s.sinks {
		sink.Deliver(ctx, n)
	}
}
