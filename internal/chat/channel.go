// Package chat runs the rider side of a ride's chat: history from a store,
// live messages from a realtime transport, and persist-then-broadcast sends.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/richxcame/rider-client/internal/notify"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// Channel opens chat subscriptions for one ride.
type Channel struct {
	ride      models.Ride
	userID    string
	store     Store
	transport Transport
	notifier  notify.Notifier
	lang      string
	logger    *zap.Logger
	now       func() time.Time
}

// NewChannel creates a channel for ride as user userID. notifier may be nil.
func NewChannel(ride models.Ride, userID string, store Store, transport Transport, notifier notify.Notifier, lang string, log *zap.Logger) *Channel {
	return &Channel{
		ride:      ride,
		userID:    userID,
		store:     store,
		transport: transport,
		notifier:  notifier,
		lang:      lang,
		logger:    logger.OrNop(log).With(zap.String("ride_id", ride.ID), zap.String("room", ride.ChatRoom)),
		now:       time.Now,
	}
}

// Open loads the history and subscribes to the ride's room. The subscription
// is closed when ctx is done or Close is called, whichever comes first; on
// error nothing is left subscribed.
func (c *Channel) Open(ctx context.Context) (_ *Subscription, err error) {
	if c.ride.ChatRoom == "" {
		return nil, ErrNoRoom
	}

	sub := &Subscription{
		channel: c,
		seen:    make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	defer func() {
		if err != nil {
			sub.Close()
		}
	}()

	history, err := c.store.History(ctx, c.ride.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	for _, m := range history {
		if m.IsDeleted {
			continue
		}
		sub.insertLocked(m)
	}

	unsubscribe, err := c.transport.Subscribe(ctx, c.ride.ChatRoom, func(m models.ChatMessage) {
		sub.receive(ctx, m)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to chat room: %w", err)
	}
	sub.mu.Lock()
	sub.unsubscribe = unsubscribe
	sub.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	c.logger.Debug("chat opened", zap.Int("history", len(history)))
	return sub, nil
}

// Run opens a subscription, hands it to fn and closes it when fn returns.
func (c *Channel) Run(ctx context.Context, fn func(*Subscription) error) error {
	sub, err := c.Open(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()
	return fn(sub)
}

// Subscription is an open chat room. Close is safe to call more than once.
type Subscription struct {
	channel *Channel

	mu          sync.Mutex
	messages    []models.ChatMessage
	seen        map[string]struct{}
	subs        []func(View)
	unsubscribe func() error
	closed      bool
	done        chan struct{}
}

// Subscribe registers fn for every change of the message list
func (s *Subscription) Subscribe(fn func(View)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// View returns the current message list.
func (s *Subscription) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Send persists text and then broadcasts it. The message is added to the list
// as soon as it is stored; a failed save is reported and never broadcast.
func (s *Subscription) Send(ctx context.Context, text string) (*models.ChatMessage, error) {
	c := s.channel
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.NewBadRequestError("message is empty", nil)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, common.NewBadRequestError(fmt.Sprintf("message is longer than %d characters", MaxMessageLength), nil)
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	msg := models.ChatMessage{
		ID:         uuid.New().String(),
		RideID:     c.ride.ID,
		ChatID:     c.ride.ChatSessionID,
		SenderID:   c.userID,
		SenderRole: models.SenderCustomer,
		Message:    text,
		CreatedAt:  c.now().UTC(),
	}

	saved, err := c.store.Save(ctx, msg)
	if err != nil {
		c.logger.Warn("failed to save chat message", zap.Error(err))
		failure := common.NewServiceUnavailableError(i18n.Translate("rider.chat.send_failed", c.lang))
		failure.Err = err
		if c.notifier != nil {
			c.notifier.Error(ctx, failure)
		}
		return nil, failure
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return saved, nil
	}
	s.insertLocked(*saved)
	s.publishLocked()

	if err := c.transport.Publish(ctx, c.ride.ChatRoom, *saved); err != nil {
		c.logger.Warn("failed to broadcast chat message", zap.String("message_id", saved.ID), zap.Error(err))
	}
	return saved, nil
}

// Close unsubscribes from the room.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		if err := unsubscribe(); err != nil {
			s.channel.logger.Warn("failed to leave chat room", zap.Error(err))
		}
	}
	s.channel.logger.Debug("chat closed")
}

// Closed reports whether Close has run
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Subscription) receive(ctx context.Context, m models.ChatMessage) {
	c := s.channel
	if m.RideID != "" && m.RideID != c.ride.ID {
		return
	}

	s.mu.Lock()
	if s.closed || m.IsDeleted || m.SenderID == c.userID {
		s.mu.Unlock()
		return
	}
	if !s.insertLocked(m) {
		s.mu.Unlock()
		return
	}
	s.publishLocked()

	if m.SenderRole == models.SenderDriver && c.notifier != nil {
		c.notifier.Desktop(ctx, i18n.Translate("rider.chat.new_message.title", c.lang), m.Message)
	}
}

// insertLocked adds m in created-time order, reporting false for a known id.
func (s *Subscription) insertLocked(m models.ChatMessage) bool {
	if m.ID != "" {
		if _, ok := s.seen[m.ID]; ok {
			return false
		}
		s.seen[m.ID] = struct{}{}
	}
	i := sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].CreatedAt.After(m.CreatedAt)
	})
	s.messages = append(s.messages, models.ChatMessage{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = m
	return true
}

func (s *Subscription) viewLocked() View {
	return View{
		RideID:   s.channel.ride.ID,
		Messages: append([]models.ChatMessage(nil), s.messages...),
	}
}

// publishLocked releases s.mu before calling subscribers.
func (s *Subscription) publishLocked() {
	view := s.viewLocked()
	subs := append([]func(View){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(view)
	}
}
