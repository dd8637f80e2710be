// Package rides tracks a ride's lifecycle and runs the rider's cancel,
// report and post-ride flows against it.
package rides

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/richxcame/rider-client/internal/notify"
	"github.com/richxcame/rider-client/internal/poller"
	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// DefaultInterval is how often the tracker refreshes the ride.
const DefaultInterval = 20 * time.Second

// Tracker polls one ride and publishes a View on every refresh.
type Tracker struct {
	rideID   string
	client   RideClient
	notifier notify.Notifier
	logger   *zap.Logger
	poller   *poller.Poller

	mu      sync.Mutex
	ride    *models.Ride
	stopped bool
	subs    []func(View)
}

// NewTracker creates a tracker for rideID. notifier may be nil.
func NewTracker(rideID string, client RideClient, notifier notify.Notifier, interval time.Duration, log *zap.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := &Tracker{
		rideID:   rideID,
		client:   client,
		notifier: notifier,
		logger:   logger.OrNop(log).With(zap.String("ride_id", rideID)),
	}
	t.poller = poller.New("ride", interval, t.poll, t.logger)
	return t
}

// Subscribe registers fn for every published view
func (t *Tracker) Subscribe(fn func(View)) {
	t.mu.Lock()
	t.subs = append(t.subs, fn)
	t.mu.Unlock()
}

// Start polls immediately and then on every interval, regardless of status.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	t.stopped = false
	t.mu.Unlock()
	t.poller.Start(logger.ContextWithRideID(ctx, t.rideID))
}

// Stop halts polling. Responses that arrive afterwards are dropped.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.poller.Stop()
}

// Refresh fetches the ride now, outside the polling schedule.
func (t *Tracker) Refresh(ctx context.Context) (View, error) {
	if err := t.poll(ctx); err != nil {
		return View{}, err
	}
	v, _ := t.View()
	return v, nil
}

// View returns the last published view and whether one exists.
func (t *Tracker) View() (View, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ride == nil {
		return View{}, false
	}
	return View{Ride: *t.ride, Actions: ActionsFor(t.ride.Status)}, true
}

func (t *Tracker) poll(ctx context.Context) error {
	ride, err := t.client.GetRide(ctx, t.rideID)
	if err != nil {
		return fmt.Errorf("failed to refresh ride: %w", err)
	}
	if ctx.Err() != nil {
		return nil
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	prev := t.ride
	t.ride = ride
	view := View{Ride: *ride, Actions: ActionsFor(ride.Status)}
	subs := append([]func(View){}, t.subs...)
	t.mu.Unlock()

	if prev != nil && prev.Status != ride.Status {
		t.statusChanged(ctx, prev.Status, ride.Status)
	}
	for _, fn := range subs {
		fn(view)
	}
	return nil
}

func (t *Tracker) statusChanged(ctx context.Context, from, to models.RideStatus) {
	if !from.CanTransitionTo(to) {
		t.logger.Warn("suspicious ride status transition",
			zap.String("from", string(from)),
			zap.String("to", string(to)))
	} else {
		t.logger.Info("ride status changed", zap.String("from", string(from)), zap.String("to", string(to)))
	}
	if t.notifier != nil && to.Valid() && to != models.RideStatusPending {
		t.notifier.Info(ctx, i18n.StatusKey(string(to)))
	}
}
