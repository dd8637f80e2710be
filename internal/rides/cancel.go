package rides

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/richxcame/rider-client/internal/notify"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// DefaultRedirectDelay is the pause between a successful cancel and the redirect.
const DefaultRedirectDelay = 2 * time.Second

// CancelFlow quotes and confirms the cancellation of a ride.
type CancelFlow struct {
	ride     models.Ride
	client   RideClient
	notifier notify.Notifier
	redirect func()
	delay    time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

// NewCancelFlow creates the flow. redirect runs once, delay after a successful cancel.
func NewCancelFlow(ride models.Ride, client RideClient, notifier notify.Notifier, redirect func(), delay time.Duration, log *zap.Logger) *CancelFlow {
	if delay <= 0 {
		delay = DefaultRedirectDelay
	}
	return &CancelFlow{
		ride:     ride,
		client:   client,
		notifier: notifier,
		redirect: redirect,
		delay:    delay,
		logger:   logger.OrNop(log).With(zap.String("ride_id", ride.ID)),
	}
}

// Quote returns the non-binding refund estimate.
func (c *CancelFlow) Quote(ctx context.Context) (*models.RefundQuote, error) {
	if !ActionsFor(c.ride.Status).CanCancel {
		return nil, unavailable("cancelling", c.ride.Status)
	}
	q, err := c.client.RefundQuote(ctx, c.ride.ID)
	if err != nil {
		c.notifyError(ctx, err)
		return nil, err
	}
	return q, nil
}

// Confirm cancels the ride with reason, notifies the rider and schedules the redirect.
func (c *CancelFlow) Confirm(ctx context.Context, reason string) error {
	if !ActionsFor(c.ride.Status).CanCancel {
		return unavailable("cancelling", c.ride.Status)
	}
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.client.CancelRide(ctx, c.ride.ID, strings.TrimSpace(reason)); err != nil {
		c.notifyError(ctx, err)
		return err
	}

	c.mu.Lock()
	c.cancelled = true
	if c.redirect != nil {
		c.timer = time.AfterFunc(c.delay, c.redirect)
	}
	c.mu.Unlock()

	c.logger.Info("ride cancelled by rider")
	if c.notifier != nil {
		c.notifier.Success(ctx, "rider.ride.cancelled")
	}
	return nil
}

// Close drops a redirect that has not fired yet.
func (c *CancelFlow) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *CancelFlow) notifyError(ctx context.Context, err error) {
	if c.notifier != nil {
		c.notifier.Error(ctx, err)
	}
}
