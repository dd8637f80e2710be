package payments

import (
	"context"
	"time"

	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// Confirmation window defaults
const (
	DefaultConfirmAttempts = 30
	DefaultConfirmInterval = time.Second
)

// Confirmer polls the ride until the backend reflects a payment.
type Confirmer struct {
	rides    RideGetter
	attempts int
	interval time.Duration
	logger   *zap.Logger
}

// NewConfirmer creates a confirmer. Non-positive values use the defaults.
func NewConfirmer(rides RideGetter, attempts int, interval time.Duration, log *zap.Logger) *Confirmer {
	if attempts <= 0 {
		attempts = DefaultConfirmAttempts
	}
	if interval <= 0 {
		interval = DefaultConfirmInterval
	}
	return &Confirmer{rides: rides, attempts: attempts, interval: interval, logger: logger.OrNop(log)}
}

// Await polls up to attempts times for an accepted-family status. Failed
// polls count as attempts. It returns OutcomeRideCancelled as soon as the ride
// is cancelled, OutcomeTimedOut when the window ends, and ctx.Err() only when
// ctx is cancelled.
func (c *Confirmer) Await(ctx context.Context, rideID string) (Outcome, *models.Ride, error) {
	var last *models.Ride
	for i := 0; i < c.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", last, ctx.Err()
			case <-time.After(c.interval):
			}
		}

		ride, err := c.rides.GetRide(ctx, rideID)
		if err != nil {
			if ctx.Err() != nil {
				return "", last, ctx.Err()
			}
			c.logger.Debug("confirmation poll failed", zap.String("ride_id", rideID), zap.Int("attempt", i+1), zap.Error(err))
			continue
		}
		last = ride
		if ride.Status.IsAcceptedFamily() {
			return OutcomeConfirmed, ride, nil
		}
		if ride.Status == models.RideStatusCancelled {
			c.logger.Warn("ride cancelled while awaiting payment confirmation", zap.String("ride_id", rideID))
			return OutcomeRideCancelled, ride, nil
		}
	}
	return OutcomeTimedOut, last, nil
}
