// Package payments collects bid and tip payments through a hosted payment
// link or an embedded card flow and confirms them against the ride.
package payments

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/rider-client/internal/notify"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

var paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rider_payments_total",
	Help: "Payment attempts by strategy, purpose and result",
}, []string{"strategy", "purpose", "result"})

// Service routes payments to a strategy and reports every result to the rider.
// Failures leave no state behind; nothing is retried automatically.
type Service struct {
	primary  Strategy
	tips     Strategy
	notifier notify.Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewService creates the coordinator. Tips go to tips when set, otherwise to primary.
func NewService(primary, tips Strategy, notifier notify.Notifier, log *zap.Logger) *Service {
	return &Service{
		primary:  primary,
		tips:     tips,
		notifier: notifier,
		logger:   logger.OrNop(log),
		inFlight: make(map[string]bool),
	}
}

// Pay runs req through its strategy. At most one payment per ride runs at a time.
func (s *Service) Pay(ctx context.Context, req Request) (*Result, error) {
	strategy := s.primary
	if req.Purpose == models.PaymentPurposeTip && s.tips != nil {
		strategy = s.tips
	}
	if strategy == nil {
		err := configErr("no payment strategy")
		s.fail(ctx, "none", req, err)
		return nil, err
	}

	if !s.begin(req.RideID) {
		s.fail(ctx, strategy.Name(), req, ErrInProgress)
		return nil, ErrInProgress
	}
	defer s.end(req.RideID)

	res, err := strategy.Pay(ctx, req)
	if err != nil {
		s.fail(ctx, strategy.Name(), req, err)
		return nil, err
	}

	paymentsTotal.WithLabelValues(strategy.Name(), string(req.Purpose), string(res.Outcome)).Inc()
	s.logger.Info("payment finished",
		zap.String("ride_id", req.RideID),
		zap.String("strategy", strategy.Name()),
		zap.String("outcome", string(res.Outcome)))
	s.announce(ctx, req, res.Outcome)
	return res, nil
}

// Announce reports an outcome that arrived outside Pay, such as a return callback.
func (s *Service) Announce(ctx context.Context, req Request, outcome Outcome) {
	s.announce(ctx, req, outcome)
}

// Fail reports a failure that arrived outside Pay.
func (s *Service) Fail(ctx context.Context, err error) {
	if s.notifier != nil {
		s.notifier.Error(ctx, UserError(err))
	}
}

func (s *Service) announce(ctx context.Context, req Request, outcome Outcome) {
	if s.notifier == nil {
		return
	}
	switch outcome {
	case OutcomeConfirmed:
		if req.Amount <= 0 {
			s.notifier.Success(ctx, "rider.payment.received")
			return
		}
		s.notifier.Success(ctx, "rider.payment.confirmed", i18n.FormatAmount(req.Amount, req.Currency))
	case OutcomeTimedOut:
		s.notifier.Info(ctx, "rider.payment.pending")
	case OutcomeRideCancelled:
		s.notifier.Info(ctx, "rider.payment.ride_cancelled")
	case OutcomePending:
		s.notifier.Info(ctx, "rider.payment.link_opened")
	}
}

func (s *Service) fail(ctx context.Context, strategy string, req Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	paymentsTotal.WithLabelValues(strategy, string(req.Purpose), "error").Inc()
	logger.WithContext(ctx).Warn("payment failed",
		zap.String("ride_id", req.RideID),
		zap.String("strategy", strategy),
		zap.Error(err))
	s.Fail(ctx, err)
}

func (s *Service) begin(rideID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[rideID] {
		return false
	}
	s.inFlight[rideID] = true
	return true
}

func (s *Service) end(rideID string) {
	s.mu.Lock()
	delete(s.inFlight, rideID)
	s.mu.Unlock()
}

// UserError maps payment errors to what the rider sees: processor messages
// verbatim, server messages when present, and a fixed text otherwise.
func UserError(err error) error {
	var cardErr *CardError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &cardErr):
		return common.NewPaymentRequiredError(cardErr.Message, err)
	case errors.Is(err, ErrConfiguration):
		return common.NewInternalError("Payments are not available right now", err)
	case errors.Is(err, ErrInProgress):
		return common.NewConflictError("A payment for this ride is already in progress")
	}
	if _, ok := common.AsAppError(err); ok {
		return err
	}
	return common.NewAppError(http.StatusServiceUnavailable, "The payment could not be processed. Please try again.", err)
}
