package rides

import (
	"context"
	"strings"
	"sync"

	"github.com/richxcame/rider-client/internal/notify"
	"github.com/richxcame/rider-client/internal/payments"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/money"
	"go.uber.org/zap"
)

// FinishFlow sequences rating, the optional tip and finishing a ride.
// FinishRide is called at most once per flow.
type FinishFlow struct {
	ride     models.Ride
	client   RideClient
	payer    Payer
	notifier notify.Notifier
	currency string
	lang     string
	logger   *zap.Logger

	mu     sync.Mutex
	state  FinishState
	bounds *models.TipBounds
}

// NewFinishFlow creates the flow for ride. payer collects tips and may be
// nil, in which case only SkipTip can finish.
func NewFinishFlow(ride models.Ride, client RideClient, payer Payer, notifier notify.Notifier, currency, lang string, log *zap.Logger) *FinishFlow {
	if ride.Currency != "" {
		currency = ride.Currency
	}
	return &FinishFlow{
		ride:     ride,
		client:   client,
		payer:    payer,
		notifier: notifier,
		currency: currency,
		lang:     lang,
		logger:   logger.OrNop(log).With(zap.String("ride_id", ride.ID)),
		state:    FinishIdle,
	}
}

// State returns the current step
func (f *FinishFlow) State() FinishState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Bounds returns the tip bounds fetched after rating, if any
func (f *FinishFlow) Bounds() *models.TipBounds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bounds
}

// Begin opens the rating step. It is only offered while the ride can finish.
func (f *FinishFlow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case FinishDone:
		return ErrAlreadyFinished
	case FinishIdle:
	default:
		return nil
	}
	if !ActionsFor(f.ride.Status).CanFinish {
		return unavailable("finishing", f.ride.Status)
	}
	f.state = FinishRating
	return nil
}

// SubmitRating persists the rating, then loads the tip bounds and moves to tipping.
// A failed bounds lookup leaves tipping unbounded.
func (f *FinishFlow) SubmitRating(ctx context.Context, rating int, emoji string) error {
	f.mu.Lock()
	switch f.state {
	case FinishRating:
		f.state = FinishRateSent
	case FinishRateSent:
		f.mu.Unlock()
		return common.NewConflictError("the rating is already being submitted")
	case FinishDone:
		f.mu.Unlock()
		return ErrAlreadyFinished
	case FinishIdle:
		f.mu.Unlock()
		return common.NewBadRequestError("the rating step has not been opened", nil)
	default:
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	if err := f.client.RateRide(ctx, f.ride.ID, rating, strings.TrimSpace(emoji)); err != nil {
		f.mu.Lock()
		f.state = FinishRating
		f.mu.Unlock()
		f.notifyError(ctx, err)
		return err
	}

	bounds, err := f.client.TipBounds(ctx, f.ride.ID)
	if err != nil {
		f.logger.Warn("tip bounds unavailable", zap.Error(err))
		bounds = nil
	}

	f.mu.Lock()
	f.bounds = bounds
	f.state = FinishTipping
	f.mu.Unlock()
	if f.notifier != nil {
		f.notifier.Success(ctx, "rider.ride.rated")
	}
	return nil
}

// PayTip validates amount against the bounds, collects it and finishes the ride.
// A failed payment keeps the flow in tipping so the rider can retry or skip.
func (f *FinishFlow) PayTip(ctx context.Context, amount money.Amount) error {
	f.mu.Lock()
	if err := f.requireTippingLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	bounds := f.bounds
	f.mu.Unlock()

	if amount <= 0 {
		return common.NewBadRequestError("tip amount must be positive", nil)
	}
	if bounds != nil && !bounds.Contains(amount.Major()) {
		err := common.NewBadRequestError(i18n.Translate("rider.tip.out_of_bounds", f.lang,
			i18n.FormatAmount(money.FromMajor(bounds.Min), f.currency),
			i18n.FormatAmount(money.FromMajor(bounds.Max), f.currency)), nil)
		f.notifyError(ctx, err)
		return err
	}
	if f.payer == nil {
		return payments.ErrConfiguration
	}
	driverID := f.driverID()
	if driverID == "" {
		return common.NewBadRequestError("ride has no driver to tip", nil)
	}

	if _, err := f.payer.Pay(ctx, payments.Request{
		RideID:   f.ride.ID,
		DriverID: driverID,
		Amount:   amount,
		Currency: f.currency,
		Purpose:  models.PaymentPurposeTip,
	}); err != nil {
		return err
	}
	return f.finish(ctx)
}

// SkipTip finishes the ride without a tip.
func (f *FinishFlow) SkipTip(ctx context.Context) error {
	f.mu.Lock()
	err := f.requireTippingLocked()
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.finish(ctx)
}

func (f *FinishFlow) requireTippingLocked() error {
	switch f.state {
	case FinishTipping:
		return nil
	case FinishDone:
		return ErrAlreadyFinished
	case FinishFinishing:
		return common.NewConflictError("the ride is already being finished")
	}
	return ErrRatingRequired
}

func (f *FinishFlow) finish(ctx context.Context) error {
	f.mu.Lock()
	if f.state != FinishTipping {
		err := f.requireTippingLocked()
		f.mu.Unlock()
		return err
	}
	f.state = FinishFinishing
	f.mu.Unlock()

	if err := f.client.FinishRide(ctx, f.ride.ID); err != nil {
		f.mu.Lock()
		f.state = FinishTipping
		f.mu.Unlock()
		f.notifyError(ctx, err)
		return err
	}

	f.mu.Lock()
	f.state = FinishDone
	f.mu.Unlock()
	f.logger.Info("ride finished")
	if f.notifier != nil {
		f.notifier.Success(ctx, "rider.ride.finished")
	}
	return nil
}

func (f *FinishFlow) driverID() string {
	if f.ride.DriverID != nil && *f.ride.DriverID != "" {
		return *f.ride.DriverID
	}
	if f.ride.Driver != nil {
		return f.ride.Driver.ID
	}
	return ""
}

func (f *FinishFlow) notifyError(ctx context.Context, err error) {
	if f.notifier != nil {
		f.notifier.Error(ctx, err)
	}
}
