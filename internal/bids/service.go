// Package bids polls and presents driver bids on a ride that is still
// looking for a driver.
package bids

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/richxcame/rider-client/internal/payments"
	"github.com/richxcame/rider-client/internal/poller"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/money"
	"go.uber.org/zap"
)

// DefaultInterval is how often bids are refreshed.
const DefaultInterval = 5 * time.Second

// ErrNotBidding is returned when a bid is chosen after the ride left bidding.
var ErrNotBidding = errors.New("ride is no longer accepting bids")

// Config configures a Feed
type Config struct {
	Interval time.Duration
	Currency string
	Lang     string
}

// Feed polls the bids of one ride while its status allows bidding.
type Feed struct {
	rideID string
	client BidClient
	payer  Payer
	cfg    Config
	logger *zap.Logger
	poller *poller.Poller

	mu      sync.Mutex
	ctx     context.Context
	status  models.RideStatus
	bids    []models.DriverBid
	paying  string
	started bool
	subs    []func(View)
}

// NewFeed creates a feed for rideID whose last known status is status.
func NewFeed(rideID string, status models.RideStatus, client BidClient, payer Payer, cfg Config, log *zap.Logger) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	f := &Feed{
		rideID: rideID,
		client: client,
		payer:  payer,
		cfg:    cfg,
		logger: logger.OrNop(log).With(zap.String("ride_id", rideID)),
		status: status,
	}
	f.poller = poller.New("bids", cfg.Interval, f.poll, f.logger)
	return f
}

// Subscribe registers fn for every published view
func (f *Feed) Subscribe(fn func(View)) {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
}

// Start begins polling when the ride is still bidding; otherwise it publishes
// a hidden view.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	f.started = true
	f.ctx = ctx
	bidding := f.status.IsBidding()
	f.mu.Unlock()

	if !bidding {
		f.hide()
		return
	}
	f.poller.Start(ctx)
}

// Stop halts polling
func (f *Feed) Stop() {
	f.mu.Lock()
	f.started = false
	f.mu.Unlock()
	f.poller.Stop()
}

// Polling reports whether the feed is polling
func (f *Feed) Polling() bool {
	return f.poller.Running()
}

// UpdateStatus feeds the latest ride status from the tracker. Leaving the
// bidding states hides the feed and stops polling.
func (f *Feed) UpdateStatus(status models.RideStatus) {
	f.mu.Lock()
	prev := f.status
	f.status = status
	started := f.started
	ctx := f.ctx
	f.mu.Unlock()

	if status.IsBidding() {
		if started && !prev.IsBidding() {
			f.poller.Start(ctx)
		}
		return
	}
	if !prev.IsBidding() {
		return
	}
	f.logger.Debug("ride left bidding, hiding bids", zap.String("status", string(status)))
	f.poller.Stop()
	if started {
		f.hide()
	}
}

func (f *Feed) poll(ctx context.Context) error {
	f.mu.Lock()
	bidding := f.status.IsBidding()
	f.mu.Unlock()
	if !bidding {
		return nil
	}

	bids, err := f.client.ListBids(ctx, f.rideID)
	if err != nil {
		return fmt.Errorf("failed to list bids: %w", err)
	}
	if ctx.Err() != nil {
		return nil
	}

	sort.SliceStable(bids, func(i, j int) bool { return bids[i].CreatedAt.Before(bids[j].CreatedAt) })

	f.mu.Lock()
	if !f.status.IsBidding() {
		f.mu.Unlock()
		return nil
	}
	f.bids = bids
	f.publishLocked()
	return nil
}

// View returns the current view
func (f *Feed) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Feed) viewLocked() View {
	if !f.status.IsBidding() {
		return View{RideID: f.rideID}
	}
	v := View{RideID: f.rideID, Visible: true}
	for _, b := range f.bids {
		v.Bids = append(v.Bids, f.present(b))
	}
	return v
}

func (f *Feed) present(b models.DriverBid) BidView {
	fare := money.FromMajor(b.QuotedFare())
	rating := i18n.Translate("rider.bids.new_driver", f.cfg.Lang)
	if b.Driver.Rating != nil && *b.Driver.Rating > 0 {
		rating = fmt.Sprintf("%.1f", *b.Driver.Rating)
	}
	return BidView{
		ID:          b.ID,
		DriverID:    b.Driver.ID,
		DisplayID:   models.DisplayID(b.Driver.ID),
		DriverName:  b.Driver.Name,
		Rating:      rating,
		VehicleType: b.Driver.VehicleType,
		Fare:        fare,
		FareText:    i18n.FormatAmount(fare, f.cfg.Currency),
		Duration:    time.Duration(b.EstimatedDuration) * time.Minute,
		Notes:       b.Notes,
		Paying:      b.ID == f.paying,
	}
}

func (f *Feed) hide() {
	f.mu.Lock()
	f.bids = nil
	f.publishLocked()
}

func (f *Feed) publishLocked() {
	v := f.viewLocked()
	subs := append([]func(View){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

// SelectAndPay hands the chosen bid to the payment coordinator and returns
// its result. The bid shows as paying until the coordinator returns. Ride
// status is left to the backend.
func (f *Feed) SelectAndPay(ctx context.Context, bidID string) (*payments.Result, error) {
	f.mu.Lock()
	if !f.status.IsBidding() {
		f.mu.Unlock()
		return nil, ErrNotBidding
	}
	if f.paying != "" {
		f.mu.Unlock()
		return nil, payments.ErrInProgress
	}
	var bid *models.DriverBid
	for i := range f.bids {
		if f.bids[i].ID == bidID {
			bid = &f.bids[i]
			break
		}
	}
	if bid == nil {
		f.mu.Unlock()
		return nil, common.NewNotFoundError("bid not found", nil)
	}
	req := payments.Request{
		RideID:   f.rideID,
		BidID:    bid.ID,
		DriverID: bid.Driver.ID,
		Amount:   money.FromMajor(bid.QuotedFare()),
		Currency: f.cfg.Currency,
		Purpose:  models.PaymentPurposeBid,
	}
	f.paying = bidID
	f.publishLocked()

	res, err := f.payer.Pay(ctx, req)

	f.mu.Lock()
	f.paying = ""
	if f.status.IsBidding() {
		f.publishLocked()
	} else {
		f.mu.Unlock()
	}
	return res, err
}
