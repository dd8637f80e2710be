package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/richxcame/rider-client/internal/querycache"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// EmbeddedStrategy creates a payment intent on the backend and confirms it
// with the card processor in-process.
type EmbeddedStrategy struct {
	backend       Backend
	card          CardConfirmer
	confirmer     *Confirmer
	paymentMethod string
	cache         *querycache.Cache
	logger        *zap.Logger
}

// NewEmbeddedStrategy creates the embedded flow. card may be nil, in which
// case every payment fails with ErrConfiguration.
func NewEmbeddedStrategy(backend Backend, card CardConfirmer, confirmer *Confirmer, paymentMethod string, cache *querycache.Cache, log *zap.Logger) *EmbeddedStrategy {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmbeddedStrategy{
		backend:       backend,
		card:          card,
		confirmer:     confirmer,
		paymentMethod: paymentMethod,
		cache:         cache,
		logger:        log,
	}
}

func (s *EmbeddedStrategy) Name() string { return "embedded" }

// Pay creates the intent for req's purpose, confirms the card and, for bid
// selections, waits for the ride to reach an accepted status.
func (s *EmbeddedStrategy) Pay(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if s.card == nil {
		return nil, configErr("no card confirmer")
	}

	intent, err := s.createIntent(ctx, req)
	if err != nil {
		return nil, err
	}
	if intent == nil || strings.TrimSpace(intent.ClientSecret) == "" {
		return nil, configErr("backend returned no client secret")
	}

	if err := s.card.Confirm(ctx, intent.ClientSecret, s.paymentMethod); err != nil {
		var cardErr *CardError
		if errors.As(err, &cardErr) || errors.Is(err, ErrConfiguration) {
			return nil, err
		}
		return nil, backendErr("confirm card payment", err)
	}
	s.logger.Info("card payment confirmed by processor",
		zap.String("ride_id", req.RideID),
		zap.String("purpose", string(req.Purpose)),
		zap.Int64("amount", int64(req.Amount)))

	if req.Purpose == models.PaymentPurposeTip {
		s.cache.Invalidate(ctx, "rides:"+req.RideID)
		return &Result{Outcome: OutcomeConfirmed}, nil
	}

	outcome, ride, err := s.confirmer.Await(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, "rides:"+req.RideID, "rides:list")
	return &Result{Outcome: outcome, Ride: ride}, nil
}

func (s *EmbeddedStrategy) createIntent(ctx context.Context, req Request) (*models.PaymentIntent, error) {
	if req.Purpose == models.PaymentPurposeTip {
		intent, err := s.backend.CreateTipPaymentIntent(ctx, req.RideID, models.TipPaymentIntentRequest{
			DriverID:  req.DriverID,
			TipAmount: int64(req.Amount),
		})
		if err != nil {
			return nil, backendErr("create tip payment intent", err)
		}
		return intent, nil
	}

	intent, err := s.backend.CreatePaymentIntent(ctx, models.CreatePaymentIntentRequest{
		Amount:   int64(req.Amount),
		Currency: strings.ToLower(req.Currency),
		Metadata: requestMetadata(req),
	})
	if err != nil {
		return nil, backendErr("create payment intent", err)
	}
	return intent, nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.RideID) == "" {
		return common.NewBadRequestError("ride id is required", nil)
	}
	if req.Amount <= 0 {
		return common.NewBadRequestError("payment amount must be positive", nil)
	}
	switch req.Purpose {
	case models.PaymentPurposeBid:
		if req.BidID == "" {
			return common.NewBadRequestError("bid id is required", nil)
		}
	case models.PaymentPurposeTip:
		if req.DriverID == "" {
			return common.NewBadRequestError("driver id is required for a tip", nil)
		}
	default:
		return common.NewBadRequestError("unknown payment purpose", nil)
	}
	return nil
}

func requestMetadata(req Request) map[string]string {
	md := map[string]string{
		"ride_id": req.RideID,
		"purpose": string(req.Purpose),
	}
	if req.BidID != "" {
		md["bid_id"] = req.BidID
	}
	if req.DriverID != "" {
		md["driver_id"] = req.DriverID
	}
	return md
}
