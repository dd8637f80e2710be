package payments

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// Return-URL parameters set by the link flow and the processor
const (
	ParamPaymentSuccess    = "payment_success"
	ParamTipPaymentSuccess = "tip_payment_success"
	ParamPSPReference      = "psp_reference"
	ParamResultCode        = "result_code"
	ParamRideID            = "ride_id"
	ParamAmount            = "amount"
	ParamCurrency          = "currency"
)

// LinkConfig configures the hosted payment page flow
type LinkConfig struct {
	MerchantAccount string
	ReturnURL       string
}

// Pending tracks link payments awaiting their return callback, by ride.
type Pending struct {
	mu    sync.Mutex
	items map[string]Request
}

// NewPending creates an empty registry
func NewPending() *Pending {
	return &Pending{items: make(map[string]Request)}
}

func (p *Pending) put(req Request) {
	p.mu.Lock()
	p.items[req.RideID] = req
	p.mu.Unlock()
}

// Take removes and returns the pending payment for rideID. An empty rideID
// matches only when exactly one payment is pending.
func (p *Pending) Take(rideID string) (Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rideID == "" && len(p.items) == 1 {
		for id := range p.items {
			rideID = id
		}
	}
	req, ok := p.items[rideID]
	delete(p.items, rideID)
	return req, ok
}

// Len returns the number of pending payments
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// LinkStrategy requests a hosted payment page and opens it.
type LinkStrategy struct {
	backend Backend
	opener  Opener
	cfg     LinkConfig
	pending *Pending
	logger  *zap.Logger
}

// NewLinkStrategy creates the link flow
func NewLinkStrategy(backend Backend, opener Opener, cfg LinkConfig, pending *Pending, log *zap.Logger) *LinkStrategy {
	if pending == nil {
		pending = NewPending()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkStrategy{backend: backend, opener: opener, cfg: cfg, pending: pending, logger: log}
}

func (s *LinkStrategy) Name() string { return "link" }

// Pending exposes the registry the return handler consumes
func (s *LinkStrategy) Pending() *Pending { return s.pending }

// Pay creates a payment link, opens it and registers the payment as pending.
func (s *LinkStrategy) Pay(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.cfg.MerchantAccount) == "" {
		return nil, configErr("no merchant account")
	}
	if s.opener == nil {
		return nil, configErr("no way to open the payment page")
	}
	returnURL, err := buildReturnURL(s.cfg.ReturnURL, req)
	if err != nil {
		return nil, configErr(err.Error())
	}

	link, err := s.backend.CreatePaymentLink(ctx, models.PaymentLinkRequest{
		MerchantAccount: s.cfg.MerchantAccount,
		Amount: models.PaymentLinkAmount{
			Currency: strings.ToUpper(req.Currency),
			Value:    int64(req.Amount),
		},
		Reference:   fmt.Sprintf("%s-%s-%s", req.Purpose, req.RideID, uuid.NewString()[:8]),
		Description: describe(req),
		ReturnURL:   returnURL,
		Metadata:    requestMetadata(req),
	})
	if err != nil {
		return nil, backendErr("create payment link", err)
	}

	if err := s.opener.Open(ctx, link.URL); err != nil {
		return nil, fmt.Errorf("open payment page: %w", err)
	}
	s.pending.put(req)
	s.logger.Info("payment page opened", zap.String("ride_id", req.RideID), zap.String("purpose", string(req.Purpose)))
	return &Result{Outcome: OutcomePending, URL: link.URL}, nil
}

func describe(req Request) string {
	if req.Purpose == models.PaymentPurposeTip {
		return "Tip for ride " + req.RideID
	}
	return "Ride " + req.RideID
}

func buildReturnURL(base string, req Request) (string, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid return url %q", base)
	}
	q := u.Query()
	q.Set(ParamRideID, req.RideID)
	if req.Amount > 0 {
		q.Set(ParamAmount, strconv.FormatInt(int64(req.Amount), 10))
		q.Set(ParamCurrency, strings.ToLower(req.Currency))
	}
	if req.Purpose == models.PaymentPurposeTip {
		q.Set(ParamTipPaymentSuccess, "true")
	} else {
		q.Set(ParamPaymentSuccess, "true")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
