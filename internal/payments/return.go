package payments

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/money"
	"go.uber.org/zap"
)

var returnParams = []string{ParamPaymentSuccess, ParamTipPaymentSuccess, ParamPSPReference, ParamResultCode}

// result codes that mean the processor did not take the money
var failedResultCodes = map[string]bool{
	"refused":   true,
	"cancelled": true,
	"error":     true,
	"failed":    true,
}

// ReturnResult describes what a return callback did
type ReturnResult struct {
	Stripped  string // the URL with the payment parameters removed
	Handled   bool   // false when the URL carried no payment parameters
	Duplicate bool   // the psp_reference was already consumed
	RideID    string
	Purpose   models.PaymentPurpose
	Outcome   Outcome
	Ride      *models.Ride
	Request   Request // the registered payment, or just ride and purpose when none was pending
}

// ReturnHandler consumes the hosted payment page's return callback.
type ReturnHandler struct {
	backend   Backend
	confirmer *Confirmer
	pending   *Pending
	logger    *zap.Logger

	mu   sync.Mutex
	seen map[string]bool
}

// NewReturnHandler creates a handler. pending may be nil when the ride id
// always travels in the URL.
func NewReturnHandler(backend Backend, confirmer *Confirmer, pending *Pending, log *zap.Logger) *ReturnHandler {
	if pending == nil {
		pending = NewPending()
	}
	return &ReturnHandler{
		backend:   backend,
		confirmer: confirmer,
		pending:   pending,
		logger:    logger.OrNop(log),
		seen:      make(map[string]bool),
	}
}

// Handle parses raw, strips the payment parameters and, the first time a
// psp_reference is seen, reports the payment to the backend and waits for the
// ride to reflect it. Later deliveries of the same reference only strip.
func (h *ReturnHandler) Handle(ctx context.Context, raw string) (*ReturnResult, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, common.NewBadRequestError("invalid return url", err)
	}
	q := u.Query()
	bid := isTrue(q.Get(ParamPaymentSuccess))
	tip := isTrue(q.Get(ParamTipPaymentSuccess))
	psp := strings.TrimSpace(q.Get(ParamPSPReference))
	resultCode := strings.TrimSpace(q.Get(ParamResultCode))
	rideID := strings.TrimSpace(q.Get(ParamRideID))

	had := false
	for _, p := range returnParams {
		if q.Has(p) {
			had = true
			q.Del(p)
		}
	}
	amountParam := strings.TrimSpace(q.Get(ParamAmount))
	currency := strings.TrimSpace(q.Get(ParamCurrency))
	q.Del(ParamRideID)
	q.Del(ParamAmount)
	q.Del(ParamCurrency)
	u.RawQuery = q.Encode()
	res := &ReturnResult{Stripped: u.String(), RideID: rideID}
	if !had {
		return res, nil
	}
	res.Handled = true
	res.Purpose = models.PaymentPurposeBid
	if tip && !bid {
		res.Purpose = models.PaymentPurposeTip
	}

	if psp == "" {
		return res, common.NewPaymentRequiredError("The payment could not be confirmed", nil)
	}
	if !h.consume(psp) {
		res.Duplicate = true
		h.logger.Debug("ignoring repeated payment return", zap.String("psp_reference", psp))
		return res, nil
	}

	pending, ok := h.pending.Take(rideID)
	if rideID == "" && ok {
		rideID = pending.RideID
	}
	if rideID == "" {
		return res, common.NewBadRequestError("return url has no ride id", nil)
	}
	res.RideID = rideID
	if ok {
		res.Request = pending
	} else {
		res.Request = Request{RideID: rideID, Purpose: res.Purpose, Currency: currency}
		// Older return pages echo the amount untyped, sometimes in major units.
		if amountParam != "" {
			if amount, err := money.ParseLegacy(amountParam); err == nil {
				res.Request.Amount = amount
			} else {
				h.logger.Debug("ignoring unreadable return amount", zap.String("amount", amountParam))
			}
		}
	}

	if failedResultCodes[strings.ToLower(resultCode)] {
		return res, common.NewPaymentRequiredError("The payment was not completed", nil)
	}

	if err := h.backend.ConfirmPaymentSuccess(ctx, rideID, models.PaymentSuccessRequest{
		PSPReference: psp,
		ResultCode:   resultCode,
	}); err != nil {
		h.release(psp)
		return res, backendErr("report payment success", err)
	}

	if res.Purpose == models.PaymentPurposeTip {
		res.Outcome = OutcomeConfirmed
		return res, nil
	}
	outcome, ride, err := h.confirmer.Await(ctx, rideID)
	if err != nil {
		return res, err
	}
	res.Outcome = outcome
	res.Ride = ride
	return res, nil
}

func (h *ReturnHandler) consume(psp string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seen[psp] {
		return false
	}
	h.seen[psp] = true
	return true
}

// release lets a reference be delivered again after the backend refused it.
func (h *ReturnHandler) release(psp string) {
	h.mu.Lock()
	delete(h.seen, psp)
	h.mu.Unlock()
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
