package payments

import (
	"errors"
	"fmt"

	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/money"
)

var (
	// ErrConfiguration means the payment flow cannot run as configured: a
	// missing client secret, card confirmer or merchant account. Retrying
	// does not help.
	ErrConfiguration = errors.New("payment is not configured")

	// ErrBackend wraps transport and non-2xx failures. The rider may retry.
	ErrBackend = errors.New("payment request failed")

	// ErrInProgress is returned when a payment for the same ride is already running.
	ErrInProgress = errors.New("a payment for this ride is already in progress")
)

// CardError is a processor decline. Message is shown to the rider verbatim.
type CardError struct {
	Code    string
	Message string
}

func (e *CardError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("card declined (%s): %s", e.Code, e.Message)
	}
	return "card declined: " + e.Message
}

// Outcome of a payment attempt that did not fail
type Outcome string

const (
	// OutcomeConfirmed means the backend reflects the payment.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeTimedOut means the processor accepted the payment but the ride
	// did not reach an accepted status within the confirmation window.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeRideCancelled means the ride was cancelled before the backend
	// reflected the payment. Any charge is settled by the backend's refund.
	OutcomeRideCancelled Outcome = "ride_cancelled"
	// OutcomePending means a hosted payment page was opened and the return
	// callback has not arrived yet.
	OutcomePending Outcome = "pending"
)

// Request describes one payment
type Request struct {
	RideID   string
	BidID    string
	DriverID string
	Amount   money.Amount // minor units
	Currency string
	Purpose  models.PaymentPurpose
}

// Result of a payment that did not fail
type Result struct {
	Outcome Outcome
	Ride    *models.Ride // latest ride seen while confirming, if any
	URL     string       // hosted payment page, link flow only
}

func backendErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
}

func configErr(what string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, what)
}
