package rides

import (
	"context"

	"github.com/richxcame/rider-client/internal/payments"
	"github.com/richxcame/rider-client/pkg/models"
)

// RideClient is the subset of the backend the ride flows call
type RideClient interface {
	GetRide(ctx context.Context, rideID string) (*models.Ride, error)
	CancelRide(ctx context.Context, rideID, reason string) error
	RefundQuote(ctx context.Context, rideID string) (*models.RefundQuote, error)
	RateRide(ctx context.Context, rideID string, rating int, emoji string) error
	TipBounds(ctx context.Context, rideID string) (*models.TipBounds, error)
	FinishRide(ctx context.Context, rideID string) error
	ViolationTypes(ctx context.Context) ([]models.ViolationType, error)
	SubmitReport(ctx context.Context, report models.Report) error
}

// Payer collects tips
type Payer interface {
	Pay(ctx context.Context, req payments.Request) (*payments.Result, error)
}
