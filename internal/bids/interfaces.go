package bids

import (
	"context"

	"github.com/richxcame/rider-client/internal/payments"
	"github.com/richxcame/rider-client/pkg/models"
)

// BidClient lists the bids on a ride
type BidClient interface {
	ListBids(ctx context.Context, rideID string) ([]models.DriverBid, error)
}

// Payer collects the payment for a chosen bid
type Payer interface {
	Pay(ctx context.Context, req payments.Request) (*payments.Result, error)
}
