package payments

import (
	"context"

	"github.com/richxcame/rider-client/pkg/models"
)

// RideGetter reads the canonical ride
type RideGetter interface {
	GetRide(ctx context.Context, rideID string) (*models.Ride, error)
}

// Backend is the subset of the REST client the payment flows call
type Backend interface {
	RideGetter
	CreatePaymentLink(ctx context.Context, req models.PaymentLinkRequest) (*models.PaymentLink, error)
	CreatePaymentIntent(ctx context.Context, req models.CreatePaymentIntentRequest) (*models.PaymentIntent, error)
	CreateTipPaymentIntent(ctx context.Context, rideID string, req models.TipPaymentIntentRequest) (*models.PaymentIntent, error)
	ConfirmPaymentSuccess(ctx context.Context, rideID string, req models.PaymentSuccessRequest) error
}

// Strategy collects one payment
type Strategy interface {
	Name() string
	Pay(ctx context.Context, req Request) (*Result, error)
}

// CardConfirmer confirms a payment intent with the card processor
type CardConfirmer interface {
	Confirm(ctx context.Context, clientSecret, paymentMethod string) error
}

// Opener shows a hosted payment page to the rider
type Opener interface {
	Open(ctx context.Context, url string) error
}
