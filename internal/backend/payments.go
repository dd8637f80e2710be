package backend

import (
	"context"

	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/models"
)

// CreatePaymentLink requests a hosted payment page.
func (c *Client) CreatePaymentLink(ctx context.Context, req models.PaymentLinkRequest) (*models.PaymentLink, error) {
	var link models.PaymentLink
	if err := c.postOnce(ctx, "/api/payments/link", "link-"+req.Reference, req, &link); err != nil {
		return nil, err
	}
	if !link.Success || link.URL == "" {
		return nil, common.NewPaymentRequiredError("Payment link could not be created", nil)
	}
	return &link, nil
}

// CreatePaymentIntent starts an embedded card payment for a bid.
func (c *Client) CreatePaymentIntent(ctx context.Context, req models.CreatePaymentIntentRequest) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	if err := c.post(ctx, "/api/stripe/create-payment-intent", req, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// CreateTipPaymentIntent starts an embedded card payment for a tip.
func (c *Client) CreateTipPaymentIntent(ctx context.Context, rideID string, req models.TipPaymentIntentRequest) (*models.PaymentIntent, error) {
	if err := requireID("ride id", rideID); err != nil {
		return nil, err
	}
	var pi models.PaymentIntent
	if err := c.post(ctx, ridePath(rideID, "tips", "payment-intent"), req, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// ConfirmPaymentSuccess reports a completed hosted payment back to the backend.
func (c *Client) ConfirmPaymentSuccess(ctx context.Context, rideID string, req models.PaymentSuccessRequest) error {
	if err := requireID("ride id", rideID); err != nil {
		return err
	}
	if err := c.postOnce(ctx, ridePath(rideID, "payment-success"), "psp-"+req.PSPReference, req, nil); err != nil {
		return err
	}
	c.invalidateRide(ctx, rideID)
	return nil
}
