package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"
)

// StripeConfirmer confirms payment intents through the Stripe API.
type StripeConfirmer struct {
	client    *stripe.Client
	returnURL string
}

// NewStripeConfirmer creates a confirmer for the given secret key. An empty
// key yields nil so callers fall into the configuration error path.
func NewStripeConfirmer(apiKey, returnURL string) *StripeConfirmer {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &StripeConfirmer{client: stripe.NewClient(apiKey), returnURL: returnURL}
}

// Confirm confirms the intent behind clientSecret with paymentMethod.
func (c *StripeConfirmer) Confirm(ctx context.Context, clientSecret, paymentMethod string) error {
	if c == nil || c.client == nil {
		return configErr("stripe is not configured")
	}
	id, err := PaymentIntentIDFromSecret(clientSecret)
	if err != nil {
		return err
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return configErr("no payment method")
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	if c.returnURL != "" {
		params.ReturnURL = stripe.String(c.returnURL)
	}

	pi, err := c.client.V1PaymentIntents.Confirm(ctx, id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return &CardError{Code: string(stripeErr.Code), Message: stripeErr.Msg}
		}
		return fmt.Errorf("stripe confirm: %w", err)
	}
	return checkIntentStatus(pi)
}

func checkIntentStatus(pi *stripe.PaymentIntent) error {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded,
		stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresCapture:
		return nil
	case stripe.PaymentIntentStatusRequiresAction:
		return &CardError{Code: "authentication_required", Message: "Your bank requires additional authentication for this payment"}
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			return &CardError{Code: string(pi.LastPaymentError.Code), Message: pi.LastPaymentError.Msg}
		}
		return &CardError{Message: "Your card was declined"}
	}
	return fmt.Errorf("unexpected payment intent status %q", pi.Status)
}

// PaymentIntentIDFromSecret extracts "pi_123" from "pi_123_secret_abc".
func PaymentIntentIDFromSecret(clientSecret string) (string, error) {
	i := strings.Index(clientSecret, "_secret_")
	if i <= 0 || !strings.HasPrefix(clientSecret, "pi_") {
		return "", configErr("malformed client secret")
	}
	return clientSecret[:i], nil
}
