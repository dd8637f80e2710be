package models

// PaymentPurpose says what a payment is for
type PaymentPurpose string

const (
	PaymentPurposeBid PaymentPurpose = "bid_selection"
	PaymentPurposeTip PaymentPurpose = "tip"
)

// PaymentIntent is the embedded-flow handle returned by the backend
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
	ID           string `json:"id,omitempty"`
}

// PaymentLinkAmount is the amount block of a payment link request
type PaymentLinkAmount struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

// PaymentLinkRequest is the body of POST /api/payments/link
type PaymentLinkRequest struct {
	MerchantAccount string            `json:"merchantAccount"`
	Amount          PaymentLinkAmount `json:"amount"`
	Reference       string            `json:"reference"`
	Description     string            `json:"description"`
	ReturnURL       string            `json:"returnUrl"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// PaymentLink is the hosted payment page returned by the backend
type PaymentLink struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	ID      string `json:"id,omitempty"`
}

// CreatePaymentIntentRequest is the body of POST /api/stripe/create-payment-intent
type CreatePaymentIntentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TipPaymentIntentRequest is the body of POST /api/rides/:id/tips/payment-intent
type TipPaymentIntentRequest struct {
	DriverID  string `json:"driver_id"`
	TipAmount int64  `json:"tip_amount"`
}

// PaymentSuccessRequest is the body of POST /api/rides/:id/payment-success
type PaymentSuccessRequest struct {
	PSPReference string `json:"pspReference"`
	ResultCode   string `json:"resultCode"`
}
