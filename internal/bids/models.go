package bids

import (
	"time"

	"github.com/richxcame/rider-client/pkg/money"
)

// BidView is one driver offer as shown to the rider
type BidView struct {
	ID          string
	DriverID    string
	DisplayID   string
	DriverName  string
	Rating      string // formatted rating, or the "new driver" placeholder
	VehicleType string
	Fare        money.Amount
	FareText    string
	Duration    time.Duration
	Notes       string
	Paying      bool
}

// View is the whole feed. Visible is false once the ride stops accepting bids.
type View struct {
	RideID  string
	Visible bool
	Bids    []BidView
}
