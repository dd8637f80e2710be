package models

import (
	"time"
)

// RideStatus is the server-authoritative lifecycle field of a ride
type RideStatus string

const (
	RideStatusPending         RideStatus = "pending"
	RideStatusSearchingDriver RideStatus = "searching_driver"
	RideStatusDriverAssigned  RideStatus = "driver_assigned"
	RideStatusAccepted        RideStatus = "accepted"
	RideStatusDriverArriving  RideStatus = "driver_arriving"
	RideStatusDriverArrived   RideStatus = "driver_arrived"
	RideStatusInProgress      RideStatus = "in_progress"
	RideStatusCompleted       RideStatus = "completed"
	RideStatusCancelled       RideStatus = "cancelled"
)

// statusRank orders statuses along the forward lifecycle. driver_assigned and
// accepted share a rank: the backend emits either one once a driver is chosen.
var statusRank = map[RideStatus]int{
	RideStatusPending:         0,
	RideStatusSearchingDriver: 1,
	RideStatusDriverAssigned:  2,
	RideStatusAccepted:        2,
	RideStatusDriverArriving:  3,
	RideStatusDriverArrived:   4,
	RideStatusInProgress:      5,
	RideStatusCompleted:       6,
}

// Valid reports whether s is one of the known statuses
func (s RideStatus) Valid() bool {
	if s == RideStatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of s in the forward ordering, or -1 for cancelled/unknown.
func (s RideStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// IsTerminal reports whether no further transitions are expected
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// IsBidding reports whether drivers can still bid on the ride
func (s RideStatus) IsBidding() bool {
	return s == RideStatusPending || s == RideStatusSearchingDriver
}

// IsAcceptedFamily reports whether a driver has been secured (payment confirmed).
func (s RideStatus) IsAcceptedFamily() bool {
	switch s {
	case RideStatusAccepted, RideStatusDriverAssigned, RideStatusDriverArriving,
		RideStatusDriverArrived, RideStatusInProgress, RideStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next respects the forward
// ordering: cancelled is reachable from any pre-completed state, completed only
// from accepted or in_progress.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	switch next {
	case RideStatusCancelled:
		return true
	case RideStatusCompleted:
		return s == RideStatusAccepted || s == RideStatusInProgress
	}
	return next.Rank() > s.Rank()
}

// Location is a named point
type Location struct {
	Address   string  `json:"address" validate:"required"`
	Latitude  float64 `json:"lat" validate:"latitude"`
	Longitude float64 `json:"lng" validate:"longitude"`
}

// Rating values accepted by the backend
const (
	RatingNegative = 1
	RatingPositive = 2
)

// Ride is the client-side copy of a ride
type Ride struct {
	ID                 string     `json:"id"`
	Pickup             Location   `json:"pickup"`
	Dropoff            Location   `json:"dropoff"`
	Status             RideStatus `json:"status"`
	FareTotal          float64    `json:"fare_total"`
	TipAmount          float64    `json:"tip_amount"`
	Currency           string     `json:"currency,omitempty"`
	RiderCount         int        `json:"rider_count"`
	PetCount           int        `json:"pet_count"`
	DriverID           *string    `json:"driver_id,omitempty"`
	Driver             *Driver    `json:"driver,omitempty"`
	Rating             *int       `json:"rating,omitempty"`
	RatingEmoji        *string    `json:"rating_emoji,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	ChatRoom           string     `json:"room_name,omitempty"`
	ChatSessionID      string     `json:"chat_session_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

// CreateRideRequest is the body of POST /api/rides
type CreateRideRequest struct {
	Pickup     Location `json:"pickup"`
	Dropoff    Location `json:"dropoff"`
	RideTypeID string   `json:"ride_type_id" validate:"required"`
	RiderCount int      `json:"rider_count" validate:"gte=1,lte=8"`
	PetCount   int      `json:"pet_count" validate:"gte=0,lte=4"`
	TripArea   string   `json:"trip_area" validate:"omitempty,oneof=in_city out_of_city"`
}

// Driver is the public profile of a driver
type Driver struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	VehicleType string   `json:"vehicle_type"`
	Rating      *float64 `json:"rating,omitempty"`
}

// DisplayID derives the short driver id shown to riders: the last six
// alphanumerics of the id, upper-cased.
func DisplayID(id string) string {
	var b []byte
	for i := len(id) - 1; i >= 0 && len(b) < 6; i-- {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
			b = append(b, c-'a'+'A')
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b = append(b, c)
		}
	}
	if len(b) == 0 {
		return ""
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return "#" + string(b)
}

// DriverBid is a driver's offer on a pending ride
type DriverBid struct {
	ID                string    `json:"id"`
	RideID            string    `json:"ride_id"`
	Driver            Driver    `json:"driver"`
	EstimatedFareMin  float64   `json:"estimated_fare_min"`
	EstimatedFareMax  float64   `json:"estimated_fare_max"`
	EstimatedDuration int       `json:"estimated_duration"` // minutes
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// QuotedFare is the amount the rider pays when choosing the bid: the upper bound of the range.
func (b DriverBid) QuotedFare() float64 {
	if b.EstimatedFareMax > 0 {
		return b.EstimatedFareMax
	}
	return b.EstimatedFareMin
}

// TipBounds is the advisory tip range for a ride
type TipBounds struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency,omitempty"`
}

// Contains reports whether amount (major units) falls within the bounds
func (b TipBounds) Contains(amount float64) bool {
	if amount < b.Min {
		return false
	}
	return b.Max <= 0 || amount <= b.Max
}

// RefundQuote is the non-binding refund estimate on cancellation
type RefundQuote struct {
	RefundAmount    float64 `json:"refund_amount"`
	CancellationFee float64 `json:"cancellation_fee"`
	Currency        string  `json:"currency,omitempty"`
	Message         string  `json:"message,omitempty"`
}
