package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRideStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     RideStatus
		to       RideStatus
		expected bool
	}{
		{RideStatusPending, RideStatusSearchingDriver, true},
		{RideStatusSearchingDriver, RideStatusAccepted, true},
		{RideStatusSearchingDriver, RideStatusDriverAssigned, true},
		{RideStatusAccepted, RideStatusDriverArriving, true},
		{RideStatusDriverArriving, RideStatusDriverArrived, true},
		{RideStatusDriverArrived, RideStatusInProgress, true},
		{RideStatusInProgress, RideStatusCompleted, true},
		{RideStatusAccepted, RideStatusCompleted, true},
		{RideStatusDriverArrived, RideStatusCompleted, false},
		{RideStatusPending, RideStatusCompleted, false},
		{RideStatusInProgress, RideStatusPending, false},
		{RideStatusDriverAssigned, RideStatusAccepted, false},
		{RideStatusPending, RideStatusCancelled, true},
		{RideStatusInProgress, RideStatusCancelled, true},
		{RideStatusCompleted, RideStatusCancelled, false},
		{RideStatusCancelled, RideStatusPending, false},
		{RideStatusPending, RideStatus("teleported"), false},
		{RideStatusAccepted, RideStatusAccepted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRideStatus_Predicates(t *testing.T) {
	assert.True(t, RideStatusPending.IsBidding())
	assert.True(t, RideStatusSearchingDriver.IsBidding())
	assert.False(t, RideStatusAccepted.IsBidding())

	assert.True(t, RideStatusCompleted.IsTerminal())
	assert.True(t, RideStatusCancelled.IsTerminal())
	assert.False(t, RideStatusInProgress.IsTerminal())

	assert.True(t, RideStatusAccepted.IsAcceptedFamily())
	assert.True(t, RideStatusDriverAssigned.IsAcceptedFamily())
	assert.False(t, RideStatusSearchingDriver.IsAcceptedFamily())
	assert.False(t, RideStatusCancelled.IsAcceptedFamily())

	assert.Equal(t, -1, RideStatusCancelled.Rank())
	assert.False(t, RideStatus("").Valid())
}

func TestDriverBid_QuotedFare(t *testing.T) {
	assert.Equal(t, 18.5, DriverBid{EstimatedFareMin: 12, EstimatedFareMax: 18.5}.QuotedFare())
	assert.Equal(t, 12.0, DriverBid{EstimatedFareMin: 12}.QuotedFare())
}

func TestTipBounds_Contains(t *testing.T) {
	b := TipBounds{Min: 1, Max: 20}
	assert.True(t, b.Contains(1))
	assert.True(t, b.Contains(20))
	assert.False(t, b.Contains(0.5))
	assert.False(t, b.Contains(20.01))
	assert.True(t, TipBounds{Min: 1}.Contains(500))
}

func TestDisplayID(t *testing.T) {
	assert.Equal(t, "#2E4F1A", DisplayID("8c1d0a3e-77b0-4c2e-9f0d-5b1c9d2e4f1a"))
	assert.Equal(t, DisplayID("drv-42"), DisplayID("drv-42"))
	assert.Equal(t, "#DRV42", DisplayID("drv-42"))
	assert.Equal(t, "", DisplayID("---"))
}
