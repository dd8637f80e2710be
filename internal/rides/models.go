package rides

import (
	"errors"

	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/models"
)

// Actions are the rider actions offered for a ride status
type Actions struct {
	CanCancel bool
	CanReport bool
	CanFinish bool
}

// ActionsFor derives the offered actions from status alone.
func ActionsFor(status models.RideStatus) Actions {
	var a Actions
	switch status {
	case models.RideStatusPending, models.RideStatusSearchingDriver,
		models.RideStatusDriverAssigned, models.RideStatusAccepted:
		a.CanCancel = true
	}
	switch status {
	case models.RideStatusAccepted, models.RideStatusDriverAssigned, models.RideStatusDriverArriving,
		models.RideStatusDriverArrived, models.RideStatusInProgress:
		a.CanReport = true
	}
	switch status {
	case models.RideStatusAccepted, models.RideStatusInProgress:
		a.CanFinish = true
	}
	return a
}

// View is one published snapshot of a tracked ride
type View struct {
	Ride    models.Ride
	Actions Actions
}

// FinishState is the step of the post-ride flow
type FinishState string

const (
	FinishIdle      FinishState = "idle"
	FinishRating    FinishState = "rating"
	FinishRateSent  FinishState = "rating_sent" // rating request in flight
	FinishTipping   FinishState = "tipping"
	FinishFinishing FinishState = "finishing"
	FinishDone      FinishState = "done"
)

var (
	// ErrRatingRequired is returned when tipping or finishing is attempted before rating.
	ErrRatingRequired = errors.New("rate the ride before tipping or finishing")
	// ErrAlreadyFinished is returned for any step after the ride was finished.
	ErrAlreadyFinished = errors.New("ride already finished")
)

func unavailable(action string, status models.RideStatus) error {
	return common.NewForbiddenError(action + " is not available while the ride is " + string(status))
}
