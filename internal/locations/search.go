package locations

import (
	"context"

	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// TripSearch pairs the pickup and dropoff autocompletes over one trip form.
// The two dropdowns are independent and may be open at the same time.
type TripSearch struct {
	Form    *TripForm
	Pickup  *Autocomplete
	Dropoff *Autocomplete

	routes RouteClient
	logger *zap.Logger
}

// NewTripSearch builds both autocompletes. routes may be nil.
func NewTripSearch(ctx context.Context, client SearchClient, routes RouteClient, opts Options) *TripSearch {
	form := &TripForm{}
	return &TripSearch{
		Form:    form,
		Pickup:  NewAutocomplete(ctx, FieldPickup, client, form, opts),
		Dropoff: NewAutocomplete(ctx, FieldDropoff, client, form, opts),
		routes:  routes,
		logger:  logger.OrNop(opts.Logger),
	}
}

// Field returns the autocomplete for field
func (t *TripSearch) Field(f Field) *Autocomplete {
	if f == FieldPickup {
		return t.Pickup
	}
	return t.Dropoff
}

// HandlePointerDown forwards the event to both dropdowns; each closes only itself.
func (t *TripSearch) HandlePointerDown(x, y float64) {
	t.Pickup.HandlePointerDown(x, y)
	t.Dropoff.HandlePointerDown(x, y)
}

// RoutePreview estimates the trip once both endpoints are set. It returns nil
// when routing is not configured, the form is incomplete or OSRM fails.
func (t *TripSearch) RoutePreview(ctx context.Context) *Route {
	if t.routes == nil {
		return nil
	}
	from, ok1 := t.Form.Get(FieldPickup)
	to, ok2 := t.Form.Get(FieldDropoff)
	if !ok1 || !ok2 {
		return nil
	}
	r, err := t.routes.Route(ctx, from, to)
	if err != nil {
		t.logger.Warn("route preview unavailable", zap.Error(err))
		return nil
	}
	return r
}

// Request builds the ride creation body from the committed form.
func (t *TripSearch) Request(rideTypeID string, riders, pets int, area models.TripArea) (models.CreateRideRequest, bool) {
	from, ok1 := t.Form.Get(FieldPickup)
	to, ok2 := t.Form.Get(FieldDropoff)
	if !ok1 || !ok2 {
		return models.CreateRideRequest{}, false
	}
	return models.CreateRideRequest{
		Pickup:     from,
		Dropoff:    to,
		RideTypeID: rideTypeID,
		RiderCount: riders,
		PetCount:   pets,
		TripArea:   string(area),
	}, true
}

// Close stops both autocompletes
func (t *TripSearch) Close() {
	t.Pickup.Close()
	t.Dropoff.Close()
}
