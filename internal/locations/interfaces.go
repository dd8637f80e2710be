package locations

import (
	"context"

	"github.com/richxcame/rider-client/pkg/models"
)

// SearchClient looks up location suggestions
type SearchClient interface {
	SearchLocations(ctx context.Context, query string) ([]models.LocationSuggestion, error)
}

// RouteClient estimates a driving route between two points
type RouteClient interface {
	Route(ctx context.Context, from, to models.Location) (*Route, error)
}
