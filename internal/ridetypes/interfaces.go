package ridetypes

import (
	"context"

	"github.com/richxcame/rider-client/pkg/models"
)

// CatalogClient fetches ride types from the backend
type CatalogClient interface {
	RideTypesByCategory(ctx context.Context, categoryID string, area models.TripArea) ([]models.RideType, error)
}
