package backend

import (
	"context"
	"net/url"
	"strings"

	"github.com/richxcame/rider-client/internal/querycache"
	"github.com/richxcame/rider-client/pkg/models"
)

// SearchLocations runs the autocomplete query.
func (c *Client) SearchLocations(ctx context.Context, query string) ([]models.LocationSuggestion, error) {
	var resp struct {
		Suggestions []models.LocationSuggestion `json:"suggestions"`
	}
	if err := c.get(ctx, "/api/locations/search?query="+url.QueryEscape(query), &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// RideTypesByCategory lists offerings for a trip area, optionally narrowed to a category.
func (c *Client) RideTypesByCategory(ctx context.Context, categoryID string, area models.TripArea) ([]models.RideType, error) {
	key := querycache.Key("ride-types", strings.ToLower(categoryID), string(area))
	return querycache.Fetch(ctx, c.cache, key, func(ctx context.Context) ([]models.RideType, error) {
		q := url.Values{}
		q.Set("categoryId", categoryID)
		q.Set("tripArea", string(area))

		var resp struct {
			RideTypes []models.RideType `json:"rideTypes"`
		}
		if err := c.get(ctx, "/api/ride-types/by-category?"+q.Encode(), &resp); err != nil {
			return nil, err
		}
		return resp.RideTypes, nil
	})
}

// ViolationTypes returns the reference list for driver reports.
func (c *Client) ViolationTypes(ctx context.Context) ([]models.ViolationType, error) {
	return querycache.Fetch(ctx, c.cache, "violation-types", func(ctx context.Context) ([]models.ViolationType, error) {
		var raw struct {
			ViolationTypes []models.ViolationType `json:"violationTypes"`
			Data           []models.ViolationType `json:"data"`
		}
		if err := c.get(ctx, "/api/violation-types", &raw); err != nil {
			return nil, err
		}
		if len(raw.ViolationTypes) > 0 {
			return raw.ViolationTypes, nil
		}
		return raw.Data, nil
	})
}
