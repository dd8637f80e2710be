package backend

import (
	"context"
	"encoding/json"

	"github.com/richxcame/rider-client/internal/querycache"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/validation"
)

// rideEnvelope accepts both a bare ride and {"ride": {...}}.
type rideEnvelope struct {
	models.Ride
	Wrapped *models.Ride `json:"ride"`
}

func (e *rideEnvelope) get() *models.Ride {
	if e.Wrapped != nil {
		return e.Wrapped
	}
	r := e.Ride
	return &r
}

// ListRides returns the rider's rides.
func (c *Client) ListRides(ctx context.Context) ([]models.Ride, error) {
	return querycache.Fetch(ctx, c.cache, querycache.Key("rides", "list"), func(ctx context.Context) ([]models.Ride, error) {
		var raw json.RawMessage
		if err := c.get(ctx, "/api/rides", &raw); err != nil {
			return nil, err
		}
		var rides []models.Ride
		if err := json.Unmarshal(raw, &rides); err == nil {
			return rides, nil
		}
		var wrapped struct {
			Rides []models.Ride `json:"rides"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, common.NewInternalError("unexpected response from server", err)
		}
		return wrapped.Rides, nil
	})
}

// CreateRide books a new ride.
func (c *Client) CreateRide(ctx context.Context, req models.CreateRideRequest) (*models.Ride, error) {
	// nested locations are validated too: "pickup.address is required"
	if err := validation.Struct(req); err != nil {
		return nil, common.NewBadRequestError(err.Error(), err)
	}

	var env rideEnvelope
	if err := c.post(ctx, "/api/rides", req, &env); err != nil {
		return nil, err
	}
	c.cache.Invalidate(ctx, querycache.Key("rides", "list"))
	return env.get(), nil
}

// GetRide fetches the current server state of a ride. Never cached: pollers depend on it.
func (c *Client) GetRide(ctx context.Context, rideID string) (*models.Ride, error) {
	if err := requireID("ride id", rideID); err != nil {
		return nil, err
	}
	var env rideEnvelope
	if err := c.get(ctx, ridePath(rideID), &env); err != nil {
		return nil, err
	}
	return env.get(), nil
}

// CancelRide cancels a ride with a free-text reason.
func (c *Client) CancelRide(ctx context.Context, rideID, reason string) error {
	if err := requireID("ride id", rideID); err != nil {
		return err
	}
	body := map[string]string{"reason": reason}
	if err := c.postOnce(ctx, ridePath(rideID, "cancel"), "cancel-"+rideID, body, nil); err != nil {
		return err
	}
	c.invalidateRide(ctx, rideID)
	return nil
}

// RateRide persists a 1 (negative) or 2 (positive) rating with an optional emoji.
func (c *Client) RateRide(ctx context.Context, rideID string, rating int, emoji string) error {
	if err := requireID("ride id", rideID); err != nil {
		return err
	}
	input := struct {
		Rating int    `json:"rating" validate:"ride_rating"`
		Emoji  string `json:"emoji,omitempty"`
	}{Rating: rating, Emoji: emoji}
	if err := validation.Struct(input); err != nil {
		return common.NewBadRequestError(err.Error(), err)
	}
	if err := c.post(ctx, ridePath(rideID, "rate"), input, nil); err != nil {
		return err
	}
	c.invalidateRide(ctx, rideID)
	return nil
}

// FinishRide closes the post-ride flow.
func (c *Client) FinishRide(ctx context.Context, rideID string) error {
	if err := requireID("ride id", rideID); err != nil {
		return err
	}
	if err := c.postOnce(ctx, ridePath(rideID, "finish"), "finish-"+rideID, nil, nil); err != nil {
		return err
	}
	c.invalidateRide(ctx, rideID)
	return nil
}

// RefundQuote returns the non-binding refund estimate for cancelling.
func (c *Client) RefundQuote(ctx context.Context, rideID string) (*models.RefundQuote, error) {
	if err := requireID("ride id", rideID); err != nil {
		return nil, err
	}
	var q models.RefundQuote
	if err := c.get(ctx, ridePath(rideID, "refund-quote"), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// TipBounds returns the advisory tip range for a ride.
func (c *Client) TipBounds(ctx context.Context, rideID string) (*models.TipBounds, error) {
	if err := requireID("ride id", rideID); err != nil {
		return nil, err
	}
	return querycache.Fetch(ctx, c.cache, querycache.Key("rides", rideID, "tip-bounds"), func(ctx context.Context) (*models.TipBounds, error) {
		var b models.TipBounds
		if err := c.get(ctx, ridePath(rideID, "tip-bounds"), &b); err != nil {
			return nil, err
		}
		return &b, nil
	})
}

// ListBids returns the driver bids on a pending ride.
func (c *Client) ListBids(ctx context.Context, rideID string) ([]models.DriverBid, error) {
	if err := requireID("ride id", rideID); err != nil {
		return nil, err
	}
	var resp struct {
		Requests []models.DriverBid `json:"requests"`
	}
	if err := c.get(ctx, ridePath(rideID, "requests"), &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

func (c *Client) invalidateRide(ctx context.Context, rideID string) {
	c.cache.Invalidate(ctx, cacheKeyRide(rideID), querycache.Key("rides", "list"))
}
