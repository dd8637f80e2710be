package locations

import (
	"context"
	"fmt"
	"time"

	"github.com/richxcame/rider-client/pkg/httpclient"
	"github.com/richxcame/rider-client/pkg/models"
)

// Route is a driving estimate between pickup and dropoff
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Duration returns the estimate as a time.Duration
func (r Route) Duration() time.Duration {
	return time.Duration(r.DurationSeconds * float64(time.Second))
}

// OSRMClient performs route lookups against an OSRM HTTP server.
type OSRMClient struct {
	http *httpclient.Client
}

// NewOSRMClient creates a client for the OSRM server at endpoint
func NewOSRMClient(endpoint string, timeout time.Duration) *OSRMClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &OSRMClient{http: httpclient.NewClient(endpoint, timeout)}
}

// Route queries /route/v1/driving between the two points.
func (o *OSRMClient) Route(ctx context.Context, from, to models.Location) (*Route, error) {
	path := fmt.Sprintf("/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false",
		from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	var out struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
	}
	if err := o.http.GetJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to query osrm: %w", err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return nil, fmt.Errorf("osrm no route: %v", out.Code)
	}
	return &Route{DistanceMeters: out.Routes[0].Distance, DurationSeconds: out.Routes[0].Duration}, nil
}
