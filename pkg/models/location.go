package models

// LocationSuggestion is one autocomplete result
type LocationSuggestion struct {
	ID               string  `json:"id"`
	DisplayName      string  `json:"display_name"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lng"`
	Category         string  `json:"category,omitempty"`
}

// TripArea scopes ride types to in-city or out-of-city trips
type TripArea string

const (
	TripAreaInCity    TripArea = "in_city"
	TripAreaOutOfCity TripArea = "out_of_city"
)

// RideType is a selectable product offering
type RideType struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	CategoryID  *string  `json:"category_id,omitempty"`
	TripArea    TripArea `json:"trip_area,omitempty"`
	Capacity    int      `json:"capacity,omitempty"`
	BasePrice   float64  `json:"base_price,omitempty"`
}
