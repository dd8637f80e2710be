package locations

import (
	"sync"

	"github.com/richxcame/rider-client/pkg/models"
)

// MinQueryLength is the shortest query that reaches the backend.
const MinQueryLength = 2

// State is the lifecycle of one autocomplete lookup
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateResults State = "results"
	StateEmpty   State = "empty"
	StateFailed  State = "failed"
)

// Field names one of the two trip endpoints
type Field string

const (
	FieldPickup  Field = "pickup"
	FieldDropoff Field = "dropoff"
)

// View is what a dropdown renders
type View struct {
	Field       Field
	Query       string
	State       State
	Open        bool
	Suggestions []models.LocationSuggestion
	Message     string // placeholder for empty results or the failure text
}

// Bounds is the on-screen rectangle of a dropdown
type Bounds struct {
	X, Y          float64
	Width, Height float64
}

// Contains reports whether the point lies inside the rectangle
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}

// TripForm holds the committed pickup and dropoff
type TripForm struct {
	mu      sync.RWMutex
	pickup  *models.Location
	dropoff *models.Location
}

// Set commits a location to field
func (f *TripForm) Set(field Field, loc models.Location) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := loc
	if field == FieldPickup {
		f.pickup = &l
		return
	}
	f.dropoff = &l
}

// Get returns the committed location for field, if any
func (f *TripForm) Get(field Field) (models.Location, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p := f.dropoff
	if field == FieldPickup {
		p = f.pickup
	}
	if p == nil {
		return models.Location{}, false
	}
	return *p, true
}

// Complete reports whether both endpoints are set
func (f *TripForm) Complete() bool {
	_, ok1 := f.Get(FieldPickup)
	_, ok2 := f.Get(FieldDropoff)
	return ok1 && ok2
}
