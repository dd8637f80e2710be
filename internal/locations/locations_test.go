package locations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/richxcame/rider-client/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearchClient struct {
	mock.Mock
}

func (m *MockSearchClient) SearchLocations(ctx context.Context, query string) ([]models.LocationSuggestion, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LocationSuggestion), args.Error(1)
}

type viewLog struct {
	mu    sync.Mutex
	views []View
}

func (l *viewLog) add(v View) {
	l.mu.Lock()
	l.views = append(l.views, v)
	l.mu.Unlock()
}

func (l *viewLog) last() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.views) == 0 {
		return View{}
	}
	return l.views[len(l.views)-1]
}

func newTestAutocomplete(t *testing.T, client SearchClient) (*Autocomplete, *viewLog) {
	t.Helper()
	a := NewAutocomplete(context.Background(), FieldPickup, client, &TripForm{}, Options{Debounce: 10 * time.Millisecond})
	t.Cleanup(a.Close)
	log := &viewLog{}
	a.Subscribe(log.add)
	return a, log
}

var downtown = []models.LocationSuggestion{
	{ID: "loc-1", DisplayName: "Central Station", FormattedAddress: "1 Station Sq", Latitude: 37.95, Longitude: 58.38},
	{ID: "loc-2", DisplayName: "Central Park", FormattedAddress: "2 Park Ave", Latitude: 37.96, Longitude: 58.39},
}

func TestAutocomplete_ShortQueryClearsWithoutLookup(t *testing.T) {
	client := new(MockSearchClient)
	a, log := newTestAutocomplete(t, client)

	a.SetQuery("a")
	a.SetQuery(" b ")

	time.Sleep(40 * time.Millisecond)
	client.AssertNotCalled(t, "SearchLocations", mock.Anything, mock.Anything)
	v := log.last()
	assert.Equal(t, StateIdle, v.State)
	assert.False(t, v.Open)
	assert.Empty(t, v.Suggestions)
}

func TestAutocomplete_ShortQueryCancelsPendingLookup(t *testing.T) {
	client := new(MockSearchClient)
	a, _ := newTestAutocomplete(t, client)

	a.SetQuery("cen")
	a.SetQuery("c")

	time.Sleep(40 * time.Millisecond)
	client.AssertNotCalled(t, "SearchLocations", mock.Anything, mock.Anything)
}

func TestAutocomplete_DebouncesToLastQuery(t *testing.T) {
	client := new(MockSearchClient)
	client.On("SearchLocations", mock.Anything, "central").Return(downtown, nil).Once()
	a, log := newTestAutocomplete(t, client)

	a.SetQuery("ce")
	a.SetQuery("cen")
	a.SetQuery("central")

	require.Eventually(t, func() bool { return log.last().State == StateResults }, time.Second, 5*time.Millisecond)
	v := log.last()
	assert.True(t, v.Open)
	assert.Len(t, v.Suggestions, 2)
	client.AssertNumberOfCalls(t, "SearchLocations", 1)
}

func TestAutocomplete_EmptyAndFailedStayOpen(t *testing.T) {
	client := new(MockSearchClient)
	client.On("SearchLocations", mock.Anything, "nowhere").Return([]models.LocationSuggestion{}, nil)
	client.On("SearchLocations", mock.Anything, "broken").Return(nil, errors.New("connection refused"))
	a, log := newTestAutocomplete(t, client)

	a.SetQuery("nowhere")
	require.Eventually(t, func() bool { return log.last().State == StateEmpty }, time.Second, 5*time.Millisecond)
	empty := log.last()
	assert.True(t, empty.Open)

	a.SetQuery("broken")
	require.Eventually(t, func() bool { return log.last().State == StateFailed }, time.Second, 5*time.Millisecond)
	failed := log.last()
	assert.True(t, failed.Open)
	assert.NotEmpty(t, failed.Message)
	assert.NotEqual(t, empty.Message, failed.Message)
}

func TestAutocomplete_DiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	client := new(MockSearchClient)
	client.On("SearchLocations", mock.Anything, "old query").
		Run(func(mock.Arguments) { <-release }).
		Return(downtown, nil)
	client.On("SearchLocations", mock.Anything, "new query").Return(downtown[:1], nil)
	a, log := newTestAutocomplete(t, client)

	a.SetQuery("old query")
	require.Eventually(t, func() bool { return log.last().State == StateLoading }, time.Second, 5*time.Millisecond)

	a.SetQuery("new query")
	require.Eventually(t, func() bool { return log.last().State == StateResults }, time.Second, 5*time.Millisecond)
	close(release)
	time.Sleep(20 * time.Millisecond)

	v := a.View()
	require.Len(t, v.Suggestions, 1)
	assert.Equal(t, "loc-1", v.Suggestions[0].ID)
}

func TestAutocomplete_SelectCommitsAndCloses(t *testing.T) {
	client := new(MockSearchClient)
	client.On("SearchLocations", mock.Anything, "central").Return(downtown, nil)
	form := &TripForm{}
	a := NewAutocomplete(context.Background(), FieldDropoff, client, form, Options{Debounce: time.Millisecond})
	defer a.Close()

	a.SetQuery("central")
	require.Eventually(t, func() bool { return a.View().State == StateResults }, time.Second, 5*time.Millisecond)

	loc, ok := a.Select("loc-2")
	require.True(t, ok)
	assert.Equal(t, "2 Park Ave", loc.Address)
	assert.False(t, a.View().Open)

	got, ok := form.Get(FieldDropoff)
	require.True(t, ok)
	assert.Equal(t, 58.39, got.Longitude)
	_, ok = form.Get(FieldPickup)
	assert.False(t, ok)

	_, ok = a.Select("missing")
	assert.False(t, ok)
}

func TestTripSearch_DropdownsAreIndependent(t *testing.T) {
	client := new(MockSearchClient)
	client.On("SearchLocations", mock.Anything, mock.Anything).Return(downtown, nil)
	ts := NewTripSearch(context.Background(), client, nil, Options{Debounce: time.Millisecond})
	defer ts.Close()

	ts.Pickup.SetBounds(Bounds{X: 0, Y: 0, Width: 100, Height: 50})
	ts.Dropoff.SetBounds(Bounds{X: 0, Y: 60, Width: 100, Height: 50})

	ts.Pickup.SetQuery("central")
	ts.Dropoff.SetQuery("park")
	require.Eventually(t, func() bool {
		return ts.Pickup.View().Open && ts.Dropoff.View().Open
	}, time.Second, 5*time.Millisecond)

	ts.HandlePointerDown(10, 70)
	assert.False(t, ts.Pickup.View().Open)
	assert.True(t, ts.Dropoff.View().Open)

	ts.HandlePointerDown(500, 500)
	assert.False(t, ts.Dropoff.View().Open)
}

func TestAutocomplete_CloseIgnoresLateResponse(t *testing.T) {
	release := make(chan struct{})
	client := new(MockSearchClient)
	client.On("SearchLocations", mock.Anything, "central").
		Run(func(mock.Arguments) { <-release }).
		Return(downtown, nil)
	a, log := newTestAutocomplete(t, client)

	a.SetQuery("central")
	require.Eventually(t, func() bool { return log.last().State == StateLoading }, time.Second, 5*time.Millisecond)
	a.Close()
	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, StateLoading, log.last().State)
	a.SetQuery("again")
	assert.Equal(t, StateLoading, log.last().State)
}

func TestOSRMClient_Route(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/driving/58.380000,37.950000;58.390000,37.960000", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("overview"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":1520.5,"duration":240}]}`))
	}))
	defer srv.Close()

	r, err := NewOSRMClient(srv.URL, time.Second).Route(context.Background(),
		models.Location{Latitude: 37.95, Longitude: 58.38},
		models.Location{Latitude: 37.96, Longitude: 58.39})
	require.NoError(t, err)
	assert.Equal(t, 1520.5, r.DistanceMeters)
	assert.Equal(t, 4*time.Minute, r.Duration())
}

func TestOSRMClient_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL, time.Second).Route(context.Background(), models.Location{}, models.Location{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoRoute")
}

func TestTripSearch_RoutePreviewNeedsBothFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":10,"duration":60}]}`))
	}))
	defer srv.Close()

	ts := NewTripSearch(context.Background(), new(MockSearchClient), NewOSRMClient(srv.URL, time.Second), Options{})
	defer ts.Close()

	assert.Nil(t, ts.RoutePreview(context.Background()))
	ts.Form.Set(FieldPickup, models.Location{Address: "A"})
	ts.Form.Set(FieldDropoff, models.Location{Address: "B"})
	r := ts.RoutePreview(context.Background())
	require.NotNil(t, r)
	assert.Equal(t, time.Minute, r.Duration())

	req, ok := ts.Request("economy", 1, 0, models.TripAreaInCity)
	require.True(t, ok)
	assert.Equal(t, "A", req.Pickup.Address)
	assert.Equal(t, "in_city", req.TripArea)
}
