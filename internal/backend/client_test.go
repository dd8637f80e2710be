package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richxcame/rider-client/internal/querycache"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/httpclient"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *querycache.Cache) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cache := querycache.New(querycache.NewMemoryStore(), time.Minute, nil)
	return New(httpclient.NewClient(server.URL), cache, nil), cache
}

func TestGetRide_BareAndWrapped(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/rides/r1":
			w.Write([]byte(`{"id":"r1","status":"accepted","room_name":"ride-r1"}`))
		case "/api/rides/r2":
			w.Write([]byte(`{"ride":{"id":"r2","status":"in_progress"}}`))
		}
	})

	r1, err := c.GetRide(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusAccepted, r1.Status)
	assert.Equal(t, "ride-r1", r1.ChatRoom)

	r2, err := c.GetRide(context.Background(), "r2")
	require.NoError(t, err)
	assert.Equal(t, "r2", r2.ID)
	assert.Equal(t, models.RideStatusInProgress, r2.Status)
}

func TestGetRide_EmptyID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.GetRide(context.Background(), " ")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestMapError_UsesServerMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Ride can no longer be cancelled"}`))
	})

	err := c.CancelRide(context.Background(), "r1", "changed plans")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Code)
	assert.Equal(t, "Ride can no longer be cancelled", appErr.Message)
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "a", serverMessage(`{"error":"a"}`))
	assert.Equal(t, "b", serverMessage(`{"error":{"message":"b"}}`))
	assert.Equal(t, "c", serverMessage(`{"message":"c"}`))
	assert.Equal(t, "", serverMessage(`<html>`))
}

func TestMapError_Transport(t *testing.T) {
	err := mapError(errors.New("dial tcp: refused"))
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Code)

	err = mapError(resilience.ErrCircuitOpen)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	assert.Equal(t, context.Canceled, mapError(context.Canceled))
}

func TestSearchLocations_EscapesQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/locations/search", r.URL.Path)
		assert.Equal(t, "main st & 5th", r.URL.Query().Get("query"))
		w.Write([]byte(`{"suggestions":[{"id":"s1","display_name":"Main St","formatted_address":"1 Main St","lat":1.5,"lng":2.5}]}`))
	})

	got, err := c.SearchLocations(context.Background(), "main st & 5th")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1 Main St", got[0].FormattedAddress)
	assert.Equal(t, 2.5, got[0].Longitude)
}

func TestRideTypesByCategory_CachedPerKey(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "cat-1", r.URL.Query().Get("categoryId"))
		assert.Equal(t, "in_city", r.URL.Query().Get("tripArea"))
		w.Write([]byte(`{"rideTypes":[{"id":"t1","title":"Economy"}]}`))
	})

	for i := 0; i < 3; i++ {
		types, err := c.RideTypesByCategory(context.Background(), "cat-1", models.TripAreaInCity)
		require.NoError(t, err)
		assert.Len(t, types, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFinishRide_IdempotentAndInvalidates(t *testing.T) {
	var listCalls int32
	var key string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/rides":
			atomic.AddInt32(&listCalls, 1)
			w.Write([]byte(`[{"id":"r1","status":"completed"}]`))
		case "/api/rides/r1/finish":
			key = r.Header.Get(httpclient.IdempotencyHeader)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	_, err := c.ListRides(context.Background())
	require.NoError(t, err)
	_, err = c.ListRides(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&listCalls))

	require.NoError(t, c.FinishRide(context.Background(), "r1"))
	assert.Equal(t, "finish-r1", key)

	_, err = c.ListRides(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&listCalls))
}

func TestRateRide_Validates(t *testing.T) {
	var body map[string]interface{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	})

	err := c.RateRide(context.Background(), "r1", 5, "")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Nil(t, body)

	require.NoError(t, c.RateRide(context.Background(), "r1", models.RatingPositive, "🙂"))
	assert.Equal(t, float64(2), body["rating"])
	assert.Equal(t, "🙂", body["emoji"])
}

func TestListBids(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rides/r1/requests", r.URL.Path)
		w.Write([]byte(`{"requests":[{"id":"b1","driver":{"id":"d1","name":"Ann"},"estimated_fare_min":10,"estimated_fare_max":12.5}]}`))
	})

	bids, err := c.ListBids(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, 12.5, bids[0].QuotedFare())
}

func TestCreatePaymentLink(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.PaymentLinkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(1250), req.Amount.Value)
		assert.Equal(t, "link-r1-b1", r.Header.Get(httpclient.IdempotencyHeader))
		if req.Reference == "r1-b1" {
			w.Write([]byte(`{"success":true,"url":"https://pay.example/x"}`))
			return
		}
		w.Write([]byte(`{"success":false}`))
	})

	link, err := c.CreatePaymentLink(context.Background(), models.PaymentLinkRequest{
		Reference: "r1-b1",
		Amount:    models.PaymentLinkAmount{Currency: "USD", Value: 1250},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/x", link.URL)
}

func TestSubmitReport_ForcesPending(t *testing.T) {
	var got models.Report
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.SubmitReport(context.Background(), models.Report{RideID: "r1", ViolationTypeID: "v1", Status: "resolved"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, got.Status)

	err = c.SubmitReport(context.Background(), models.Report{RideID: "r1"})
	assert.Error(t, err)
}
