package bids

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richxcame/rider-client/internal/payments"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBidClient struct {
	mock.Mock
}

func (m *MockBidClient) ListBids(ctx context.Context, rideID string) ([]models.DriverBid, error) {
	args := m.Called(ctx, rideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DriverBid), args.Error(1)
}

type MockPayer struct {
	mock.Mock
}

func (m *MockPayer) Pay(ctx context.Context, req payments.Request) (*payments.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Result), args.Error(1)
}

type views struct {
	mu  sync.Mutex
	all []View
}

func (v *views) add(view View) {
	v.mu.Lock()
	v.all = append(v.all, view)
	v.mu.Unlock()
}

func (v *views) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.all)
}

func (v *views) last() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.all) == 0 {
		return View{}
	}
	return v.all[len(v.all)-1]
}

func rating(r float64) *float64 { return &r }

func sampleBids() []models.DriverBid {
	now := time.Now()
	return []models.DriverBid{
		{
			ID:                "bid-2",
			RideID:            "ride-1",
			Driver:            models.Driver{ID: "drv-0002", Name: "Aman", VehicleType: "sedan", Rating: rating(4.8)},
			EstimatedFareMin:  12,
			EstimatedFareMax:  18.5,
			EstimatedDuration: 14,
			Notes:             "Child seat available",
			CreatedAt:         now,
		},
		{
			ID:                "bid-1",
			RideID:            "ride-1",
			Driver:            models.Driver{ID: "drv-0001", Name: "Merdan", VehicleType: "minivan"},
			EstimatedFareMin:  15,
			EstimatedDuration: 9,
			CreatedAt:         now.Add(-time.Minute),
		},
	}
}

// countingClient counts ListBids calls without reading mock internals.
func countingClient(calls *int32) *MockBidClient {
	client := new(MockBidClient)
	client.On("ListBids", mock.Anything, "ride-1").
		Run(func(mock.Arguments) { atomic.AddInt32(calls, 1) }).
		Return(sampleBids(), nil)
	return client
}

func TestFeed_PresentsBids(t *testing.T) {
	client := new(MockBidClient)
	client.On("ListBids", mock.Anything, "ride-1").Return(sampleBids(), nil)
	f := NewFeed("ride-1", models.RideStatusSearchingDriver, client, nil, Config{Interval: time.Hour, Currency: "usd", Lang: "en"}, nil)
	seen := &views{}
	f.Subscribe(seen.add)

	f.Start(context.Background())
	defer f.Stop()
	require.Eventually(t, func() bool { return len(seen.last().Bids) == 2 }, time.Second, 5*time.Millisecond)

	v := seen.last()
	assert.True(t, v.Visible)
	// oldest first
	assert.Equal(t, "bid-1", v.Bids[0].ID)
	assert.Equal(t, "New", v.Bids[0].Rating)
	assert.Equal(t, money.Amount(1500), v.Bids[0].Fare)

	b := v.Bids[1]
	assert.Equal(t, "#RV0002", b.DisplayID)
	assert.Equal(t, "4.8", b.Rating)
	assert.Equal(t, money.Amount(1850), b.Fare)
	assert.Equal(t, "$18.50", b.FareText)
	assert.Equal(t, 14*time.Minute, b.Duration)
	assert.Equal(t, "Child seat available", b.Notes)
}

func TestFeed_PollsOnInterval(t *testing.T) {
	var calls int32
	f := NewFeed("ride-1", models.RideStatusPending, countingClient(&calls), nil, Config{Interval: 10 * time.Millisecond}, nil)

	f.Start(context.Background())
	defer f.Stop()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestFeed_StopsOnceAccepted(t *testing.T) {
	var calls int32
	f := NewFeed("ride-1", models.RideStatusSearchingDriver, countingClient(&calls), nil, Config{Interval: 10 * time.Millisecond}, nil)
	seen := &views{}
	f.Subscribe(seen.add)

	f.Start(context.Background())
	require.Eventually(t, func() bool { return seen.last().Visible }, time.Second, 5*time.Millisecond)

	f.UpdateStatus(models.RideStatusAccepted)
	assert.False(t, f.Polling())
	hidden := seen.last()
	assert.False(t, hidden.Visible)
	assert.Empty(t, hidden.Bids)

	published := seen.count()
	polled := atomic.LoadInt32(&calls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, published, seen.count())
	assert.Equal(t, polled, atomic.LoadInt32(&calls))
	assert.False(t, f.View().Visible)
}

func TestFeed_StartWhenNotBidding(t *testing.T) {
	client := new(MockBidClient)
	f := NewFeed("ride-1", models.RideStatusInProgress, client, nil, Config{}, nil)
	seen := &views{}
	f.Subscribe(seen.add)

	f.Start(context.Background())
	assert.False(t, f.Polling())
	assert.False(t, seen.last().Visible)
	client.AssertNotCalled(t, "ListBids", mock.Anything, mock.Anything)
}

func TestFeed_SelectAndPay(t *testing.T) {
	client := new(MockBidClient)
	client.On("ListBids", mock.Anything, "ride-1").Return(sampleBids(), nil)
	payer := new(MockPayer)
	f := NewFeed("ride-1", models.RideStatusSearchingDriver, client, payer, Config{Interval: time.Hour, Currency: "usd"}, nil)
	seen := &views{}
	f.Subscribe(seen.add)
	f.Start(context.Background())
	defer f.Stop()
	require.Eventually(t, func() bool { return len(f.View().Bids) == 2 }, time.Second, 5*time.Millisecond)

	var payingDuringPay bool
	payer.On("Pay", mock.Anything, payments.Request{
		RideID:   "ride-1",
		BidID:    "bid-2",
		DriverID: "drv-0002",
		Amount:   1850,
		Currency: "usd",
		Purpose:  models.PaymentPurposeBid,
	}).Run(func(mock.Arguments) {
		for _, b := range seen.last().Bids {
			if b.ID == "bid-2" {
				payingDuringPay = b.Paying
			}
		}
	}).Return(&payments.Result{Outcome: payments.OutcomeConfirmed}, nil)

	res, err := f.SelectAndPay(context.Background(), "bid-2")
	require.NoError(t, err)
	assert.Equal(t, payments.OutcomeConfirmed, res.Outcome)
	assert.True(t, payingDuringPay)
	for _, b := range f.View().Bids {
		assert.False(t, b.Paying)
	}
}

func TestFeed_SelectAndPayErrors(t *testing.T) {
	client := new(MockBidClient)
	payer := new(MockPayer)
	f := NewFeed("ride-1", models.RideStatusSearchingDriver, client, payer, Config{}, nil)

	_, err := f.SelectAndPay(context.Background(), "missing")
	assert.Error(t, err)

	f.UpdateStatus(models.RideStatusAccepted)
	_, err = f.SelectAndPay(context.Background(), "bid-1")
	assert.ErrorIs(t, err, ErrNotBidding)
	payer.AssertNotCalled(t, "Pay", mock.Anything, mock.Anything)
}
