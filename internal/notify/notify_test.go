package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_LocalizesAndFansOut(t *testing.T) {
	mem := &MemorySink{}
	var buf bytes.Buffer
	s := NewService("ru", nil, mem, &WriterSink{W: &buf}, LogSink{})

	s.Success(context.Background(), "rider.ride.cancelled")

	require.Len(t, mem.All(), 1)
	assert.Equal(t, "Ваша поездка отменена", mem.All()[0].Body)
	assert.Contains(t, buf.String(), "[success]")
}

func TestService_ErrorMessages(t *testing.T) {
	mem := &MemorySink{}
	s := NewService("en", nil, mem)

	s.Error(context.Background(), common.NewConflictError("Ride already finished"))
	s.Error(context.Background(), errors.New("dial tcp"))
	s.Error(context.Background(), context.Canceled)
	s.Error(context.Background(), nil)

	all := mem.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Ride already finished", all[0].Body)
	assert.Equal(t, "Something went wrong. Please try again.", all[1].Body)
}

func TestService_DesktopRequiresPermission(t *testing.T) {
	mem := &MemorySink{}
	s := NewService("en", nil, mem)

	s.Desktop(context.Background(), "Driver", "hi")
	assert.Empty(t, mem.All())

	s.SetPermission(PermissionDenied)
	s.Desktop(context.Background(), "Driver", "hi")
	assert.Empty(t, mem.All())

	s.SetPermission(PermissionGranted)
	s.Desktop(context.Background(), "Driver", "hi")
	assert.Equal(t, []Level{LevelDesktop}, mem.Levels())
}

func TestSentrySink_CapturesErrorsOnly(t *testing.T) {
	var captured []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			captured = append(captured, e)
			return nil
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	s := NewService("en", nil, SentrySink{Hub: hub})
	s.Info(context.Background(), "rider.payment.pending")
	s.Error(context.Background(), errors.New("payment backend down"))

	assert.Len(t, captured, 1)
}
