package chat

import (
	"context"

	"github.com/richxcame/rider-client/pkg/models"
)

// Store persists chat messages
type Store interface {
	History(ctx context.Context, rideID string) ([]models.ChatMessage, error)
	Save(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error)
}

// Transport delivers broadcasts for a room
type Transport interface {
	// Subscribe routes messages broadcast to room into fn until the returned
	// unsubscribe func is called.
	Subscribe(ctx context.Context, room string, fn func(models.ChatMessage)) (func() error, error)
	Publish(ctx context.Context, room string, msg models.ChatMessage) error
}
