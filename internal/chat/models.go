package chat

import (
	"errors"

	"github.com/richxcame/rider-client/pkg/models"
)

const (
	// MaxMessageLength is the longest message, in characters, a rider may send.
	MaxMessageLength = 1000

	// EventChatMessage is the broadcast tag carried by chat frames.
	EventChatMessage = "chat_message"
)

var (
	// ErrNoRoom is returned when the ride has no realtime room yet.
	ErrNoRoom = errors.New("chat: ride has no room")
	// ErrClosed is returned when sending on a closed subscription.
	ErrClosed = errors.New("chat: subscription closed")
)

// View is the message list as shown to the rider, oldest first
type View struct {
	RideID   string
	Messages []models.ChatMessage
}
