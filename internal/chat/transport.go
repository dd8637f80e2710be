package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/websocket"
	"go.uber.org/zap"
)

// RoomConn is the part of a realtime relay connection the websocket transport uses.
type RoomConn interface {
	Join(room string, handler websocket.Handler) error
	Leave(room string) error
	Publish(room, frameType string, payload interface{}) error
}

// WebSocketTransport carries chat frames over the realtime relay.
type WebSocketTransport struct {
	conn      RoomConn
	eventType string
	logger    *zap.Logger
}

// NewWebSocketTransport wraps conn. eventType defaults to EventChatMessage.
func NewWebSocketTransport(conn RoomConn, eventType string, log *zap.Logger) *WebSocketTransport {
	if eventType == "" {
		eventType = EventChatMessage
	}
	return &WebSocketTransport{conn: conn, eventType: eventType, logger: logger.OrNop(log)}
}

// Subscribe joins room and forwards frames of the chat event type to fn.
func (t *WebSocketTransport) Subscribe(_ context.Context, room string, fn func(models.ChatMessage)) (func() error, error) {
	err := t.conn.Join(room, func(f websocket.Frame) {
		if f.Type != t.eventType {
			return
		}
		var msg models.ChatMessage
		if err := json.Unmarshal(f.Payload, &msg); err != nil {
			t.logger.Debug("ignoring malformed chat frame", zap.String("room", room), zap.Error(err))
			return
		}
		fn(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join room %s: %w", room, err)
	}
	return func() error { return t.conn.Leave(room) }, nil
}

// Publish broadcasts msg to room.
func (t *WebSocketTransport) Publish(_ context.Context, room string, msg models.ChatMessage) error {
	return t.conn.Publish(room, t.eventType, msg)
}

// NATSSubject returns the subject a room is broadcast on.
func NATSSubject(room string) string {
	return "chat." + room
}

// NATSTransport carries chat messages over NATS subjects, one per room.
type NATSTransport struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url, name string, log *zap.Logger) (*NATSTransport, error) {
	l := logger.OrNop(log).With(zap.String("transport", "nats"))
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATSTransport{nc: nc, logger: l}, nil
}

// Subscribe listens on the room's subject.
func (t *NATSTransport) Subscribe(_ context.Context, room string, fn func(models.ChatMessage)) (func() error, error) {
	sub, err := t.nc.Subscribe(NATSSubject(room), func(m *nats.Msg) {
		msg, err := decodeNATSMessage(m)
		if err != nil {
			t.logger.Debug("ignoring malformed chat message", zap.String("subject", m.Subject), zap.Error(err))
			return
		}
		fn(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", NATSSubject(room), err)
	}
	return sub.Unsubscribe, nil
}

// Publish sends msg on the room's subject.
func (t *NATSTransport) Publish(_ context.Context, room string, msg models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode chat message: %w", err)
	}
	if err := t.nc.Publish(NATSSubject(room), data); err != nil {
		return fmt.Errorf("failed to publish chat message: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (t *NATSTransport) Close() error {
	return t.nc.Drain()
}

func decodeNATSMessage(m *nats.Msg) (models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}
