package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Frame types understood by the realtime relay.
const (
	FrameJoin  = "join_room"
	FrameLeave = "leave_room"
)

// ErrClosed is returned when using a closed connection.
var ErrClosed = errors.New("websocket: connection closed")

// Frame is the envelope exchanged with the realtime relay.
type Frame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler receives frames for a joined room.
type Handler func(Frame)

// Conn is a client connection to the realtime relay. A single Conn may join
// several rooms; frames are dispatched by room name.
type Conn struct {
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to url, sending token as a bearer credential.
func Dial(ctx context.Context, url, token string, log *zap.Logger) (*Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial realtime relay: %w", err)
	}

	c := &Conn{
		conn:     ws,
		send:     make(chan []byte, sendBuffer),
		logger:   logger.OrNop(log),
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Join subscribes to room and routes its frames to handler.
func (c *Conn) Join(room string, handler Handler) error {
	c.mu.Lock()
	c.handlers[room] = handler
	c.mu.Unlock()

	if err := c.write(Frame{Type: FrameJoin, Room: room}); err != nil {
		c.mu.Lock()
		delete(c.handlers, room)
		c.mu.Unlock()
		return err
	}
	return nil
}

// Leave unsubscribes from room.
func (c *Conn) Leave(room string) error {
	c.mu.Lock()
	_, joined := c.handlers[room]
	delete(c.handlers, room)
	c.mu.Unlock()

	if !joined {
		return nil
	}
	return c.write(Frame{Type: FrameLeave, Room: room})
}

// Publish broadcasts payload to room under the given frame type.
func (c *Conn) Publish(room, frameType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return c.write(Frame{Type: frameType, Room: room, Payload: raw})
}

// Done is closed once the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection down. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) write(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Conn) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("realtime connection dropped", zap.Error(err))
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug("ignoring malformed realtime frame", zap.Error(err))
			continue
		}

		c.mu.RLock()
		handler := c.handlers[f.Room]
		c.mu.RUnlock()
		if handler != nil {
			handler(f)
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("realtime write failed", zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
