package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fire-rescue/viewer/internal/proto"
)

const (
	writeWait       = 10 * time.Second
	eventBufferSize = 64
)

// EventTransportError is the synthetic event emitted when the live channel
// drops. It never arrives from the server.
const EventTransportError = "transport_error"

// Channel owns the bidirectional live connection to the simulation service.
// Inbound events are decoded on a read loop and delivered in arrival order on
// Events. A dropped connection surfaces one transport_error event and ends
// the loop; reconnecting and re-joining is the caller's decision.
type Channel struct {
	url    string
	logger *log.Logger
	events chan proto.ServerEvent

	mu   sync.Mutex // guards conn and all writes to it
	conn *websocket.Conn
}

// ChannelConfig carries optional channel settings.
type ChannelConfig struct {
	Logger *log.Logger
}

// NewChannel prepares a live channel for the websocket endpoint at url.
// No connection is made until Connect.
func NewChannel(url string, cfg ChannelConfig) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Channel{
		url:    url,
		logger: logger,
		events: make(chan proto.ServerEvent, eventBufferSize),
	}
}

// Events exposes the inbound event stream. The channel is never closed; a
// dropped connection is reported as a transport_error event instead.
func (c *Channel) Events() <-chan proto.ServerEvent {
	return c.events
}

// Connect establishes the live channel. Idempotent: a second call while the
// connection is healthy does nothing.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrTransport, c.url, err)
	}

	c.conn = conn
	go c.readLoop(conn)
	return nil
}

// Join subscribes this connection to an instance's broadcasts. Callers must
// leave any previously joined instance first to avoid cross-instance events.
func (c *Channel) Join(id string) error {
	frame, err := proto.EncodeClientEvent(proto.EventJoinSimulation, id)
	if err != nil {
		return err
	}
	if err := c.write(frame); err != nil {
		return fmt.Errorf("join %s: %w", id, err)
	}
	return nil
}

// Leave unsubscribes from an instance's broadcasts. Fire-and-forget: no
// acknowledgement is required for correctness, so failures are only logged.
func (c *Channel) Leave(id string) {
	frame, err := proto.EncodeClientEvent(proto.EventLeaveSimulation, id)
	if err != nil {
		c.logger.Printf("encode leave for %s: %v", id, err)
		return
	}
	if err := c.write(frame); err != nil {
		c.logger.Printf("leave %s: %v", id, err)
	}
}

// Close tears down the connection. The read loop reports the closure as a
// transport_error event.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Channel) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("%w: channel not connected", ErrTransport)
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			c.events <- proto.ServerEvent{Event: EventTransportError, Message: err.Error()}
			return
		}

		ev, err := proto.DecodeServerEvent(frame)
		if err != nil {
			if errors.Is(err, proto.ErrMalformedSnapshot) {
				// A broken snapshot must surface, never render.
				c.events <- proto.ServerEvent{Event: proto.EventError, Message: err.Error()}
				continue
			}
			c.logger.Printf("discarding malformed channel frame: %v", err)
			continue
		}
		c.events <- ev
	}
}
