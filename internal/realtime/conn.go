package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/pongduel-go/internal/model"
)

const (
	// writeWait is the deadline for a single websocket write
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong before considering the
	// connection dead
	pongWait = 60 * time.Second

	// pingPeriod is how often to ping. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; gameplay payloads are tiny
	maxMessageSize = 4096

	// sendBufferSize is the per-connection outbound queue depth
	sendBufferSize = 64
)

// Client is one live player connection as seen by the orchestrator
type Client interface {
	Player() model.Player
	SendEvent(event model.EventType, data any)
	Close()
}

// Conn wraps a websocket connection for one authenticated player. Outbound
// messages are queued on a buffered channel drained by the write pump, so
// SendEvent never blocks the orchestrator loop.
type Conn struct {
	ws     *websocket.Conn
	player model.Player
	orch   *Orchestrator
	logger *slog.Logger

	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

var _ Client = (*Conn)(nil)

// NewConn creates a connection wrapper for an upgraded websocket
func NewConn(ws *websocket.Conn, player model.Player, orch *Orchestrator, logger *slog.Logger) *Conn {
	return &Conn{
		ws:     ws,
		player: player,
		orch:   orch,
		logger: logger.With(
			slog.String("component", "conn"),
			slog.Int64("player_id", int64(player.ID))),
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// Player returns the authenticated identity behind this connection
func (c *Conn) Player() model.Player {
	return c.player
}

// SendEvent queues an outbound protocol event. If the connection's send
// buffer is full the message is dropped: a reader this far behind is dead
// and the ping/pong cycle will reap it.
func (c *Conn) SendEvent(event model.EventType, data any) {
	env := model.Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			c.logger.Error("failed to marshal outbound event",
				slog.String("event", string(event)),
				slog.Any("error", err))
			return
		}
		env.Data = raw
	}

	msg, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("failed to marshal envelope", slog.Any("error", err))
		return
	}

	select {
	case c.send <- msg:
	case <-c.closed:
	default:
		c.logger.Warn("send buffer full, dropping event",
			slog.String("event", string(event)))
	}
}

// Close terminates the connection. Safe to call multiple times and from
// any goroutine.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// Run starts the read and write pumps and blocks until the connection
// drops. The disconnect event is emitted exactly once, on return.
func (c *Conn) Run() {
	go c.writePump()
	c.readPump()

	c.Close()
	c.orch.Disconnect(c)
}

// readPump reads inbound frames and dispatches them to the orchestrator
func (c *Conn) readPump() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", slog.Any("error", err))
			}
			return
		}

		var env model.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			c.SendEvent(model.EventError, model.ErrorPayload{
				Code:    model.ErrCodeInvalidPayload,
				Message: "malformed message envelope",
			})
			continue
		}

		c.orch.Dispatch(c, env)
	}
}

// writePump drains the send queue and keeps the connection alive with pings
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
