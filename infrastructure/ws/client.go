package ws

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"huddle/domain"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from the peer.
	maxMessageSize = 4096
)

// client is the middleman between one WebSocket connection and the core. It
// is the session's EventSink: broadcasts land in the buffered send channel
// and the write pump drains it onto the wire.
type client struct {
	gateway *Gateway
	session domain.Session
	conn    *websocket.Conn
	send    chan []byte
	log     *slog.Logger

	// closeOnce guarantees disconnect cleanup runs exactly once even when
	// the transport reports the close from both pumps.
	closeOnce sync.Once
}

func newClient(gateway *Gateway, session domain.Session, conn *websocket.Conn, sendBuffer int, log *slog.Logger) *client {
	return &client{
		gateway: gateway,
		session: session,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		log:     log,
	}
}

// Consume implements domain.EventSink. It never blocks: when the client's
// buffer is full the event is dropped, since a stalled session must not hold
// up a room-wide broadcast.
func (c *client) Consume(_ context.Context, e domain.Event) error {
	frame, err := encodeEvent(e)
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return fmt.Errorf("session %s send buffer full, dropping %s", c.session.ID, e.Name())
	}
}

// readPump reads frames from the connection and dispatches them to the
// gateway until the peer goes away.
func (c *client) readPump(ctx context.Context) {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("unexpected close", "session_id", c.session.ID, "error", err)
			}
			return
		}
		c.gateway.dispatch(ctx, c, frame)
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with periodic pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown funnels every close path through the gateway's disconnect
// handling exactly once.
func (c *client) teardown() {
	c.closeOnce.Do(func() {
		c.gateway.disconnect(c)
		_ = c.conn.Close()
	})
}
