// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quizwire/quizwire/internal/metrics"
)

const (
	// writeWait bounds a single send; a slower client is dropped rather
	// than stalling broadcasts to the rest of the session.
	writeWait = 5 * time.Second

	// pongWait is how long a connection may stay silent before the read
	// side gives up; pings go out at pingPeriod.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	// sendBuffer absorbs bursts; a persistently full buffer means the
	// client cannot keep up and it gets disconnected.
	sendBuffer = 32
)

// client is one registered duplex channel for a (session, user) pair.
type client struct {
	conn   *websocket.Conn
	send   chan outMessage
	done   chan struct{}
	code   string
	userID string
	isHost bool

	closeOnce sync.Once
}

// enqueue hands a message to the write pump without blocking. A full
// buffer drops the client: other recipients of a broadcast must proceed.
func (c *client) enqueue(m outMessage) bool {
	select {
	case c.send <- m:
		return true
	default:
		metrics.StalledConnectionsDropped.Inc()
		c.close(websocket.CloseAbnormalClosure, "send buffer overflow")
		return false
	}
}

// close shuts the connection down exactly once, attempting a close frame
// first so well-behaved clients see the reason.
func (c *client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.conn.Close()
		close(c.done)
	})
}

// readPump delivers inbound envelopes to the dispatcher, strictly in
// receive order. It owns the read side of the connection and returns on
// any transport error.
func (c *client) readPump(d *Dispatcher) {
	defer d.disconnect(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.logger.Debug().
					Err(err).
					Str("session_code", c.code).
					Str("user_id", c.userID).
					Msg("websocket read failed")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			d.logger.Warn().
				Err(err).
				Str("session_code", c.code).
				Str("user_id", c.userID).
				Msg("unparseable message envelope")
			d.sendError(c, "Invalid message format")
			continue
		}

		d.dispatch(context.Background(), c, env)
	}
}

// writePump serializes all writes on the connection: queued messages and
// keepalive pings. Per-connection FIFO holds because this is the only
// writer.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close(websocket.CloseAbnormalClosure, "write pump exit")
	}()

	for {
		select {
		case <-c.done:
			return
		case m := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(m); err != nil {
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
