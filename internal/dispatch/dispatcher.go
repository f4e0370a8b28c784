// SPDX-License-Identifier: MIT

// Package dispatch owns the long-lived websocket channels between clients
// and the engine. It registers one connection per (session, user) pair,
// routes inbound envelopes to game handlers, and provides personal,
// session-wide and role-filtered send primitives.
package dispatch

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quizwire/quizwire/internal/game"
	"github.com/quizwire/quizwire/internal/metrics"
	"github.com/quizwire/quizwire/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement is the deployment proxy's job; clients join by
	// session code from arbitrary app shells.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Options configures a Dispatcher.
type Options struct {
	// ReconnectGrace is how long a disconnected participant holds their
	// lobby slot before being dropped from a still-waiting session.
	// Zero disables lobby cleanup.
	ReconnectGrace time.Duration
}

// Dispatcher multiplexes per-session traffic over websocket connections.
type Dispatcher struct {
	store    *session.Store
	ctrl     *game.Controller
	registry *registry
	opts     Options
	logger   zerolog.Logger
}

// New creates a dispatcher over the given store and game controller.
func New(store *session.Store, ctrl *game.Controller, opts Options, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		ctrl:     ctrl,
		registry: newRegistry(),
		opts:     opts,
		logger:   logger,
	}
}

// HandleWS upgrades GET /ws/{code}?user_id=... to a websocket channel and
// runs its pumps. The handler returns when the connection closes.
func (d *Dispatcher) HandleWS(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	userID := r.URL.Query().Get("user_id")
	if code == "" || userID == "" {
		http.Error(w, "session code and user_id are required", http.StatusBadRequest)
		return
	}

	isHost, err := d.store.IsHost(r.Context(), code, userID)
	if err != nil {
		// Session may not exist yet or the store hiccuped; the connection
		// is still accepted and join will report the real problem.
		isHost = false
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn().Err(err).Str("session_code", code).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan outMessage, sendBuffer),
		done:   make(chan struct{}),
		code:   code,
		userID: userID,
		isHost: isHost,
	}

	if displaced := d.registry.add(c); displaced != nil {
		displaced.close(websocket.CloseNormalClosure, "superseded by a new connection")
	}
	metrics.ActiveConnections.Inc()

	d.logger.Info().
		Str("event", "ws.connected").
		Str("session_code", code).
		Str("user_id", userID).
		Bool("is_host", isHost).
		Msg("websocket connection registered")

	go c.writePump()
	c.readPump(d)
}

// disconnect tears down a connection. If it was still the registered
// channel for its pair, the participant is marked disconnected in the
// store and the session is notified.
func (d *Dispatcher) disconnect(c *client) {
	c.close(websocket.CloseNormalClosure, "")

	if !d.registry.remove(c) {
		// Displaced by a newer channel for the same user; the store state
		// belongs to that channel now.
		return
	}
	metrics.ActiveConnections.Dec()

	d.logger.Info().
		Str("event", "ws.disconnected").
		Str("session_code", c.code).
		Str("user_id", c.userID).
		Msg("websocket connection removed")

	if c.isHost {
		return
	}
	sess, err := d.store.MarkDisconnected(context.Background(), c.code, c.userID)
	if err != nil {
		return
	}
	d.broadcast(c.code, outMessage{Type: msgSessionUpdate, Payload: sessionUpdate(sess)})

	// A participant who never comes back should not hold a lobby slot. The
	// store only removes them while the session is still waiting and their
	// connected flag stayed off, so a reconnect within the grace wins.
	if d.opts.ReconnectGrace > 0 && sess.Status == session.StatusWaiting {
		code, userID := c.code, c.userID
		time.AfterFunc(d.opts.ReconnectGrace, func() {
			removed, updated, err := d.store.RemoveIfDisconnected(context.Background(), code, userID)
			if err != nil || !removed {
				return
			}
			d.logger.Info().
				Str("event", "ws.participant_removed").
				Str("session_code", code).
				Str("user_id", userID).
				Msg("disconnected participant removed from lobby")
			d.broadcast(code, outMessage{Type: msgSessionUpdate, Payload: sessionUpdate(updated)})
		})
	}
}

// Shutdown closes every open connection with 1001 Going Away.
func (d *Dispatcher) Shutdown() {
	for _, c := range d.registry.all() {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
}

// send delivers a message on the given channel.
func (d *Dispatcher) send(c *client, m outMessage) {
	c.enqueue(m)
}

// broadcast fans a message out to every connection in the session,
// including the host. Each recipient has its own FIFO; no cross-recipient
// ordering is guaranteed.
func (d *Dispatcher) broadcast(code string, m outMessage) {
	metrics.BroadcastsSent.WithLabelValues(m.Type).Inc()
	for _, c := range d.registry.sessionClients(code) {
		c.enqueue(m)
	}
}

// sendToHost delivers a message to the host connection only.
func (d *Dispatcher) sendToHost(code string, m outMessage) {
	for _, c := range d.registry.roleClients(code, true) {
		c.enqueue(m)
	}
}

// sendError reports a failure on the channel. Errors never terminate the
// connection.
func (d *Dispatcher) sendError(c *client, message string) {
	d.send(c, outMessage{Type: msgError, Payload: errorPayload{Message: message}})
}
