// SPDX-License-Identifier: MIT

package dispatch

import "sync"

// registry tracks live connections per session. It is strictly
// process-local: losing it means clients reconnect. Locks guard only map
// access, never network sends.
type registry struct {
	mu sync.RWMutex
	// session code -> user ID -> connection
	conns map[string]map[string]*client
	// session code -> user ID -> is host
	roles map[string]map[string]bool
}

func newRegistry() *registry {
	return &registry{
		conns: make(map[string]map[string]*client),
		roles: make(map[string]map[string]bool),
	}
}

// add registers c and returns the connection it displaced, if any. A second
// channel for the same (session, user) pair always wins.
func (r *registry) add(c *client) *client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[c.code] == nil {
		r.conns[c.code] = make(map[string]*client)
		r.roles[c.code] = make(map[string]bool)
	}
	displaced := r.conns[c.code][c.userID]
	r.conns[c.code][c.userID] = c
	r.roles[c.code][c.userID] = c.isHost
	return displaced
}

// remove drops c from the registry iff it is still the registered
// connection for its (session, user) pair. Returns false when c was
// already displaced by a newer channel.
func (r *registry) remove(c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.conns[c.code]
	if !ok || users[c.userID] != c {
		return false
	}
	delete(users, c.userID)
	delete(r.roles[c.code], c.userID)
	if len(users) == 0 {
		delete(r.conns, c.code)
		delete(r.roles, c.code)
	}
	return true
}

// sessionClients snapshots all connections in a session.
func (r *registry) sessionClients(code string) []*client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*client, 0, len(r.conns[code]))
	for _, c := range r.conns[code] {
		out = append(out, c)
	}
	return out
}

// roleClients snapshots the session's connections filtered by role.
func (r *registry) roleClients(code string, hosts bool) []*client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*client
	for userID, c := range r.conns[code] {
		if r.roles[code][userID] == hosts {
			out = append(out, c)
		}
	}
	return out
}

// all snapshots every registered connection.
func (r *registry) all() []*client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*client
	for _, users := range r.conns {
		for _, c := range users {
			out = append(out, c)
		}
	}
	return out
}
