// Package presence tracks which members currently hold a live realtime
// connection, and who is typing.
package presence

import (
	"sort"
	"sync"
)

// Tracker maps connection ids to usernames. A username is online while at
// least one connection is bound to it (multi-device).
type Tracker struct {
	mu    sync.Mutex
	conns map[string]string
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{conns: make(map[string]string)}
}

// Connect registers an anonymous connection not yet bound to a user.
func (t *Tracker) Connect(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[connID] = ""
}

// Authenticate binds a username to a connection. It reports whether this is
// the username's first live connection, so the caller broadcasts userOnline
// exactly once per 0-to-1 transition rather than on every authenticate.
func (t *Tracker) Authenticate(connID, username string) bool {
	if username == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for id, u := range t.conns {
		if id != connID && u == username {
			t.conns[connID] = username
			return false
		}
	}
	t.conns[connID] = username
	return true
}

// Disconnect unbinds the connection and returns the username it carried,
// plus whether it was that user's last connection.
func (t *Tracker) Disconnect(connID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	username, ok := t.conns[connID]
	if !ok {
		return "", false
	}
	delete(t.conns, connID)
	if username == "" {
		return "", false
	}
	for _, u := range t.conns {
		if u == username {
			return username, false
		}
	}
	return username, true
}

// Online returns the sorted set of currently bound usernames.
func (t *Tracker) Online() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool)
	users := make([]string, 0, len(t.conns))
	for _, u := range t.conns {
		if u != "" && !seen[u] {
			seen[u] = true
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users
}
