package presence

import (
	"sync"
	"time"
)

// TypingTimeout is how long a typing signal stays valid without a refresh.
const TypingTimeout = 3500 * time.Millisecond

// TypingTracker records who signalled typing recently. Entries expire
// lazily at read time; an explicit stop removes them immediately.
type TypingTracker struct {
	mu      sync.Mutex
	typing  map[string]time.Time
	timeout time.Duration
}

// NewTypingTracker creates a tracker with the given expiry timeout.
func NewTypingTracker(timeout time.Duration) *TypingTracker {
	if timeout <= 0 {
		timeout = TypingTimeout
	}
	return &TypingTracker{typing: make(map[string]time.Time), timeout: timeout}
}

// Set records or refreshes the user's typing signal.
func (t *TypingTracker) Set(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.typing[username] = time.Now()
}

// Clear removes the user's typing signal immediately.
func (t *TypingTracker) Clear(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.typing, username)
}

// Active returns users with a fresh typing signal, excluding the requester.
// Expired entries are deleted while scanning.
func (t *TypingTracker) Active(excluding string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	users := make([]string, 0, len(t.typing))
	for username, last := range t.typing {
		if now.Sub(last) >= t.timeout {
			delete(t.typing, username)
			continue
		}
		if username != excluding {
			users = append(users, username)
		}
	}
	return users
}
