package repositories

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/techwave453-del/CYA-kenya/internal/models"
)

var (
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAllowed      = errors.New("not allowed")
)

// RetentionWindow is how long chat messages are kept before being purged.
const RetentionWindow = 7 * 24 * time.Hour

// recentLimit bounds the window returned by ListRecent.
const recentLimit = 100

// MessageRepository defines durable, ordered storage of chat messages.
type MessageRepository interface {
	// Append validates and stores a new message. The id and creation time
	// are assigned here; client-supplied timestamps are never trusted. A
	// replyTo referencing a missing message drops the reply link silently.
	Append(ctx context.Context, username, role, content, replyTo string) (models.Message, error)
	// ListRecent returns the newest messages (up to 100) oldest-first,
	// purging expired messages as a side effect.
	ListRecent(ctx context.Context) ([]models.Message, error)
	// ListSince returns messages created strictly after t, oldest-first.
	ListSince(ctx context.Context, t time.Time) ([]models.Message, error)
	// Delete hard-removes a message. Only the owner or a privileged role
	// may delete; no tombstone is kept, so reply snapshots referencing the
	// message go stale.
	Delete(ctx context.Context, id, username, role string) error
	// Clear removes every message. Forbidden for the general role.
	Clear(ctx context.Context, role string) error
	// ToggleReaction adds or removes the user's reaction and returns the
	// updated reaction map plus whether the reaction was added.
	ToggleReaction(ctx context.Context, id, username, emoji string) (models.Reactions, bool, error)
	// PurgeOlderThan deletes messages created before cutoff and returns
	// how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// newMessageID builds an opaque id from the current unix-millis plus a
// random hex suffix.
func newMessageID(now time.Time) string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(now.UnixMilli(), 10)
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + hex.EncodeToString(buf)
}
