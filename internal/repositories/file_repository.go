package repositories

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/techwave453-del/CYA-kenya/internal/models"
)

// FileMessageRepo stores messages as a single JSON array, rewritten in full
// on every mutation. A mutex serializes the read-modify-write cycle.
type FileMessageRepo struct {
	path string
	mu   sync.Mutex
}

// NewFileMessageRepo constructs a FileMessageRepo persisting to path.
func NewFileMessageRepo(path string) *FileMessageRepo {
	return &FileMessageRepo{path: path}
}

// load reads the file and drops messages past the retention window. The
// cleaned list is written back when anything expired.
func (r *FileMessageRepo) load() ([]models.Message, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-RetentionWindow)
	kept := msgs[:0]
	for _, m := range msgs {
		if m.CreatedAt.After(cutoff) {
			kept = append(kept, m)
		}
	}
	if len(kept) != len(msgs) {
		if err := r.save(kept); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

func (r *FileMessageRepo) save(msgs []models.Message) error {
	if msgs == nil {
		msgs = []models.Message{}
	}
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}

// Append validates and stores a new message at the end of the list.
func (r *FileMessageRepo) Append(ctx context.Context, username, role, content, replyTo string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, ErrEmptyMessage
	}
	if role == "" {
		role = models.RoleGeneral
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, err := r.load()
	if err != nil {
		return models.Message{}, err
	}

	now := time.Now().UTC()
	msg := models.Message{
		ID:        newMessageID(now),
		Username:  username,
		Role:      role,
		Content:   content,
		CreatedAt: now,
		Reactions: models.Reactions{},
	}
	if replyTo != "" {
		for _, m := range msgs {
			if m.ID == replyTo {
				msg.ReplyTo = replyTo
				msg.ReplyToUsername = m.Username
				msg.ReplyToContent = m.Content
				break
			}
		}
	}

	msgs = append(msgs, msg)
	if err := r.save(msgs); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListRecent returns the newest 100 messages oldest-first. Loading already
// applies the retention purge.
func (r *FileMessageRepo) ListRecent(ctx context.Context) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, err := r.load()
	if err != nil {
		return nil, err
	}
	if len(msgs) > recentLimit {
		msgs = msgs[len(msgs)-recentLimit:]
	}
	return msgs, nil
}

// ListSince returns messages created strictly after t, oldest-first.
func (r *FileMessageRepo) ListSince(ctx context.Context, t time.Time) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, err := r.load()
	if err != nil {
		return nil, err
	}
	var result []models.Message
	for _, m := range msgs {
		if m.CreatedAt.After(t) {
			result = append(result, m)
		}
	}
	return result, nil
}

// Delete hard-removes a message if the requester owns it or holds a
// privileged role.
func (r *FileMessageRepo) Delete(ctx context.Context, id, username, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, err := r.load()
	if err != nil {
		return err
	}
	for i, m := range msgs {
		if m.ID != id {
			continue
		}
		if !models.CanDeleteMessage(m.Username, username, role) {
			return ErrNotAllowed
		}
		msgs = append(msgs[:i], msgs[i+1:]...)
		return r.save(msgs)
	}
	return ErrMessageNotFound
}

// Clear wipes the whole store. Forbidden for the general role.
func (r *FileMessageRepo) Clear(ctx context.Context, role string) error {
	if !models.CanClearChat(role) {
		return ErrNotAllowed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(nil)
}

// ToggleReaction flips the user's reaction under emoji and persists the
// updated list.
func (r *FileMessageRepo) ToggleReaction(ctx context.Context, id, username, emoji string) (models.Reactions, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, err := r.load()
	if err != nil {
		return nil, false, err
	}
	for i := range msgs {
		if msgs[i].ID != id {
			continue
		}
		if msgs[i].Reactions == nil {
			msgs[i].Reactions = models.Reactions{}
		}
		added := msgs[i].Reactions.Toggle(emoji, username)
		if err := r.save(msgs); err != nil {
			return nil, false, err
		}
		return msgs[i].Reactions, added, nil
	}
	return nil, false, ErrMessageNotFound
}

// PurgeOlderThan deletes messages created before cutoff.
func (r *FileMessageRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return 0, err
	}

	kept := msgs[:0]
	for _, m := range msgs {
		if !m.CreatedAt.Before(cutoff) {
			kept = append(kept, m)
		}
	}
	purged := len(msgs) - len(kept)
	if purged > 0 {
		if err := r.save(kept); err != nil {
			return 0, err
		}
	}
	return purged, nil
}
