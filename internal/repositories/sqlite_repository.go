package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/techwave453-del/CYA-kenya/internal/models"
)

// SQLiteMessageRepo is a sqlx-backed message store.
type SQLiteMessageRepo struct {
	db *sqlx.DB
}

// NewSQLiteMessageRepo constructs a SQLiteMessageRepo.
func NewSQLiteMessageRepo(db *sqlx.DB) *SQLiteMessageRepo {
	return &SQLiteMessageRepo{db: db}
}

const messageColumns = `id, username, role, content, created_at, reply_to, reply_to_username, reply_to_content, reactions`

// Append stores a new message, snapshotting reply metadata when the
// referenced message still exists.
func (r *SQLiteMessageRepo) Append(ctx context.Context, username, role, content, replyTo string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, ErrEmptyMessage
	}
	if role == "" {
		role = models.RoleGeneral
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
		var parent models.Message
		err := r.db.GetContext(ctx, &parent, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, replyTo)
		if err == nil {
			msg.ReplyTo = replyTo
			msg.ReplyToUsername = parent.Username
			msg.ReplyToContent = parent.Content
		} else if !errors.Is(err, sql.ErrNoRows) {
			return models.Message{}, err
		}
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Username, msg.Role, msg.Content, msg.CreatedAt, msg.ReplyTo, msg.ReplyToUsername, msg.ReplyToContent, msg.Reactions)
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListRecent returns the newest 100 messages oldest-first, purging expired
// rows first.
func (r *SQLiteMessageRepo) ListRecent(ctx context.Context) ([]models.Message, error) {
	if _, err := r.PurgeOlderThan(ctx, time.Now().UTC().Add(-RetentionWindow)); err != nil {
		return nil, err
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages ORDER BY created_at DESC, rowid DESC LIMIT ?`, recentLimit)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

// ListSince returns messages created strictly after t, oldest-first.
func (r *SQLiteMessageRepo) ListSince(ctx context.Context, t time.Time) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE created_at > ? ORDER BY created_at ASC, rowid ASC`, t.UTC())
	return msgs, err
}

// Delete hard-removes a message if the requester owns it or holds a
// privileged role.
func (r *SQLiteMessageRepo) Delete(ctx context.Context, id, username, role string) error {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMessageNotFound
	}
	if err != nil {
		return err
	}
	if !models.CanDeleteMessage(msg.Username, username, role) {
		return ErrNotAllowed
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return err
}

// Clear removes every message. Forbidden for the general role.
func (r *SQLiteMessageRepo) Clear(ctx context.Context, role string) error {
	if !models.CanClearChat(role) {
		return ErrNotAllowed
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages`)
	return err
}

// ToggleReaction flips the user's reaction under emoji and persists the
// updated map.
func (r *SQLiteMessageRepo) ToggleReaction(ctx context.Context, id, username, emoji string) (models.Reactions, bool, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrMessageNotFound
	}
	if err != nil {
		return nil, false, err
	}

	if msg.Reactions == nil {
		msg.Reactions = models.Reactions{}
	}
	added := msg.Reactions.Toggle(emoji, username)

	if _, err := r.db.ExecContext(ctx, `UPDATE messages SET reactions = ? WHERE id = ?`, msg.Reactions, id); err != nil {
		return nil, false, err
	}
	return msg.Reactions, added, nil
}

// PurgeOlderThan deletes messages created before cutoff.
func (r *SQLiteMessageRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
