package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techwave453-del/CYA-kenya/internal/db"
	"github.com/techwave453-del/CYA-kenya/internal/models"
)

func newSQLiteRepo(t *testing.T) *SQLiteMessageRepo {
	t.Helper()
	database, err := db.Connect(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewSQLiteMessageRepo(database)
}

func TestSQLiteAppendAndList(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		_, err := repo.Append(ctx, "alice", "general", body, "")
		require.NoError(t, err)
	}

	msgs, err := repo.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "third", msgs[2].Content)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}
}

func TestSQLiteAppendValidation(t *testing.T) {
	repo := newSQLiteRepo(t)

	_, err := repo.Append(context.Background(), "alice", "general", "\t \n", "")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSQLiteReplySnapshot(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	parent, err := repo.Append(ctx, "alice", "general", "hello", "")
	require.NoError(t, err)

	reply, err := repo.Append(ctx, "bob", "general", "hi back", parent.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, reply.ReplyTo)
	assert.Equal(t, "alice", reply.ReplyToUsername)
	assert.Equal(t, "hello", reply.ReplyToContent)

	// the snapshot survives deleting the referenced message
	require.NoError(t, repo.Delete(ctx, parent.ID, "alice", "general"))
	msgs, err := repo.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].ReplyToUsername)
	assert.Equal(t, "hello", msgs[0].ReplyToContent)
}

func TestSQLiteListSince(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	m1, err := repo.Append(ctx, "alice", "general", "one", "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	m2, err := repo.Append(ctx, "bob", "general", "two", "")
	require.NoError(t, err)

	since, err := repo.ListSince(ctx, m1.CreatedAt)
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, m2.ID, since[0].ID)

	since, err = repo.ListSince(ctx, m2.CreatedAt)
	require.NoError(t, err)
	assert.Empty(t, since)
}

func TestSQLiteDeletePermissions(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	msg, err := repo.Append(ctx, "alice", "general", "mine", "")
	require.NoError(t, err)

	err = repo.Delete(ctx, msg.ID, "bob", "general")
	require.ErrorIs(t, err, ErrNotAllowed)
	msgs, err := repo.ListRecent(ctx)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	require.NoError(t, repo.Delete(ctx, msg.ID, "root", "system-admin"))
	require.ErrorIs(t, repo.Delete(ctx, msg.ID, "alice", "general"), ErrMessageNotFound)
}

func TestSQLiteClear(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, "alice", "general", "hello", "")
	require.NoError(t, err)

	require.ErrorIs(t, repo.Clear(ctx, "general"), ErrNotAllowed)
	require.NoError(t, repo.Clear(ctx, "moderator"))

	msgs, err := repo.ListRecent(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteReactionToggle(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	msg, err := repo.Append(ctx, "alice", "general", "hello", "")
	require.NoError(t, err)

	reactions, added, err := repo.ToggleReaction(ctx, msg.ID, "bob", "🔥")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, models.Reactions{"🔥": {"bob"}}, reactions)

	// reactions persist across reads
	msgs, err := repo.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.Reactions{"🔥": {"bob"}}, msgs[0].Reactions)

	reactions, added, err = repo.ToggleReaction(ctx, msg.ID, "bob", "🔥")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, reactions)
}

func TestSQLitePurgeOlderThan(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, "alice", "general", "recent", "")
	require.NoError(t, err)

	// a purge with a cutoff in the past removes nothing
	purged, err := repo.PurgeOlderThan(ctx, time.Now().UTC().Add(-RetentionWindow))
	require.NoError(t, err)
	assert.Zero(t, purged)

	// a cutoff in the future removes everything
	purged, err = repo.PurgeOlderThan(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	msgs, err := repo.ListRecent(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
