package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func testSnapshot(id string, created time.Time, messages ...domain.Message) *domain.Snapshot {
	return &domain.Snapshot{
		Document: domain.Document{
			ID:            id,
			OriginalName:  id + ".png",
			StorageURL:    "https://files.example.com/" + id,
			Status:        domain.StatusCompleted,
			ExtractedText: "text of " + id,
			FileSize:      1234,
			CreatedAt:     created,
		},
		Conversation: domain.Conversation{
			ID:         "conv-" + id,
			DocumentID: id,
			Messages:   messages,
			CreatedAt:  created.Add(time.Minute),
		},
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "snapshots.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNewStore_MkdirAllError(t *testing.T) {
	store, err := NewStore("/dev/null/cannot/create")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestSnapshotStore_SaveAndGet(t *testing.T) {
	snaps := setupTestStore(t).SnapshotStore()
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := testSnapshot("X", created,
		domain.Message{ID: "m1", Role: domain.RoleUser, Content: "Total?", CreatedAt: created},
		domain.Message{ID: "m2", Role: domain.RoleAssistant, Content: "42.00"},
	)

	require.NoError(t, snaps.Save(ctx, in))
	got, err := snaps.Get(ctx, "X")

	require.NoError(t, err)
	assert.Equal(t, in.Document.OriginalName, got.Document.OriginalName)
	assert.Equal(t, in.Document.StorageURL, got.Document.StorageURL)
	assert.Equal(t, domain.StatusCompleted, got.Document.Status)
	assert.Equal(t, "text of X", got.Document.ExtractedText)
	assert.Equal(t, int64(1234), got.Document.FileSize)
	assert.True(t, created.Equal(got.Document.CreatedAt))
	assert.Equal(t, "conv-X", got.Conversation.ID)
	assert.Equal(t, "X", got.Conversation.DocumentID)
	require.Len(t, got.Conversation.Messages, 2)
	assert.Equal(t, "m1", got.Conversation.Messages[0].ID)
	assert.Equal(t, domain.RoleAssistant, got.Conversation.Messages[1].Role)
	assert.Equal(t, "42.00", got.Conversation.Messages[1].Content)
	assert.True(t, got.Conversation.Messages[1].CreatedAt.IsZero())
}

func TestSnapshotStore_SaveReplacesTranscript(t *testing.T) {
	snaps := setupTestStore(t).SnapshotStore()
	ctx := context.Background()
	created := time.Now().UTC()

	require.NoError(t, snaps.Save(ctx, testSnapshot("X", created,
		domain.Message{ID: "a", Role: domain.RoleUser, Content: "one"},
		domain.Message{ID: "b", Role: domain.RoleAssistant, Content: "two"},
	)))
	updated := testSnapshot("X", created, domain.Message{ID: "a", Role: domain.RoleUser, Content: "one"})
	updated.Document.Status = domain.StatusFailed
	updated.Document.FailureReason = "unreadable"
	require.NoError(t, snaps.Save(ctx, updated))

	got, err := snaps.Get(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Document.Status)
	assert.Equal(t, "unreadable", got.Document.FailureReason)
	assert.Len(t, got.Conversation.Messages, 1)
}

func TestSnapshotStore_SaveRejectsEmptyID(t *testing.T) {
	snaps := setupTestStore(t).SnapshotStore()

	assert.ErrorIs(t, snaps.Save(context.Background(), &domain.Snapshot{}), domain.ErrInvalidInput)
	assert.ErrorIs(t, snaps.Save(context.Background(), nil), domain.ErrInvalidInput)
}

func TestSnapshotStore_GetMissing(t *testing.T) {
	snaps := setupTestStore(t).SnapshotStore()

	_, err := snaps.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotStore_ListNewestFirst(t *testing.T) {
	snaps := setupTestStore(t).SnapshotStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, snaps.Save(ctx, testSnapshot("old", base)))
	require.NoError(t, snaps.Save(ctx, testSnapshot("new", base.Add(48*time.Hour))))
	require.NoError(t, snaps.Save(ctx, testSnapshot("mid", base.Add(24*time.Hour))))

	docs, err := snaps.List(ctx)

	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestSnapshotStore_ListEmpty(t *testing.T) {
	snaps := setupTestStore(t).SnapshotStore()

	docs, err := snaps.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSnapshotStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	snaps := store.SnapshotStore()
	ctx := context.Background()
	require.NoError(t, snaps.Save(ctx, testSnapshot("X", time.Now(),
		domain.Message{ID: "a", Role: domain.RoleUser, Content: "q"})))

	require.NoError(t, snaps.Delete(ctx, "X"))
	require.NoError(t, snaps.Delete(ctx, "X"))

	_, err := snaps.Get(ctx, "X")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count))
	assert.Zero(t, count)
}

func TestSnapshotStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SnapshotStore().Save(context.Background(), testSnapshot("X", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.SnapshotStore().Get(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "X.png", got.Document.OriginalName)
}
