package docstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nkulkarni/school-leave/internal/application/port"
	"github.com/nkulkarni/school-leave/pkg/database"
)

func newSQLiteStore(t *testing.T, opts ...SQLiteOption) *SQLiteStore {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run())

	return NewSQLiteStore(db, zap.NewNop(), opts...)
}

func TestSQLiteStore_CreateGetUpdate(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "requests", port.Record{
		"status": "pending_teacher",
		"reason": "fever",
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "requests", id)
	require.NoError(t, err)
	assert.Equal(t, "pending_teacher", doc.Fields["status"])

	err = store.UpdatePartial(ctx, "requests", id, port.Record{
		"status":         "pending_admin",
		"teacher_remark": "ok",
	})
	require.NoError(t, err)

	doc, err = store.Get(ctx, "requests", id)
	require.NoError(t, err)
	assert.Equal(t, "pending_admin", doc.Fields["status"])
	assert.Equal(t, "ok", doc.Fields["teacher_remark"])
	assert.Equal(t, "fever", doc.Fields["reason"])

	_, err = store.Get(ctx, "requests", "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)

	err = store.UpdatePartial(ctx, "requests", "missing", port.Record{"status": "x"})
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestSQLiteStore_QueryPredicatesAndOrder(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	mk := func(status, role, date string) string {
		id, err := store.Create(ctx, "requests", port.Record{
			"status":         status,
			"requester_role": role,
			"start_date":     date,
		})
		require.NoError(t, err)
		return id
	}

	first := mk("pending_teacher", "student", "2024-05-01")
	mk("pending_admin", "student", "2024-05-02")
	third := mk("pending_teacher", "student", "2024-06-01")

	docs, err := store.Query(ctx, "requests", []port.Predicate{
		port.Eq("status", "pending_teacher"),
		port.Eq("requester_role", "student"),
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first, docs[0].ID, "insertion order")
	assert.Equal(t, third, docs[1].ID)

	docs, err = store.Query(ctx, "requests", []port.Predicate{
		port.Gte("start_date", "2024-05-02"),
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = store.Query(ctx, "requests", []port.Predicate{
		port.Lte("start_date", "2024-05-01"),
	})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSQLiteStore_CollectionsIsolated(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "requests", port.Record{"status": "pending_admin"})
	require.NoError(t, err)

	docs, err := store.Query(ctx, "notices", nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = store.Get(ctx, "notices", id)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestSQLiteStore_SubscribePolls(t *testing.T) {
	store := newSQLiteStore(t, WithPollInterval(20*time.Millisecond))
	ctx := context.Background()

	sub, err := store.Subscribe(ctx, "requests", []port.Predicate{
		port.Eq("status", "pending_admin"),
	})
	require.NoError(t, err)
	defer sub.Close()

	select {
	case snap := <-sub.Snapshots():
		assert.Empty(t, snap)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	id, err := store.Create(ctx, "requests", port.Record{"status": "pending_admin"})
	require.NoError(t, err)

	select {
	case snap := <-sub.Snapshots():
		require.Len(t, snap, 1)
		assert.Equal(t, id, snap[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after create")
	}
}

func TestSQLiteStore_SubscribeEndsOnCancel(t *testing.T) {
	store := newSQLiteStore(t, WithPollInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := store.Subscribe(ctx, "requests", nil)
	require.NoError(t, err)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Snapshots():
			if !ok {
				return // channel closed, subscription ended
			}
		case <-deadline:
			t.Fatal("subscription did not end after cancel")
		}
	}
}
