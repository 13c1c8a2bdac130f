package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkulkarni/school-leave/internal/application/port"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "requests", port.Record{"status": "pending_teacher"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.Get(ctx, "requests", id)
	require.NoError(t, err)
	assert.Equal(t, "pending_teacher", doc.Fields["status"])

	_, err = store.Get(ctx, "requests", "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)

	_, err = store.Get(ctx, "other", id)
	assert.ErrorIs(t, err, port.ErrNotFound, "collections are isolated")
}

func TestMemoryStore_QueryPredicates(t *testing.T) {
	store := NewMemoryStore()
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

	pending := mk("pending_teacher", "student", "2024-05-01")
	mk("pending_admin", "student", "2024-05-02")
	mk("pending_teacher", "teacher", "2024-06-01")

	docs, err := store.Query(ctx, "requests", []port.Predicate{
		port.Eq("status", "pending_teacher"),
		port.Eq("requester_role", "student"),
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, pending, docs[0].ID)

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

func TestMemoryStore_QueryInsertionOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := store.Create(ctx, "requests", port.Record{"n": i})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	docs, err := store.Query(ctx, "requests", nil)
	require.NoError(t, err)
	require.Len(t, docs, 5)
	for i, doc := range docs {
		assert.Equal(t, ids[i], doc.ID, "results must come back in insertion order")
	}
}

func TestMemoryStore_UpdatePartial(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "requests", port.Record{
		"status": "pending_teacher",
		"reason": "fever",
	})
	require.NoError(t, err)

	err = store.UpdatePartial(ctx, "requests", id, port.Record{
		"status":         "pending_admin",
		"teacher_remark": "ok",
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "requests", id)
	require.NoError(t, err)
	assert.Equal(t, "pending_admin", doc.Fields["status"])
	assert.Equal(t, "ok", doc.Fields["teacher_remark"])
	assert.Equal(t, "fever", doc.Fields["reason"], "untouched fields survive a partial update")

	err = store.UpdatePartial(ctx, "requests", "missing", port.Record{"status": "x"})
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "requests", port.Record{"status": "pending_teacher"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "requests", id)
	require.NoError(t, err)
	doc.Fields["status"] = "mutated"

	again, err := store.Get(ctx, "requests", id)
	require.NoError(t, err)
	assert.Equal(t, "pending_teacher", again.Fields["status"])
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sub, err := store.Subscribe(ctx, "requests", []port.Predicate{
		port.Eq("status", "pending_admin"),
	})
	require.NoError(t, err)
	defer sub.Close()

	// Initial snapshot reflects the current (empty) match set.
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
	case <-time.After(time.Second):
		t.Fatal("no snapshot after create")
	}

	// A write that drops the record out of the match set publishes again.
	require.NoError(t, store.UpdatePartial(ctx, "requests", id, port.Record{"status": "approved"}))

	select {
	case snap := <-sub.Snapshots():
		assert.Empty(t, snap)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after update")
	}
}

func TestMemoryStore_SubscribeCoalesces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sub, err := store.Subscribe(ctx, "requests", nil)
	require.NoError(t, err)
	defer sub.Close()

	// Several writes before the consumer reads: only the newest snapshot is pending.
	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, "requests", port.Record{"n": i})
		require.NoError(t, err)
	}

	select {
	case snap := <-sub.Snapshots():
		assert.Len(t, snap, 3)
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
	}
}

func TestMemoryStore_SubscribeCloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()

	sub, err := store.Subscribe(context.Background(), "requests", nil)
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	// Writes after close must not panic on the closed channel.
	_, err = store.Create(context.Background(), "requests", port.Record{"n": 1})
	require.NoError(t, err)
}
