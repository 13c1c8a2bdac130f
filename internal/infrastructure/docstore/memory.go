package docstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nkulkarni/school-leave/internal/application/port"
)

// MemoryStore is an in-memory DocumentStore for tests and embedding. It
// preserves insertion order per collection and fans out subscription
// snapshots on every write without blocking the writer.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]*memoryDoc
	byID        map[string]map[string]*memoryDoc
	subscribers map[string][]*memorySubscription
}

type memoryDoc struct {
	id     string
	fields port.Record
}

// NewMemoryStore creates an empty in-memory document store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]*memoryDoc),
		byID:        make(map[string]map[string]*memoryDoc),
		subscribers: make(map[string][]*memorySubscription),
	}
}

// Create persists a new record and returns its generated id
func (s *MemoryStore) Create(ctx context.Context, collection string, fields port.Record) (string, error) {
	doc := &memoryDoc{
		id:     uuid.NewString(),
		fields: cloneRecord(fields),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[collection] = append(s.collections[collection], doc)
	if s.byID[collection] == nil {
		s.byID[collection] = make(map[string]*memoryDoc)
	}
	s.byID[collection][doc.id] = doc

	s.publishLocked(collection)
	return doc.id, nil
}

// Get fetches a single record by id
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (port.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.byID[collection][id]
	if !ok {
		return port.Document{}, fmt.Errorf("%w: %s/%s", port.ErrNotFound, collection, id)
	}
	return port.Document{ID: doc.id, Fields: cloneRecord(doc.fields)}, nil
}

// Query returns matching records in insertion order; it never sorts
func (s *MemoryStore) Query(ctx context.Context, collection string, predicates []port.Predicate) ([]port.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLocked(collection, predicates), nil
}

// UpdatePartial overwrites only the given fields of an existing record
func (s *MemoryStore) UpdatePartial(ctx context.Context, collection, id string, fields port.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byID[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", port.ErrNotFound, collection, id)
	}

	for field, value := range fields {
		doc.fields[field] = value
	}

	s.publishLocked(collection)
	return nil
}

// Subscribe streams snapshots of the matching records, starting with the
// current state of the collection
func (s *MemoryStore) Subscribe(ctx context.Context, collection string, predicates []port.Predicate) (port.Subscription, error) {
	sub := &memorySubscription{
		store:      s,
		collection: collection,
		predicates: predicates,
		ch:         make(chan []port.Document, 1),
	}

	s.mu.Lock()
	s.subscribers[collection] = append(s.subscribers[collection], sub)
	sub.deliverLocked(s.queryLocked(collection, predicates))
	s.mu.Unlock()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			_ = sub.Close()
		}()
	}

	return sub, nil
}

func (s *MemoryStore) queryLocked(collection string, predicates []port.Predicate) []port.Document {
	var out []port.Document
	for _, doc := range s.collections[collection] {
		if matchesAll(doc.fields, predicates) {
			out = append(out, port.Document{ID: doc.id, Fields: cloneRecord(doc.fields)})
		}
	}
	return out
}

// publishLocked refreshes every subscriber of the collection. The channel has
// capacity one and is only touched under the store lock, so a stale pending
// snapshot is replaced rather than queued.
func (s *MemoryStore) publishLocked(collection string) {
	for _, sub := range s.subscribers[collection] {
		sub.deliverLocked(s.queryLocked(collection, sub.predicates))
	}
}

func (s *MemoryStore) removeSubscriber(sub *memorySubscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscribers[sub.collection]
	for i, candidate := range subs {
		if candidate == sub {
			s.subscribers[sub.collection] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

type memorySubscription struct {
	store      *MemoryStore
	collection string
	predicates []port.Predicate
	ch         chan []port.Document

	closeOnce sync.Once
}

// Snapshots returns the snapshot channel
func (s *memorySubscription) Snapshots() <-chan []port.Document {
	return s.ch
}

// Close ends the subscription; safe to call more than once
func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		s.store.removeSubscriber(s)
		close(s.ch)
	})
	return nil
}

func (s *memorySubscription) deliverLocked(snapshot []port.Document) {
	select {
	case s.ch <- snapshot:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- snapshot
	}
}

func cloneRecord(fields port.Record) port.Record {
	out := make(port.Record, len(fields))
	for field, value := range fields {
		out[field] = value
	}
	return out
}

func matchesAll(fields port.Record, predicates []port.Predicate) bool {
	for _, p := range predicates {
		if !matches(fields, p) {
			return false
		}
	}
	return true
}

func matches(fields port.Record, p port.Predicate) bool {
	value, ok := fields[p.Field]
	if !ok {
		return false
	}

	switch p.Op {
	case port.OpEqual:
		return value == p.Value
	case port.OpGreaterOrEqual:
		cmp, ok := compareValues(value, p.Value)
		return ok && cmp >= 0
	case port.OpLessOrEqual:
		cmp, ok := compareValues(value, p.Value)
		return ok && cmp <= 0
	default:
		return false
	}
}

// compareValues orders two field values of the same kind. Strings compare
// lexically, which is also correct for the RFC3339 timestamps and YYYY-MM-DD
// dates stored here; numbers compare through float64.
func compareValues(a, b any) (int, bool) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
