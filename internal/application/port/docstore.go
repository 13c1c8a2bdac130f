package port

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable wraps any I/O failure of a document store
	// implementation. The engine propagates it untouched; there is no retry
	// layer, the human actor retries.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrNotFound is returned when a record id does not exist in a collection
	ErrNotFound = errors.New("record not found")
)

// Record is the schemaless field set of one stored document
type Record map[string]any

// Document pairs a store-assigned id with its fields
type Document struct {
	ID     string
	Fields Record
}

// Op is a predicate operator. Only equality and inclusive range comparisons
// are supported, mirroring what schemaless document stores offer without a
// composite index.
type Op string

const (
	OpEqual          Op = "=="
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
)

// Predicate filters a collection on a single field
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality predicate
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEqual, Value: value}
}

// Gte builds an inclusive lower-bound predicate
func Gte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpGreaterOrEqual, Value: value}
}

// Lte builds an inclusive upper-bound predicate
func Lte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpLessOrEqual, Value: value}
}

// DocumentStore is the persistence collaborator: create, fetch, filtered
// query and partial update over schemaless records.
//
// Query results come back in store insertion order. The store is never asked
// to order results: combining a range filter with an order-by needs a
// pre-declared composite index in most document stores, so any ordering a
// caller needs is applied client-side after the fetch.
type DocumentStore interface {
	// Create persists a new record and returns the store-assigned id
	Create(ctx context.Context, collection string, fields Record) (string, error)

	// Get fetches a single record by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns all records matching every predicate (conjunction)
	Query(ctx context.Context, collection string, predicates []Predicate) ([]Document, error)

	// UpdatePartial overwrites only the given fields of an existing record
	UpdatePartial(ctx context.Context, collection, id string, fields Record) error

	// Subscribe streams snapshots of the records matching the predicates.
	// A snapshot is delivered after every observed change; the subscription
	// ends when ctx is cancelled or Close is called.
	Subscribe(ctx context.Context, collection string, predicates []Predicate) (Subscription, error)
}

// Subscription is a live feed of query snapshots
type Subscription interface {
	// Snapshots returns the snapshot channel. It is closed when the
	// subscription ends.
	Snapshots() <-chan []Document

	// Close ends the subscription and releases its resources
	Close() error
}
