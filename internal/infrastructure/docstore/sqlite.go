package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nkulkarni/school-leave/internal/application/port"
	"github.com/nkulkarni/school-leave/pkg/database"
)

// DefaultPollInterval is how often SQLite subscriptions re-run their query.
// SQLite has no change feed, so live updates are polled.
const DefaultPollInterval = 2 * time.Second

// SQLiteStore is a DocumentStore over a single documents table: one JSON blob
// per record, filtered with json_extract. Every I/O failure is wrapped with
// port.ErrStoreUnavailable so callers can treat the store as one collaborator.
type SQLiteStore struct {
	db           *database.DB
	logger       *zap.Logger
	pollInterval time.Duration
}

// SQLiteOption configures the store
type SQLiteOption func(*SQLiteStore)

// WithPollInterval overrides the subscription polling interval
func WithPollInterval(interval time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		s.pollInterval = interval
	}
}

// NewSQLiteStore creates a document store over an open database
func NewSQLiteStore(db *database.DB, logger *zap.Logger, opts ...SQLiteOption) *SQLiteStore {
	s := &SQLiteStore{
		db:           db,
		logger:       logger,
		pollInterval: DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create persists a new record and returns its generated id
func (s *SQLiteStore) Create(ctx context.Context, collection string, fields port.Record) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("%w: encode record: %v", port.ErrStoreUnavailable, err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (id, collection, fields) VALUES (?, ?, ?)",
		id, collection, string(payload),
	)
	if err != nil {
		s.logger.Error("Failed to insert document", zap.Error(err), zap.String("collection", collection))
		return "", fmt.Errorf("%w: insert record: %v", port.ErrStoreUnavailable, err)
	}

	return id, nil
}

// Get fetches a single record by id
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (port.Document, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT fields FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return port.Document{}, fmt.Errorf("%w: %s/%s", port.ErrNotFound, collection, id)
	}
	if err != nil {
		return port.Document{}, fmt.Errorf("%w: get record: %v", port.ErrStoreUnavailable, err)
	}

	fields, err := decodePayload(payload)
	if err != nil {
		return port.Document{}, err
	}
	return port.Document{ID: id, Fields: fields}, nil
}

// Query returns matching records in insertion order (rowid). Ordering by a
// record field combined with a filter would need a composite index, so the
// store never sorts; callers order results themselves.
func (s *SQLiteStore) Query(ctx context.Context, collection string, predicates []port.Predicate) ([]port.Document, error) {
	query := "SELECT id, fields FROM documents WHERE collection = ?"
	args := []any{collection}

	for _, p := range predicates {
		op, err := sqlOp(p.Op)
		if err != nil {
			return nil, err
		}
		query += fmt.Sprintf(" AND json_extract(fields, ?) %s ?", op)
		args = append(args, "$."+p.Field, p.Value)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to query documents", zap.Error(err), zap.String("collection", collection))
		return nil, fmt.Errorf("%w: query records: %v", port.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var docs []port.Document
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", port.ErrStoreUnavailable, err)
		}
		fields, err := decodePayload(payload)
		if err != nil {
			return nil, err
		}
		docs = append(docs, port.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate records: %v", port.ErrStoreUnavailable, err)
	}

	return docs, nil
}

// UpdatePartial overwrites only the given fields, merging into the stored
// JSON inside one transaction
func (s *SQLiteStore) UpdatePartial(ctx context.Context, collection, id string, fields port.Record) error {
	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		var payload string
		err := tx.QueryRowContext(ctx,
			"SELECT fields FROM documents WHERE collection = ? AND id = ?",
			collection, id,
		).Scan(&payload)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", port.ErrNotFound, collection, id)
		}
		if err != nil {
			return fmt.Errorf("%w: load record: %v", port.ErrStoreUnavailable, err)
		}

		stored, err := decodePayload(payload)
		if err != nil {
			return err
		}
		for field, value := range fields {
			stored[field] = value
		}

		merged, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("%w: encode record: %v", port.ErrStoreUnavailable, err)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE documents SET fields = ? WHERE collection = ? AND id = ?",
			string(merged), collection, id,
		)
		if err != nil {
			return fmt.Errorf("%w: update record: %v", port.ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update document", zap.Error(err), zap.String("id", id))
	}
	return err
}

// Subscribe polls the query on a fixed interval and delivers a snapshot
// whenever the result set changes, starting with the current state
func (s *SQLiteStore) Subscribe(ctx context.Context, collection string, predicates []port.Predicate) (port.Subscription, error) {
	initial, err := s.Query(ctx, collection, predicates)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	sub := &sqliteSubscription{
		ch:     make(chan []port.Document, 1),
		cancel: cancel,
	}

	go s.poll(pollCtx, sub, collection, predicates, initial)
	return sub, nil
}

func (s *SQLiteStore) poll(ctx context.Context, sub *sqliteSubscription, collection string, predicates []port.Predicate, last []port.Document) {
	defer close(sub.ch)

	sub.deliver(last)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := s.Query(ctx, collection, predicates)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("Subscription poll failed", zap.Error(err), zap.String("collection", collection))
				continue
			}
			if reflect.DeepEqual(current, last) {
				continue
			}
			last = current
			sub.deliver(current)
		}
	}
}

type sqliteSubscription struct {
	ch     chan []port.Document
	cancel context.CancelFunc

	closeOnce sync.Once
}

// Snapshots returns the snapshot channel
func (s *sqliteSubscription) Snapshots() <-chan []port.Document {
	return s.ch
}

// Close ends the subscription; safe to call more than once
func (s *sqliteSubscription) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

// deliver replaces any undelivered snapshot with the newer one. Only the
// polling goroutine sends on the channel, so drain-then-send cannot race.
func (s *sqliteSubscription) deliver(snapshot []port.Document) {
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

func sqlOp(op port.Op) (string, error) {
	switch op {
	case port.OpEqual:
		return "=", nil
	case port.OpGreaterOrEqual:
		return ">=", nil
	case port.OpLessOrEqual:
		return "<=", nil
	default:
		return "", fmt.Errorf("unsupported predicate operator: %s", op)
	}
}

func decodePayload(payload string) (port.Record, error) {
	var fields port.Record
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, fmt.Errorf("%w: decode record: %v", port.ErrStoreUnavailable, err)
	}
	return fields, nil
}
