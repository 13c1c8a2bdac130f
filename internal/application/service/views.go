package service

import (
	"context"
	"sort"

	"github.com/nkulkarni/school-leave/internal/application/port"
	"github.com/nkulkarni/school-leave/internal/domain/entity"
	domainwf "github.com/nkulkarni/school-leave/internal/domain/workflow"
)

// The three read views are plain conjunctive filters over one collection.
// Ordering is applied here, after the fetch: the store cannot combine a
// filter with an order-by without a pre-declared composite index, so the sort
// is a stable client-side pass on created_at, newest first, ties preserving
// the store's insertion order.

func adminInboxPredicates() []port.Predicate {
	return []port.Predicate{
		port.Eq(entity.FieldStatus, domainwf.StatePendingAdmin.String()),
	}
}

func teacherInboxPredicates() []port.Predicate {
	return []port.Predicate{
		port.Eq(entity.FieldRequesterRole, entity.RoleStudent.String()),
		port.Eq(entity.FieldStatus, domainwf.StatePendingTeacher.String()),
	}
}

// AdminInbox lists requests awaiting admin disposition, newest first. Both
// teacher-personal and forwarded student requests appear here.
func (w *leaveWorkflowImpl) AdminInbox(ctx context.Context) ([]entity.Request, error) {
	return w.view(ctx, adminInboxPredicates())
}

// TeacherInbox lists student requests awaiting first-pass teacher review, newest first
func (w *leaveWorkflowImpl) TeacherInbox(ctx context.Context) ([]entity.Request, error) {
	return w.view(ctx, teacherInboxPredicates())
}

// ActorHistory lists every request of one requester regardless of status, newest first
func (w *leaveWorkflowImpl) ActorHistory(ctx context.Context, actorID string) ([]entity.Request, error) {
	return w.view(ctx, []port.Predicate{
		port.Eq(entity.FieldRequesterID, actorID),
	})
}

func (w *leaveWorkflowImpl) view(ctx context.Context, predicates []port.Predicate) ([]entity.Request, error) {
	docs, err := w.store.Query(ctx, w.collection, predicates)
	if err != nil {
		w.logger.Error("view query failed", "error", err)
		return nil, err
	}

	reqs, err := decodeDocuments(docs)
	if err != nil {
		w.logger.Error("view decode failed", "error", err)
		return nil, err
	}

	sortNewestFirst(reqs)
	return reqs, nil
}

// WatchAdminInbox streams the admin inbox as the underlying collection
// changes. Each snapshot is decoded and sorted like the one-shot view; the
// channel closes when ctx is cancelled or the store ends the subscription.
func (w *leaveWorkflowImpl) WatchAdminInbox(ctx context.Context) (<-chan []entity.Request, error) {
	return w.watch(ctx, adminInboxPredicates())
}

// WatchTeacherInbox streams the teacher inbox as the underlying collection changes
func (w *leaveWorkflowImpl) WatchTeacherInbox(ctx context.Context) (<-chan []entity.Request, error) {
	return w.watch(ctx, teacherInboxPredicates())
}

func (w *leaveWorkflowImpl) watch(ctx context.Context, predicates []port.Predicate) (<-chan []entity.Request, error) {
	sub, err := w.store.Subscribe(ctx, w.collection, predicates)
	if err != nil {
		w.logger.Error("subscribe failed", "error", err)
		return nil, err
	}

	out := make(chan []entity.Request, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		for docs := range sub.Snapshots() {
			reqs, err := decodeDocuments(docs)
			if err != nil {
				w.logger.Error("snapshot decode failed", "error", err)
				continue
			}
			sortNewestFirst(reqs)

			select {
			case out <- reqs:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func decodeDocuments(docs []port.Document) ([]entity.Request, error) {
	reqs := make([]entity.Request, 0, len(docs))
	for _, doc := range docs {
		req, err := entity.FromFields(doc.ID, doc.Fields)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func sortNewestFirst(reqs []entity.Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].Core().CreatedAt.After(reqs[j].Core().CreatedAt)
	})
}
