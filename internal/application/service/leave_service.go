package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nkulkarni/school-leave/internal/application/port"
	appwf "github.com/nkulkarni/school-leave/internal/application/workflow"
	"github.com/nkulkarni/school-leave/internal/domain/entity"
	domainwf "github.com/nkulkarni/school-leave/internal/domain/workflow"
	"github.com/nkulkarni/school-leave/pkg/utils"
)

// DefaultCollection is the document-store collection holding leave requests
const DefaultCollection = "leave_requests"

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Session identifies the acting human for a workflow call. It is passed
// explicitly into every mutation so the engine carries no ambient auth state
// and is testable without a live store connection.
type Session struct {
	ActorID   string
	ActorName string
	Role      entity.Role
}

// LeaveInput carries the fields of a new leave request
type LeaveInput struct {
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
	Reason    string
}

// StudentLeaveInput carries a student-originated request. When a teacher
// files it on the student's behalf the student fields identify the requester;
// a student session may leave them empty, and if set they must name the
// student themselves.
type StudentLeaveInput struct {
	LeaveInput

	StudentID   string
	StudentName string
	ClassName   string
}

// LeaveWorkflow owns the lifecycle of leave requests: role-gated creation,
// the review transitions, and the filtered read views.
type LeaveWorkflow interface {
	// SubmitPersonalLeave creates a teacher's own request in pending_admin
	SubmitPersonalLeave(ctx context.Context, sess Session, in LeaveInput) (*entity.PersonalLeave, error)

	// SubmitStudentLeave creates a student request in pending_teacher
	SubmitStudentLeave(ctx context.Context, sess Session, in StudentLeaveInput) (*entity.StudentLeave, error)

	// Forward moves a student request from teacher review to admin review
	Forward(ctx context.Context, sess Session, id, remark string) error

	// RejectByTeacher rejects a student request at teacher review; the remark is mandatory
	RejectByTeacher(ctx context.Context, sess Session, id, remark string) error

	// Approve grants a request awaiting admin disposition
	Approve(ctx context.Context, sess Session, id, remark string) error

	// RejectByAdmin denies a request awaiting admin disposition
	RejectByAdmin(ctx context.Context, sess Session, id, remark string) error

	// AdminInbox lists requests awaiting admin disposition, newest first
	AdminInbox(ctx context.Context) ([]entity.Request, error)

	// TeacherInbox lists student requests awaiting teacher review, newest first
	TeacherInbox(ctx context.Context) ([]entity.Request, error)

	// ActorHistory lists one requester's requests in any status, newest first
	ActorHistory(ctx context.Context, actorID string) ([]entity.Request, error)

	// WatchAdminInbox streams the admin inbox as it changes
	WatchAdminInbox(ctx context.Context) (<-chan []entity.Request, error)

	// WatchTeacherInbox streams the teacher inbox as it changes
	WatchTeacherInbox(ctx context.Context) (<-chan []entity.Request, error)
}

type leaveWorkflowImpl struct {
	store      port.DocumentStore
	sink       port.NotificationSink
	logger     Logger
	collection string
	now        func() time.Time
}

// Option configures the workflow engine
type Option func(*leaveWorkflowImpl)

// WithCollection overrides the document-store collection name
func WithCollection(name string) Option {
	return func(w *leaveWorkflowImpl) {
		w.collection = name
	}
}

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(w *leaveWorkflowImpl) {
		w.now = now
	}
}

// NewLeaveWorkflow creates the workflow engine
func NewLeaveWorkflow(store port.DocumentStore, sink port.NotificationSink, logger Logger, opts ...Option) LeaveWorkflow {
	w := &leaveWorkflowImpl{
		store:      store,
		sink:       sink,
		logger:     logger,
		collection: DefaultCollection,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// SubmitPersonalLeave creates a teacher's own leave request. It skips teacher
// review entirely: the initial state is chosen from the requester role at
// creation time, never from a later actor check.
func (w *leaveWorkflowImpl) SubmitPersonalLeave(ctx context.Context, sess Session, in LeaveInput) (*entity.PersonalLeave, error) {
	if sess.Role != entity.RoleTeacher {
		err := fmt.Errorf("%w: personal leave requires a teacher session, got %s", domainwf.ErrInvalidTransition, sess.Role)
		w.sink.Error(ctx, "Only teachers can apply for personal leave")
		return nil, err
	}

	if err := w.validateLeaveInput(ctx, in); err != nil {
		return nil, err
	}

	req := entity.NewPersonalLeave(sess.ActorID, sess.ActorName, in.StartDate, in.EndDate, in.Reason, w.now())

	id, err := w.store.Create(ctx, w.collection, entity.ToFields(req))
	if err != nil {
		w.logger.Error("failed to create personal leave", "error", err, "requester_id", sess.ActorID)
		w.sink.Error(ctx, "Failed to submit leave request")
		return nil, err
	}
	req.ID = id

	w.logger.Info("personal leave submitted", "id", id, "requester_id", sess.ActorID)
	w.sink.Success(ctx, "Leave request submitted")
	return req, nil
}

// SubmitStudentLeave creates a student-originated request in pending_teacher.
// A student session files for itself; a teacher session files on behalf of a
// named student (the class-teacher intake), in which case the requester is
// still the student.
func (w *leaveWorkflowImpl) SubmitStudentLeave(ctx context.Context, sess Session, in StudentLeaveInput) (*entity.StudentLeave, error) {
	requesterID, requesterName := in.StudentID, in.StudentName
	switch sess.Role {
	case entity.RoleStudent:
		// A student only ever files for themselves. The identity fields may
		// restate the session identity but never name another student.
		if requesterID != "" && requesterID != sess.ActorID {
			err := fmt.Errorf("%w: student %s cannot file leave for %s", entity.ErrValidation, sess.ActorID, requesterID)
			w.sink.Error(ctx, "Cannot submit a request for another student")
			return nil, err
		}
		requesterID, requesterName = sess.ActorID, sess.ActorName
	case entity.RoleTeacher:
		if utils.IsBlank(requesterID) || utils.IsBlank(requesterName) {
			err := fmt.Errorf("%w: student identity required for teacher intake", entity.ErrValidation)
			w.sink.Error(ctx, "Student name and id are required")
			return nil, err
		}
	default:
		err := fmt.Errorf("%w: student leave requires a student or teacher session, got %s", domainwf.ErrInvalidTransition, sess.Role)
		w.sink.Error(ctx, "Not allowed to submit a student leave request")
		return nil, err
	}

	if err := w.validateLeaveInput(ctx, in.LeaveInput); err != nil {
		return nil, err
	}
	if utils.IsBlank(in.ClassName) {
		err := fmt.Errorf("%w: class name must not be empty", entity.ErrValidation)
		w.sink.Error(ctx, "Class name is required")
		return nil, err
	}

	req := entity.NewStudentLeave(requesterID, requesterName, in.ClassName, in.StartDate, in.EndDate, in.Reason, w.now())

	id, err := w.store.Create(ctx, w.collection, entity.ToFields(req))
	if err != nil {
		w.logger.Error("failed to create student leave", "error", err, "requester_id", requesterID)
		w.sink.Error(ctx, "Failed to submit leave request")
		return nil, err
	}
	req.ID = id

	w.logger.Info("student leave submitted", "id", id, "requester_id", requesterID, "class", in.ClassName)
	w.sink.Success(ctx, "Leave request submitted")
	return req, nil
}

// Forward moves a student request to admin review. An empty remark defaults
// to "Forwarded by Class Teacher".
func (w *leaveWorkflowImpl) Forward(ctx context.Context, sess Session, id, remark string) error {
	if utils.IsBlank(remark) {
		remark = entity.DefaultForwardRemark
	}
	return w.transition(ctx, sess, id, domainwf.StatePendingTeacher, domainwf.TriggerForward,
		port.Record{entity.FieldTeacherRemark: remark},
		"Request forwarded to admin")
}

// RejectByTeacher rejects a student request at teacher review. The remark is
// mandatory; a blank remark fails validation and leaves the record untouched.
func (w *leaveWorkflowImpl) RejectByTeacher(ctx context.Context, sess Session, id, remark string) error {
	if utils.IsBlank(remark) {
		err := fmt.Errorf("%w: rejection remark must not be empty", entity.ErrValidation)
		w.sink.Error(ctx, "A remark is required to reject a request")
		return err
	}
	return w.transition(ctx, sess, id, domainwf.StatePendingTeacher, domainwf.TriggerReject,
		port.Record{entity.FieldTeacherRemark: remark},
		"Request rejected")
}

// Approve grants a request in admin review. An empty remark defaults to "Approved".
func (w *leaveWorkflowImpl) Approve(ctx context.Context, sess Session, id, remark string) error {
	if utils.IsBlank(remark) {
		remark = entity.DefaultApproveRemark
	}
	return w.transition(ctx, sess, id, domainwf.StatePendingAdmin, domainwf.TriggerApprove,
		port.Record{entity.FieldAdminRemark: remark},
		"Request approved")
}

// RejectByAdmin denies a request in admin review. An empty remark defaults to "Rejected".
func (w *leaveWorkflowImpl) RejectByAdmin(ctx context.Context, sess Session, id, remark string) error {
	if utils.IsBlank(remark) {
		remark = entity.DefaultRejectRemark
	}
	return w.transition(ctx, sess, id, domainwf.StatePendingAdmin, domainwf.TriggerReject,
		port.Record{entity.FieldAdminRemark: remark},
		"Request rejected")
}

// transition reloads the record, fires the trigger on a state machine guarded
// for the session role, and writes status, remark and updated_at in one
// partial update. Each caller binds to the review stage its trigger fires
// from: the reject triggers share a name across both stages but carry
// different remark semantics, so a record loaded in any other state is
// rejected before the machine is consulted. There is no
// optimistic-concurrency token: two racing updates are last-writer-wins,
// though a resubmission that reloads a terminal state is rejected by the
// stage check here.
func (w *leaveWorkflowImpl) transition(ctx context.Context, sess Session, id string, from domainwf.State, trigger domainwf.Trigger, remarkFields port.Record, successMsg string) error {
	doc, err := w.store.Get(ctx, w.collection, id)
	if err != nil {
		w.logger.Error("failed to load request", "error", err, "id", id)
		w.sink.Error(ctx, "Action failed")
		return err
	}

	req, err := entity.FromFields(doc.ID, doc.Fields)
	if err != nil {
		w.logger.Error("failed to decode request", "error", err, "id", id)
		w.sink.Error(ctx, "Action failed")
		return err
	}

	if req.Core().Status != from {
		err := fmt.Errorf("%w: cannot fire trigger %s from state %s", domainwf.ErrInvalidTransition, trigger, req.Core().Status)
		w.logger.Info("transition denied", "id", id, "trigger", trigger.String(), "state", req.Core().Status.String(), "role", sess.Role.String())
		w.sink.Error(ctx, "Action failed")
		return err
	}

	// The teacher remark only exists on the student variant; writing it to a
	// personal leave would fabricate a review stage the request never had.
	if _, writesTeacherRemark := remarkFields[entity.FieldTeacherRemark]; writesTeacherRemark {
		if _, ok := req.(*entity.StudentLeave); !ok {
			err := fmt.Errorf("%w: %s on a personal leave request", domainwf.ErrInvalidTransition, trigger)
			w.sink.Error(ctx, "Action failed")
			return err
		}
	}

	machine := appwf.BuildLeaveStateMachine(req.Core().Status, sess.Role)
	previous := machine.State()
	if err := machine.Fire(ctx, trigger); err != nil {
		w.logger.Info("transition denied", "id", id, "trigger", trigger.String(), "state", previous.String(), "role", sess.Role.String())
		w.sink.Error(ctx, "Action failed")
		return err
	}

	updates := port.Record{
		entity.FieldStatus:    machine.State().String(),
		entity.FieldUpdatedAt: w.now().UTC().Format(time.RFC3339Nano),
	}
	for field, value := range remarkFields {
		updates[field] = value
	}

	if err := w.store.UpdatePartial(ctx, w.collection, id, updates); err != nil {
		w.logger.Error("failed to update request", "error", err, "id", id)
		w.sink.Error(ctx, "Action failed")
		return err
	}

	w.logger.Info("request transitioned",
		"id", id,
		"trigger", trigger.String(),
		"from", previous.String(),
		"to", machine.State().String(),
		"actor_id", sess.ActorID)
	w.sink.Success(ctx, successMsg)
	return nil
}

func (w *leaveWorkflowImpl) validateLeaveInput(ctx context.Context, in LeaveInput) error {
	if err := utils.ValidateText("reason", in.Reason); err != nil {
		w.sink.Error(ctx, "A reason is required")
		return fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	if err := utils.ValidateDate(in.StartDate); err != nil {
		w.sink.Error(ctx, "Start date is invalid")
		return fmt.Errorf("%w: start date: %v", entity.ErrValidation, err)
	}
	if err := utils.ValidateDate(in.EndDate); err != nil {
		w.sink.Error(ctx, "End date is invalid")
		return fmt.Errorf("%w: end date: %v", entity.ErrValidation, err)
	}
	// startDate <= endDate is deliberately not checked; see DESIGN.md.
	return nil
}
