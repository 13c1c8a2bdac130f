package entity

import (
	"fmt"
	"time"

	"github.com/nkulkarni/school-leave/internal/domain/workflow"
)

// Stored field names. The query views and partial updates address fields by
// name, so these are shared with the engine rather than repeated inline.
const (
	FieldRequesterID   = "requester_id"
	FieldRequesterName = "requester_name"
	FieldRequesterRole = "requester_role"
	FieldClassName     = "class_name"
	FieldStartDate     = "start_date"
	FieldEndDate       = "end_date"
	FieldReason        = "reason"
	FieldStatus        = "status"
	FieldTeacherRemark = "teacher_remark"
	FieldAdminRemark   = "admin_remark"
	FieldCreatedAt     = "created_at"
	FieldUpdatedAt     = "updated_at"
)

// ToFields flattens a request into the schemaless shape the document store
// persists. Timestamps are RFC3339Nano strings. Variant-only fields are
// written only for the variant that owns them.
func ToFields(req Request) map[string]any {
	core := req.Core()
	fields := map[string]any{
		FieldRequesterID:   core.RequesterID,
		FieldRequesterName: core.RequesterName,
		FieldRequesterRole: req.RequesterRole().String(),
		FieldStartDate:     core.StartDate,
		FieldEndDate:       core.EndDate,
		FieldReason:        core.Reason,
		FieldStatus:        core.Status.String(),
		FieldAdminRemark:   core.AdminRemark,
		FieldCreatedAt:     core.CreatedAt.UTC().Format(time.RFC3339Nano),
		FieldUpdatedAt:     core.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	if student, ok := req.(*StudentLeave); ok {
		fields[FieldClassName] = student.ClassName
		fields[FieldTeacherRemark] = student.TeacherRemark
	}

	return fields
}

// FromFields rebuilds the typed variant from a stored record, dispatching on
// the requester_role discriminator.
func FromFields(id string, fields map[string]any) (Request, error) {
	core, err := coreFromFields(id, fields)
	if err != nil {
		return nil, err
	}

	role := Role(stringField(fields, FieldRequesterRole))
	switch role {
	case RoleTeacher:
		return &PersonalLeave{RequestCore: core}, nil
	case RoleStudent:
		return &StudentLeave{
			RequestCore:   core,
			ClassName:     stringField(fields, FieldClassName),
			TeacherRemark: stringField(fields, FieldTeacherRemark),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q in record %s", ErrUnknownRole, role, id)
	}
}

func coreFromFields(id string, fields map[string]any) (RequestCore, error) {
	createdAt, err := timeField(fields, FieldCreatedAt)
	if err != nil {
		return RequestCore{}, fmt.Errorf("record %s: %w", id, err)
	}
	updatedAt, err := timeField(fields, FieldUpdatedAt)
	if err != nil {
		return RequestCore{}, fmt.Errorf("record %s: %w", id, err)
	}

	status := workflow.State(stringField(fields, FieldStatus))
	if !status.IsValid() {
		return RequestCore{}, fmt.Errorf("record %s: %w: %q", id, workflow.ErrInvalidState, status)
	}

	return RequestCore{
		ID:            id,
		RequesterID:   stringField(fields, FieldRequesterID),
		RequesterName: stringField(fields, FieldRequesterName),
		StartDate:     stringField(fields, FieldStartDate),
		EndDate:       stringField(fields, FieldEndDate),
		Reason:        stringField(fields, FieldReason),
		Status:        status,
		AdminRemark:   stringField(fields, FieldAdminRemark),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

func timeField(fields map[string]any, name string) (time.Time, error) {
	raw := stringField(fields, name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing timestamp field %s", name)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp field %s: %v", name, err)
	}
	return t, nil
}
