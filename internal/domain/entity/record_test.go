package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/nkulkarni/school-leave/internal/domain/workflow"
)

func TestToFields_VariantFields(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	personal := ToFields(NewPersonalLeave("t-1", "Mr. Rao", "2024-05-01", "2024-05-02", "errand", now))
	if _, ok := personal[FieldTeacherRemark]; ok {
		t.Error("personal leave must not carry a teacher remark field")
	}
	if _, ok := personal[FieldClassName]; ok {
		t.Error("personal leave must not carry a class name field")
	}
	if personal[FieldStatus] != workflow.StatePendingAdmin.String() {
		t.Errorf("personal leave status = %v, want pending_admin", personal[FieldStatus])
	}

	student := ToFields(NewStudentLeave("s-1", "Asha", "7", "2024-05-01", "2024-05-03", "fever", now))
	if student[FieldClassName] != "7" {
		t.Errorf("class name = %v, want 7", student[FieldClassName])
	}
	if student[FieldStatus] != workflow.StatePendingTeacher.String() {
		t.Errorf("student leave status = %v, want pending_teacher", student[FieldStatus])
	}
}

func TestFromFields_DispatchesOnRole(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	req, err := FromFields("id-1", ToFields(NewStudentLeave("s-1", "Asha", "7", "2024-05-01", "2024-05-03", "fever", now)))
	if err != nil {
		t.Fatalf("FromFields() failed: %v", err)
	}

	student, ok := req.(*StudentLeave)
	if !ok {
		t.Fatalf("decoded %T, want *StudentLeave", req)
	}
	if student.ID != "id-1" || student.ClassName != "7" {
		t.Errorf("decoded student = %+v", student)
	}
	if !student.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v, want %v", student.CreatedAt, now)
	}

	req, err = FromFields("id-2", ToFields(NewPersonalLeave("t-1", "Mr. Rao", "2024-05-01", "2024-05-02", "errand", now)))
	if err != nil {
		t.Fatalf("FromFields() failed: %v", err)
	}
	if _, ok := req.(*PersonalLeave); !ok {
		t.Fatalf("decoded %T, want *PersonalLeave", req)
	}
}

func TestFromFields_Errors(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	valid := ToFields(NewStudentLeave("s-1", "Asha", "7", "2024-05-01", "2024-05-03", "fever", now))

	corrupt := func(field string, value any) map[string]any {
		fields := make(map[string]any, len(valid))
		for k, v := range valid {
			fields[k] = v
		}
		fields[field] = value
		return fields
	}

	if _, err := FromFields("x", corrupt(FieldRequesterRole, "parent")); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("unknown role error = %v, want ErrUnknownRole", err)
	}

	if _, err := FromFields("x", corrupt(FieldStatus, "archived")); !errors.Is(err, workflow.ErrInvalidState) {
		t.Errorf("bad status error = %v, want ErrInvalidState", err)
	}

	if _, err := FromFields("x", corrupt(FieldCreatedAt, "yesterday")); err == nil {
		t.Error("bad timestamp should fail to decode")
	}
}
