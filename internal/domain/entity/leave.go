package entity

import (
	"time"

	"github.com/nkulkarni/school-leave/internal/domain/workflow"
)

// Default remarks applied when a reviewer acts without writing one.
const (
	DefaultForwardRemark = "Forwarded by Class Teacher"
	DefaultApproveRemark = "Approved"
	DefaultRejectRemark  = "Rejected"
)

// Request is the sealed sum of leave-request variants. A request is either a
// teacher's own PersonalLeave or a StudentLeave routed through the class
// teacher; only the student variant carries a class name and a teacher
// remark, so "teacherRemark on a personal leave" cannot be represented.
type Request interface {
	// Core returns the fields shared by every variant
	Core() *RequestCore

	// RequesterRole returns the role that originated the request
	RequesterRole() Role

	sealed()
}

// RequestCore holds the fields shared by both request variants.
// Dates are inclusive calendar dates in YYYY-MM-DD form. CreatedAt is set
// once at creation and never modified; UpdatedAt is overwritten on every
// status transition.
type RequestCore struct {
	ID            string
	RequesterID   string
	RequesterName string
	StartDate     string
	EndDate       string
	Reason        string
	Status        workflow.State
	AdminRemark   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PersonalLeave is a teacher's own leave request. It skips teacher review and
// is created directly in pending_admin: a teacher cannot review their own
// leave.
type PersonalLeave struct {
	RequestCore
}

// StudentLeave is a student-originated request, created in pending_teacher
// and reviewed by the class teacher before it reaches the admin.
type StudentLeave struct {
	RequestCore

	ClassName     string
	TeacherRemark string
}

// Core returns the fields shared by every variant
func (p *PersonalLeave) Core() *RequestCore { return &p.RequestCore }

// RequesterRole returns RoleTeacher
func (p *PersonalLeave) RequesterRole() Role { return RoleTeacher }

func (p *PersonalLeave) sealed() {}

// Core returns the fields shared by every variant
func (s *StudentLeave) Core() *RequestCore { return &s.RequestCore }

// RequesterRole returns RoleStudent
func (s *StudentLeave) RequesterRole() Role { return RoleStudent }

func (s *StudentLeave) sealed() {}

// NewPersonalLeave builds a teacher's personal leave request. Initial state
// is chosen here, at creation time, from the requester role.
func NewPersonalLeave(requesterID, requesterName, startDate, endDate, reason string, now time.Time) *PersonalLeave {
	return &PersonalLeave{
		RequestCore: RequestCore{
			RequesterID:   requesterID,
			RequesterName: requesterName,
			StartDate:     startDate,
			EndDate:       endDate,
			Reason:        reason,
			Status:        workflow.StatePendingAdmin,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

// NewStudentLeave builds a student-originated leave request awaiting the
// class teacher's first-pass review.
func NewStudentLeave(requesterID, requesterName, className, startDate, endDate, reason string, now time.Time) *StudentLeave {
	return &StudentLeave{
		RequestCore: RequestCore{
			RequesterID:   requesterID,
			RequesterName: requesterName,
			StartDate:     startDate,
			EndDate:       endDate,
			Reason:        reason,
			Status:        workflow.StatePendingTeacher,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		ClassName: className,
	}
}
