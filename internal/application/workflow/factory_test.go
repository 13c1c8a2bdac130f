package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/nkulkarni/school-leave/internal/domain/entity"
	domainwf "github.com/nkulkarni/school-leave/internal/domain/workflow"
)

func TestBuildLeaveStateMachine_TeacherForwards(t *testing.T) {
	machine := BuildLeaveStateMachine(domainwf.StatePendingTeacher, entity.RoleTeacher)

	if err := machine.Fire(context.Background(), domainwf.TriggerForward); err != nil {
		t.Fatalf("Fire(FORWARD) failed: %v", err)
	}
	if machine.State() != domainwf.StatePendingAdmin {
		t.Errorf("state = %v, want %v", machine.State(), domainwf.StatePendingAdmin)
	}
}

func TestBuildLeaveStateMachine_TeacherRejects(t *testing.T) {
	machine := BuildLeaveStateMachine(domainwf.StatePendingTeacher, entity.RoleTeacher)

	if err := machine.Fire(context.Background(), domainwf.TriggerReject); err != nil {
		t.Fatalf("Fire(REJECT) failed: %v", err)
	}
	if machine.State() != domainwf.StateRejected {
		t.Errorf("state = %v, want %v", machine.State(), domainwf.StateRejected)
	}
}

func TestBuildLeaveStateMachine_AdminDisposes(t *testing.T) {
	tests := []struct {
		name    string
		trigger domainwf.Trigger
		want    domainwf.State
	}{
		{"approve", domainwf.TriggerApprove, domainwf.StateApproved},
		{"reject", domainwf.TriggerReject, domainwf.StateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := BuildLeaveStateMachine(domainwf.StatePendingAdmin, entity.RoleAdmin)

			if err := machine.Fire(context.Background(), tt.trigger); err != nil {
				t.Fatalf("Fire(%s) failed: %v", tt.trigger, err)
			}
			if machine.State() != tt.want {
				t.Errorf("state = %v, want %v", machine.State(), tt.want)
			}
		})
	}
}

func TestBuildLeaveStateMachine_RoleMismatchDenied(t *testing.T) {
	tests := []struct {
		name    string
		initial domainwf.State
		actor   entity.Role
		trigger domainwf.Trigger
	}{
		{"admin cannot forward", domainwf.StatePendingTeacher, entity.RoleAdmin, domainwf.TriggerForward},
		{"student cannot forward", domainwf.StatePendingTeacher, entity.RoleStudent, domainwf.TriggerForward},
		{"teacher cannot approve", domainwf.StatePendingAdmin, entity.RoleTeacher, domainwf.TriggerApprove},
		{"student cannot reject", domainwf.StatePendingAdmin, entity.RoleStudent, domainwf.TriggerReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := BuildLeaveStateMachine(tt.initial, tt.actor)

			err := machine.Fire(context.Background(), tt.trigger)
			if !errors.Is(err, domainwf.ErrInvalidTransition) {
				t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
			}
			if machine.State() != tt.initial {
				t.Errorf("state changed on denied transition: %v", machine.State())
			}
		})
	}
}

func TestBuildLeaveStateMachine_TerminalStates(t *testing.T) {
	for _, state := range []domainwf.State{domainwf.StateApproved, domainwf.StateRejected} {
		t.Run(state.String(), func(t *testing.T) {
			machine := BuildLeaveStateMachine(state, entity.RoleAdmin)

			if got := machine.PermittedTriggers(); len(got) != 0 {
				t.Errorf("terminal state %s permits triggers: %v", state, got)
			}
		})
	}
}

func TestBuildLeaveStateMachine_WrongStageDenied(t *testing.T) {
	// A request still in teacher review must not accept admin disposition.
	machine := BuildLeaveStateMachine(domainwf.StatePendingTeacher, entity.RoleAdmin)

	err := machine.Fire(context.Background(), domainwf.TriggerApprove)
	if !errors.Is(err, domainwf.ErrInvalidTransition) {
		t.Errorf("Fire(APPROVE) from pending_teacher error = %v, want ErrInvalidTransition", err)
	}
}
