package workflow

import (
	"context"

	"github.com/nkulkarni/school-leave/internal/domain/entity"
	domainwf "github.com/nkulkarni/school-leave/internal/domain/workflow"
)

// BuildLeaveStateMachine creates a state machine configured for the leave
// approval lifecycle, guarded for the given acting role. Student requests
// pass teacher review before admin review; a teacher's personal leave is
// created directly in pending_admin, so no transition out of pending_teacher
// ever applies to it.
func BuildLeaveStateMachine(initialState domainwf.State, actor entity.Role) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// pending_teacher: first-pass review by the class teacher
	builder.Configure(domainwf.StatePendingTeacher).
		PermitIf(domainwf.TriggerForward, domainwf.StatePendingAdmin, requireRole(actor, entity.RoleTeacher)).
		PermitIf(domainwf.TriggerReject, domainwf.StateRejected, requireRole(actor, entity.RoleTeacher))

	// pending_admin: final disposition by the admin
	builder.Configure(domainwf.StatePendingAdmin).
		PermitIf(domainwf.TriggerApprove, domainwf.StateApproved, requireRole(actor, entity.RoleAdmin)).
		PermitIf(domainwf.TriggerReject, domainwf.StateRejected, requireRole(actor, entity.RoleAdmin))

	// approved and rejected are terminal - no outgoing transitions

	return builder.Build(initialState)
}

func requireRole(actor, want entity.Role) domainwf.GuardFunc {
	return func(ctx context.Context) bool {
		return actor == want
	}
}
