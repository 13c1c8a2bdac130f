package workflow

// State represents a position in the leave-request lifecycle
type State string

const (
	StatePendingTeacher State = "pending_teacher"
	StatePendingAdmin   State = "pending_admin"
	StateApproved       State = "approved"
	StateRejected       State = "rejected"
)

var validStates = map[State]bool{
	StatePendingTeacher: true,
	StatePendingAdmin:   true,
	StateApproved:       true,
	StateRejected:       true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is terminal (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
