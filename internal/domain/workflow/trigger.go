package workflow

// Trigger represents a reviewer action that can cause a state transition
type Trigger string

const (
	TriggerForward Trigger = "FORWARD"
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
