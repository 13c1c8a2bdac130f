package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted from the
	// current state, or when every guard attached to it denies the actor.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not a valid lifecycle state
	ErrInvalidState = errors.New("invalid state")
)
