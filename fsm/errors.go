package fsm

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned when a transition or the initial state names a state
// that was never added.
var ErrUnknownState = errors.New("fsm: unknown state")

// DuplicateRegistrationError reports a state or transition added twice.
type DuplicateRegistrationError struct {
	// What is "state" or "transition".
	What string
	Key  string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("fsm: %s %s already registered", e.What, e.Key)
}
