package activity

import (
	"errors"
	"fmt"
)

// ErrNoBehavior is returned when creating an activity from an address-only
// descriptor.
var ErrNoBehavior = errors.New("descriptor has no behavior")

// StartupError reports that an activity could not be started. Supervisors use
// it to fail fast instead of running a degraded activity.
type StartupError struct {
	Activity string
	Err      error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("activity %s failed to start: %v", e.Activity, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
