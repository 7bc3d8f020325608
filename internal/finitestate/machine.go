// Package finitestate tracks the lifecycle status of activities and runnables.
package finitestate

import (
	"context"
	"log/slog"

	"github.com/robbyt/go-fsm"
)

const (
	StatusNew      = fsm.StatusNew
	StatusBooting  = fsm.StatusBooting
	StatusRunning  = fsm.StatusRunning
	StatusStopping = fsm.StatusStopping
	StatusStopped  = fsm.StatusStopped
	StatusError    = fsm.StatusError
	StatusUnknown  = fsm.StatusUnknown
)

// LifecycleTransitions are the status changes an activity goes through. An
// activity may be stopped while it is still booting, and an errored activity
// is still torn down.
var LifecycleTransitions = map[string][]string{
	StatusNew:      {StatusBooting, StatusStopping, StatusError},
	StatusBooting:  {StatusRunning, StatusStopping, StatusError},
	StatusRunning:  {StatusStopping, StatusError},
	StatusStopping: {StatusStopped, StatusError},
	StatusStopped:  {},
	StatusError:    {StatusStopping, StatusStopped},
}

// Machine is the subset of the go-fsm machine used by this module.
type Machine interface {
	// Transition attempts to transition the state machine to the specified state.
	Transition(state string) error

	// TransitionBool attempts to transition the state machine to the specified state.
	TransitionBool(state string) bool

	// GetState returns the current state of the state machine.
	GetState() string

	// GetStateChan returns a channel that emits the state machine's state whenever it changes.
	// The channel is closed when the provided context is canceled.
	GetStateChan(ctx context.Context) <-chan string
}

// StateChanBuffer is the buffer size of subscriber channels. It holds the
// initial status plus every status of a complete lifecycle, so a slow reader
// does not lose transitions.
const StateChanBuffer = 16

// LifecycleFSM embeds fsm.Machine and overrides GetStateChan with a buffered
// subscription.
type LifecycleFSM struct {
	*fsm.Machine
}

// GetStateChan returns a channel that receives the current status and every
// later change until ctx is done.
func (m *LifecycleFSM) GetStateChan(ctx context.Context) <-chan string {
	return m.GetStateChanBuffer(ctx, StateChanBuffer)
}

// New creates a lifecycle machine in StatusNew.
func New(handler slog.Handler) (Machine, error) {
	machine, err := fsm.New(handler, StatusNew, LifecycleTransitions)
	if err != nil {
		return nil, err
	}
	return &LifecycleFSM{Machine: machine}, nil
}
