package activity

import (
	"github.com/atlanticdynamic/coffeemaker/internal/envelope"
)

// NullName is the name of the sink activity. Messages sent to it are dropped
// without error.
const NullName = "<Null activity>"

// Behavior is the lifecycle implemented by each subsystem. All three methods
// run on the activity's own goroutine.
type Behavior interface {
	// SetUp runs once before Run. A returned error skips Run and puts the
	// activity into the error state; TearDown still runs.
	SetUp(a *Activity) error

	// Run loops until a.Context() is done. Returning nil or the context's
	// error ends the activity normally.
	Run(a *Activity) error

	// TearDown releases whatever SetUp and Run acquired.
	TearDown(a *Activity)
}

// BehaviorFuncs adapts plain functions to Behavior. Nil functions are no-ops.
type BehaviorFuncs struct {
	SetUpFunc    func(a *Activity) error
	RunFunc      func(a *Activity) error
	TearDownFunc func(a *Activity)
}

func (b BehaviorFuncs) SetUp(a *Activity) error {
	if b.SetUpFunc == nil {
		return nil
	}
	return b.SetUpFunc(a)
}

func (b BehaviorFuncs) Run(a *Activity) error {
	if b.RunFunc == nil {
		<-a.Context().Done()
		return nil
	}
	return b.RunFunc(a)
}

func (b BehaviorFuncs) TearDown(a *Activity) {
	if b.TearDownFunc != nil {
		b.TearDownFunc(a)
	}
}

// Descriptor identifies an activity and carries its behavior. Descriptors are
// values: Create keeps a private copy, so the caller's descriptor can be reused
// as a template. Two descriptors denote the same activity when their names match.
type Descriptor struct {
	ID       uint32
	Name     string
	Behavior Behavior

	// NoInbox marks activities that never receive messages; no channel is
	// allocated for them.
	NoInbox bool
}

// Address returns a descriptor usable only for addressing messages.
func Address(name string) Descriptor {
	return Descriptor{Name: name}
}

// Null is the descriptor of the sink activity.
var Null = Address(NullName)

// Identity returns the identity carried in envelopes sent by this activity.
func (d Descriptor) Identity() envelope.Identity {
	return envelope.Identity{ID: d.ID, Name: d.Name}
}

// Is reports whether d and other denote the same activity.
func (d Descriptor) Is(other Descriptor) bool {
	return d.Name == other.Name
}

// Matches reports whether id was sent by the activity d describes.
func (d Descriptor) Matches(id envelope.Identity) bool {
	return d.Name == id.Name
}

func (d Descriptor) String() string {
	return d.Name
}
