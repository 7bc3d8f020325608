package powder

import "github.com/atlanticdynamic/coffeemaker/internal/statemachine"

const (
	SwitchedOff statemachine.StateID = iota
	Initializing
	Idle
	Supplying
)

const (
	EventInit statemachine.Event = iota
	EventSwitchOff
	EventInitialized
	EventStartSupplying
	EventSupplyingFinished
	EventStop
	EventNoBeans
	EventBeansAvailable
	numEvents
)

// Definition is the dispenser's transition table.
var Definition = statemachine.NewBuilder[*dispenser]("coffeePowderDispenser", int(numEvents)).
	EventName(EventInit, "init").
	EventName(EventSwitchOff, "switchOff").
	EventName(EventInitialized, "initialized").
	EventName(EventStartSupplying, "startSupplying").
	EventName(EventSupplyingFinished, "supplyingFinished").
	EventName(EventStop, "stop").
	EventName(EventNoBeans, "noBeans").
	EventName(EventBeansAvailable, "beansAvailable").
	State(SwitchedOff, "switchedOff", statemachine.Actions[*dispenser]{
		Entry: (*dispenser).enterSwitchedOff,
	}).
	State(Initializing, "initializing", statemachine.Actions[*dispenser]{
		Entry: (*dispenser).enterInitializing,
		Do:    (*dispenser).doInitializing,
	}).
	State(Idle, "idle", statemachine.Actions[*dispenser]{}).
	State(Supplying, "supplying", statemachine.Actions[*dispenser]{
		Entry: (*dispenser).enterSupplying,
		Do:    (*dispenser).doSupplying,
		Exit:  (*dispenser).exitSupplying,
	}).
	Initial(SwitchedOff).
	Transition(SwitchedOff, EventInit, Initializing).
	Transition(Initializing, EventSwitchOff, SwitchedOff).
	Transition(Initializing, EventInitialized, Idle).
	Transition(Idle, EventInit, Initializing).
	Transition(Idle, EventSwitchOff, SwitchedOff).
	Transition(Idle, EventStartSupplying, Supplying).
	Transition(Supplying, EventSwitchOff, SwitchedOff).
	Transition(Supplying, EventSupplyingFinished, Idle).
	Transition(Supplying, EventStop, Idle).
	Transition(Supplying, EventNoBeans, Idle).
	MustBuild()
