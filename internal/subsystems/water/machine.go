package water

import "github.com/atlanticdynamic/coffeemaker/internal/statemachine"

const (
	Off statemachine.StateID = iota
	Standby
	PumpOn
	HeaterOn
	Failed
)

const (
	EventInit statemachine.Event = iota
	EventSwitchOff
	EventSupply
	EventFlowing
	EventHeated
	EventInterrupted
	EventFault
	numEvents
)

// Definition is the water supply's transition table. The pump and heater
// alternate like a thermostat while water is being delivered.
var Definition = statemachine.NewBuilder[*supply]("waterSupply", int(numEvents)).
	EventName(EventInit, "init").
	EventName(EventSwitchOff, "switchOff").
	EventName(EventSupply, "supply").
	EventName(EventFlowing, "flowing").
	EventName(EventHeated, "heated").
	EventName(EventInterrupted, "interrupted").
	EventName(EventFault, "fault").
	State(Off, "off", statemachine.Actions[*supply]{
		Entry: (*supply).enterOff,
	}).
	State(Standby, "standby", statemachine.Actions[*supply]{
		Entry: (*supply).enterStandby,
		Do:    (*supply).doStandby,
	}).
	State(PumpOn, "pumpOn", statemachine.Actions[*supply]{
		Entry: (*supply).enterPumpOn,
		Do:    (*supply).doPumpOn,
	}).
	State(HeaterOn, "heaterOn", statemachine.Actions[*supply]{
		Entry: (*supply).enterHeaterOn,
		Do:    (*supply).doHeaterOn,
		Exit:  (*supply).exitHeaterOn,
	}).
	State(Failed, "error", statemachine.Actions[*supply]{
		Entry: (*supply).enterFailed,
	}).
	Initial(Off).
	Transition(Off, EventInit, Standby).
	Transition(Standby, EventSwitchOff, Off).
	Transition(Standby, EventSupply, PumpOn).
	Transition(PumpOn, EventSwitchOff, Off).
	Transition(PumpOn, EventFlowing, HeaterOn).
	Transition(PumpOn, EventInterrupted, Standby).
	Transition(PumpOn, EventFault, Failed).
	Transition(HeaterOn, EventSwitchOff, Off).
	Transition(HeaterOn, EventHeated, PumpOn).
	Transition(HeaterOn, EventInterrupted, Standby).
	Transition(HeaterOn, EventFault, Failed).
	Transition(Failed, EventSwitchOff, Off).
	Transition(Failed, EventInit, Standby).
	MustBuild()
