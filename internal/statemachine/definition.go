package statemachine

import (
	"errors"
	"fmt"
	"strconv"
)

// Event drives transitions. Events are small non-negative integers, dense from
// zero up to the definition's event count.
type Event int

// NoEvent is returned by do-actions that do not request a transition.
const NoEvent Event = -1

// StateID identifies a state within one definition.
type StateID int

var (
	ErrNoStates            = errors.New("definition has no states")
	ErrDuplicateState      = errors.New("duplicate state")
	ErrUnknownState        = errors.New("unknown state")
	ErrUnknownEvent        = errors.New("unknown event")
	ErrDuplicateTransition = errors.New("duplicate transition")
	ErrUnreachableState    = errors.New("unreachable state")
)

// Actions are the optional hooks of a state. Do runs on every Step while the
// state is current; the event it returns is processed immediately.
type Actions[T any] struct {
	Entry func(owner T)
	Do    func(owner T) Event
	Exit  func(owner T)
}

type state[T any] struct {
	id      StateID
	name    string
	actions Actions[T]
}

// Definition is an immutable transition table.
type Definition[T any] struct {
	name       string
	initial    int
	states     []state[T]
	index      map[StateID]int
	eventNames []string
	// table[stateIndex][event] is a state index, or -1 for no transition
	table [][]int
}

// Name returns the machine's name.
func (d *Definition[T]) Name() string { return d.name }

// NumEvents returns the number of events the table is indexed by.
func (d *Definition[T]) NumEvents() int { return len(d.eventNames) }

// Initial returns the initial state.
func (d *Definition[T]) Initial() StateID { return d.states[d.initial].id }

// StateName returns the name of id, or its number when id is unknown.
func (d *Definition[T]) StateName(id StateID) string {
	if i, ok := d.index[id]; ok {
		return d.states[i].name
	}
	return "state(" + strconv.Itoa(int(id)) + ")"
}

// EventName returns the name of e.
func (d *Definition[T]) EventName(e Event) string {
	if e == NoEvent {
		return "NO_EVENT"
	}
	if int(e) >= 0 && int(e) < len(d.eventNames) {
		return d.eventNames[e]
	}
	return "event(" + strconv.Itoa(int(e)) + ")"
}

// Target returns the state the table maps (from, e) to.
func (d *Definition[T]) Target(from StateID, e Event) (StateID, bool) {
	i, ok := d.index[from]
	if !ok {
		return 0, false
	}
	to, ok := d.lookup(i, e)
	if !ok {
		return 0, false
	}
	return d.states[to].id, true
}

func (d *Definition[T]) lookup(stateIndex int, e Event) (int, bool) {
	if e < 0 || int(e) >= len(d.eventNames) {
		return 0, false
	}
	to := d.table[stateIndex][e]
	return to, to >= 0
}

// TransitionInfo is one row of a rendered table.
type TransitionInfo struct {
	From  string
	Event string
	To    string
}

// Table is a printable view of a definition.
type Table struct {
	Name        string
	Initial     string
	States      []string
	Events      []string
	Transitions []TransitionInfo
}

// Describer is implemented by every Definition regardless of owner type.
type Describer interface {
	Describe() Table
}

// Describe renders the definition for display. States and transitions are
// listed in declaration order.
func (d *Definition[T]) Describe() Table {
	t := Table{
		Name:    d.name,
		Initial: d.states[d.initial].name,
		Events:  append([]string(nil), d.eventNames...),
	}
	for i, s := range d.states {
		t.States = append(t.States, s.name)
		for e, to := range d.table[i] {
			if to < 0 {
				continue
			}
			t.Transitions = append(t.Transitions, TransitionInfo{
				From:  s.name,
				Event: d.eventNames[e],
				To:    d.states[to].name,
			})
		}
	}
	return t
}

func (d *Definition[T]) String() string {
	return fmt.Sprintf("Definition{name: %s, states: %d, events: %d}", d.name, len(d.states), len(d.eventNames))
}
