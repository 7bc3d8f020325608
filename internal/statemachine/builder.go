package statemachine

import (
	"errors"
	"fmt"
	"strconv"
)

// Builder assembles a Definition. Errors are collected and reported together
// by Build, so calls can be chained.
type Builder[T any] struct {
	name        string
	numEvents   int
	states      []state[T]
	eventNames  []string
	transitions []Transition
	initial     *StateID
}

// Transition is one table entry.
type Transition struct {
	From  StateID
	Event Event
	To    StateID
}

// NewBuilder starts a definition for numEvents events, numbered 0 to
// numEvents-1.
func NewBuilder[T any](name string, numEvents int) *Builder[T] {
	names := make([]string, max(numEvents, 0))
	for i := range names {
		names[i] = "event(" + strconv.Itoa(i) + ")"
	}
	return &Builder[T]{name: name, numEvents: len(names), eventNames: names}
}

// State declares a state. The first declared state is the initial one unless
// Initial says otherwise.
func (b *Builder[T]) State(id StateID, name string, actions Actions[T]) *Builder[T] {
	b.states = append(b.states, state[T]{id: id, name: name, actions: actions})
	return b
}

// Initial sets the initial state.
func (b *Builder[T]) Initial(id StateID) *Builder[T] {
	b.initial = &id
	return b
}

// Transition maps event e in state from to state to.
func (b *Builder[T]) Transition(from StateID, e Event, to StateID) *Builder[T] {
	b.transitions = append(b.transitions, Transition{From: from, Event: e, To: to})
	return b
}

// EventName names event e for logs and rendered tables.
func (b *Builder[T]) EventName(e Event, name string) *Builder[T] {
	if int(e) >= 0 && int(e) < len(b.eventNames) {
		b.eventNames[e] = name
	}
	return b
}

// Build validates the table and returns the immutable definition.
func (b *Builder[T]) Build() (*Definition[T], error) {
	if len(b.states) == 0 {
		return nil, fmt.Errorf("%s: %w", b.name, ErrNoStates)
	}

	var errs []error
	d := &Definition[T]{
		name:       b.name,
		states:     append([]state[T](nil), b.states...),
		index:      make(map[StateID]int, len(b.states)),
		eventNames: append([]string(nil), b.eventNames...),
		table:      make([][]int, len(b.states)),
	}

	for i, s := range d.states {
		if _, dup := d.index[s.id]; dup {
			errs = append(errs, fmt.Errorf("%w: %d (%s)", ErrDuplicateState, s.id, s.name))
			continue
		}
		d.index[s.id] = i
		row := make([]int, b.numEvents)
		for e := range row {
			row[e] = -1
		}
		d.table[i] = row
	}

	for _, tr := range b.transitions {
		from, okFrom := d.index[tr.From]
		to, okTo := d.index[tr.To]
		switch {
		case !okFrom:
			errs = append(errs, fmt.Errorf("%w: %d in transition from", ErrUnknownState, tr.From))
		case !okTo:
			errs = append(errs, fmt.Errorf("%w: %d in transition to", ErrUnknownState, tr.To))
		case tr.Event < 0 || int(tr.Event) >= b.numEvents:
			errs = append(errs, fmt.Errorf("%w: %d from %s", ErrUnknownEvent, tr.Event, d.states[from].name))
		case d.table[from][tr.Event] >= 0:
			errs = append(errs, fmt.Errorf("%w: %s on %s",
				ErrDuplicateTransition, d.states[from].name, d.eventNames[tr.Event]))
		default:
			d.table[from][tr.Event] = to
		}
	}

	if b.initial != nil {
		i, ok := d.index[*b.initial]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: initial state %d", ErrUnknownState, *b.initial))
		}
		d.initial = i
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", b.name, errors.Join(errs...))
	}

	for _, i := range d.unreachable() {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnreachableState, d.states[i].name))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", b.name, errors.Join(errs...))
	}
	return d, nil
}

// MustBuild is Build for package-level tables.
func (b *Builder[T]) MustBuild() *Definition[T] {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Definition[T]) unreachable() []int {
	seen := make([]bool, len(d.states))
	seen[d.initial] = true
	queue := []int{d.initial}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, to := range d.table[cur] {
			if to >= 0 && !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}

	var out []int
	for i, ok := range seen {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}
