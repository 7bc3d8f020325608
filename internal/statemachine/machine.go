package statemachine

import (
	"context"
	"log/slog"
	"time"
)

// Option configures a Machine.
type Option func(*config)

type config struct {
	logger *slog.Logger
	hook   func(from, to StateID, e Event)
}

// WithLogger sets the logger transitions are reported to at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransitionHook registers fn to be called after every transition, once
// the new state's entry action has run.
func WithTransitionHook(fn func(from, to StateID, e Event)) Option {
	return func(c *config) {
		c.hook = fn
	}
}

// Machine executes a Definition on behalf of an owner.
type Machine[T any] struct {
	def     *Definition[T]
	owner   T
	current int
	logger  *slog.Logger
	hook    func(from, to StateID, e Event)
}

// New binds def to owner. The machine starts in the initial state, but its
// entry action only runs on SetUp.
func New[T any](def *Definition[T], owner T, opts ...Option) *Machine[T] {
	cfg := config{logger: slog.Default().WithGroup("statemachine.Machine")}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Machine[T]{
		def:     def,
		owner:   owner,
		current: def.initial,
		logger:  cfg.logger.With("machine", def.name),
		hook:    cfg.hook,
	}
}

// SetUp enters the initial state and runs its entry action.
func (m *Machine[T]) SetUp() {
	m.current = m.def.initial
	if entry := m.def.states[m.current].actions.Entry; entry != nil {
		entry(m.owner)
	}
}

// ProcessEvent fires the transition mapped to e from the current state: the
// current state's exit action, then the target's entry action. It reports
// whether a transition happened. Events with no entry are ignored.
func (m *Machine[T]) ProcessEvent(e Event) bool {
	to, ok := m.def.lookup(m.current, e)
	if !ok {
		if e != NoEvent {
			m.logger.Debug("Ignoring event",
				"state", m.CurrentName(), "event", m.def.EventName(e))
		}
		return false
	}

	from := m.def.states[m.current]
	if from.actions.Exit != nil {
		from.actions.Exit(m.owner)
	}
	m.current = to
	next := m.def.states[to]
	if next.actions.Entry != nil {
		next.actions.Entry(m.owner)
	}

	m.logger.Debug("Transition",
		"from", from.name, "event", m.def.EventName(e), "to", next.name)
	if m.hook != nil {
		m.hook(from.id, next.id, e)
	}
	return true
}

// Step runs the current state's do-action once and processes the event it
// returns. It reports whether a transition happened.
func (m *Machine[T]) Step() bool {
	do := m.def.states[m.current].actions.Do
	if do == nil {
		return false
	}
	return m.ProcessEvent(do(m.owner))
}

// Run keeps stepping the current state until ctx is done. After a step that
// did not transition it waits interval before stepping again.
func (m *Machine[T]) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTimer(interval)
	defer t.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.Step() {
			continue
		}
		t.Reset(interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Current returns the current state.
func (m *Machine[T]) Current() StateID {
	return m.def.states[m.current].id
}

// CurrentName returns the name of the current state.
func (m *Machine[T]) CurrentName() string {
	return m.def.states[m.current].name
}

// Is reports whether id is the current state.
func (m *Machine[T]) Is(id StateID) bool {
	return m.Current() == id
}

// Definition returns the table the machine executes.
func (m *Machine[T]) Definition() *Definition[T] {
	return m.def
}
