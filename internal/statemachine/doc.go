// Package statemachine is a table-driven finite state machine engine for
// device controllers.
//
// A Definition is a transition table plus per-state entry, do and exit
// actions. Actions are methods of an owner value T, so a single Definition is
// declared once at package level and shared by every Machine bound to an
// owner. Events with no table entry from the current state are dropped
// silently: controllers must stay live when a sensor glitches.
//
// A Machine is not safe for concurrent use. It belongs to the goroutine of the
// activity that owns it.
package statemachine
