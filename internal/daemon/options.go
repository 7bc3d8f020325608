package daemon

import (
	"context"
	"log/slog"

	"github.com/atlanticdynamic/coffeemaker/internal/channel"
)

type Option func(*Runner)

// WithLogger sets a custom logger for the Runner instance.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLogHandler sets a custom log handler for the Runner and the activities
// it starts.
func WithLogHandler(handler slog.Handler) Option {
	return func(r *Runner) {
		r.logger = slog.New(handler).WithGroup("daemon.Runner")
		r.activityHandler = handler
	}
}

// WithContext sets a custom parent context for the Runner instance.
func WithContext(ctx context.Context) Option {
	return func(r *Runner) {
		r.parentCtx = ctx
	}
}

// WithNamespace sets the channel namespace of the started activities.
func WithNamespace(ns *channel.Namespace) Option {
	return func(r *Runner) {
		r.ns = ns
	}
}

// WithMemoryLock makes Run call lock before starting anything. Failing to
// lock memory is logged, not fatal.
func WithMemoryLock(lock func() error) Option {
	return func(r *Runner) {
		r.lockMemory = lock
	}
}
