package activity

import (
	"context"
	"log/slog"

	"github.com/atlanticdynamic/coffeemaker/internal/channel"
)

// Option configures an Activity at creation.
type Option func(*Activity)

// WithNamespace sets the channel namespace the activity's inbox lives in.
func WithNamespace(ns *channel.Namespace) Option {
	return func(a *Activity) {
		if ns != nil {
			a.ns = ns
		}
	}
}

// WithLogHandler sets the handler the activity logs to.
func WithLogHandler(handler slog.Handler) Option {
	return func(a *Activity) {
		if handler != nil {
			a.logHandler = handler
		}
	}
}

// WithContext sets the parent context. Cancelling it stops the activity just
// like Destroy does, except that resources are only released by Destroy.
func WithContext(ctx context.Context) Option {
	return func(a *Activity) {
		if ctx != nil {
			a.parentCtx = ctx
		}
	}
}
