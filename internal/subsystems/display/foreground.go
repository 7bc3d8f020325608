package display

import (
	"context"
	"errors"
	"log/slog"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
)

// ForegroundClientName is the activity that hands text to the display in
// foreground mode.
const ForegroundClientName = "displayClient"

// ShowText runs the display in foreground mode: it starts a display in a
// private namespace, sends it text and returns the display's acknowledgement
// once the text was written. Both activities are torn down before returning.
func ShowText(ctx context.Context, cfg Config, text string, handler slog.Handler) (protocol.Result, error) {
	ns := channel.NewNamespace(channel.WithLogHandler(handler))
	opts := []activity.Option{
		activity.WithNamespace(ns),
		activity.WithLogHandler(handler),
		activity.WithContext(ctx),
	}

	disp, err := activity.Create(Descriptor(cfg), channel.Blocking, opts...)
	if err != nil {
		return protocol.Result{}, err
	}

	var result protocol.Result
	client, err := activity.Create(activity.Descriptor{
		Name: ForegroundClientName,
		Behavior: activity.BehaviorFuncs{
			RunFunc: func(a *activity.Activity) error {
				if err := activity.SendMessage(a.Context(), a, protocol.Display, protocol.Text{Text: text}, channel.Medium); err != nil {
					return err
				}
				for {
					delivery, err := activity.WaitForMessage(a, protocol.Catalog, activity.Forever)
					if a.Context().Err() != nil {
						return nil
					}
					if err != nil {
						return err
					}
					if r, ok := delivery.Message.(protocol.Result); ok && delivery.Sender.Name == protocol.DisplayName {
						result = r
						return nil
					}
				}
			},
		},
	}, channel.Blocking, opts...)
	if err != nil {
		return protocol.Result{}, errors.Join(err, disp.Destroy())
	}

	<-client.Done()
	err = errors.Join(client.Destroy(), disp.Destroy())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return protocol.Result{}, ctxErr
	}
	return result, err
}
