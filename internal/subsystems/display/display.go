// Package display drives the machine's text display. It renders view updates
// and free text, and acknowledges each one so callers can wait for it.
package display

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
)

// Config holds the display's collaborators.
type Config struct {
	IO           device.IO
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.IO == nil {
		c.IO = device.NewFileIO(device.DefaultRoot)
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

type display struct {
	cfg Config
}

// Descriptor returns the display's descriptor.
func Descriptor(cfg Config) activity.Descriptor {
	return activity.Descriptor{
		ID:       protocol.DisplayID,
		Name:     protocol.DisplayName,
		Behavior: &display{cfg: cfg.withDefaults()},
	}
}

func (d *display) SetUp(a *activity.Activity) error {
	a.Logger().Info("Setting up...")
	return nil
}

func (d *display) Run(a *activity.Activity) error {
	a.Logger().Info("Running...")
	for {
		delivery, err := activity.ReceiveMessage(a, protocol.Catalog)
		if a.Context().Err() != nil {
			return nil
		}
		if err != nil {
			a.Logger().Warn("Receiving failed", "error", err)
			if errors.Is(err, errz.ErrIOFailure) {
				a.Sleep(d.cfg.RetryBackoff)
			}
			continue
		}

		var text string
		switch msg := delivery.Message.(type) {
		case protocol.ChangeView:
			text = Render(msg)
		case protocol.Text:
			text = msg.Text
		default:
			a.Logger().Warn("Unexpected message", "sender", delivery.Sender.Name)
			continue
		}

		result := protocol.Result{Code: protocol.OKResult}
		if err := d.cfg.IO.Write(device.Display, text, device.Replace, false); err != nil {
			a.Logger().Error("Writing display failed", "error", err)
			result = protocol.Result{Code: protocol.NOKResult, Text: err.Error()}
		}
		a.Logger().Info("Display updated", "sender", delivery.Sender.Name, "text", text)

		if delivery.Sender.IsUnknown() {
			continue
		}
		to := activity.Address(delivery.Sender.Name)
		if err := activity.SendMessage(a.Context(), a, to, result, channel.Medium); err != nil {
			a.Logger().Warn("Failed to acknowledge", "to", to.Name, "error", err)
		}
	}
}

func (d *display) TearDown(a *activity.Activity) {
	a.Logger().Info("Tearing down...")
}

// Render formats a view as a single display line.
func Render(v protocol.ChangeView) string {
	if !v.PowerOn {
		return "off"
	}
	var b strings.Builder
	b.WriteString(v.MachineState.String())
	if v.ProductIndex > 0 {
		fmt.Fprintf(&b, " | product %d", v.ProductIndex)
	}
	if v.WithMilk {
		b.WriteString(" with milk")
	}

	var missing []string
	for _, ing := range []struct {
		name      string
		available bool
	}{
		{protocol.Coffee.String(), v.Coffee},
		{protocol.Water.String(), v.Water},
		{protocol.Milk.String(), v.Milk},
	} {
		if !ing.available {
			missing = append(missing, ing.name)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, " | no %s", strings.Join(missing, ", "))
	}
	if v.WasteBinFull {
		b.WriteString(" | empty waste bin")
	}
	return b.String()
}
