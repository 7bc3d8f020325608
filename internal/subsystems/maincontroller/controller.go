// Package maincontroller implements the supervising activity. It starts every
// subsystem, turns user requests into commands for the grinder and the water
// supply, and reports the machine state back to the user interface.
package maincontroller

import (
	"errors"
	"fmt"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/atlanticdynamic/coffeemaker/internal/message"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/powder"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/service"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/ui"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/water"
)

// Config holds the configuration of every subsystem.
type Config struct {
	Powder  powder.Config
	Water   water.Config
	UI      ui.Config
	Service service.Config

	// BrewTime is how long water runs once the powder is ready.
	BrewTime time.Duration

	WaitTimeout  time.Duration
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.BrewTime <= 0 {
		c.BrewTime = 5 * time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 100 * time.Millisecond
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

type order struct {
	product   int
	withMilk  bool
	client    activity.Descriptor
	brewing   bool
	brewUntil time.Time
	stopSent  bool
}

type controller struct {
	cfg      Config
	a        *activity.Activity
	children []*activity.Activity

	powered     bool
	powderState string
	waterState  string
	order       *order
	state       protocol.MachineState
}

// Descriptor returns the main controller's descriptor.
func Descriptor(cfg Config) activity.Descriptor {
	return activity.Descriptor{
		ID:       protocol.MainControllerID,
		Name:     protocol.MainControllerName,
		Behavior: &controller{cfg: cfg.withDefaults()},
	}
}

// SetUp starts the subsystems. The service interface comes first so it sees
// every status report.
func (c *controller) SetUp(a *activity.Activity) error {
	a.Logger().Info("Setting up...")
	c.a = a

	for _, desc := range []activity.Descriptor{
		service.Descriptor(c.cfg.Service),
		powder.Descriptor(c.cfg.Powder),
		water.Descriptor(c.cfg.Water),
		ui.Descriptor(c.cfg.UI),
	} {
		child, err := a.Spawn(desc, channel.Blocking)
		if err != nil {
			return fmt.Errorf("starting %s: %w", desc.Name, err)
		}
		c.children = append(c.children, child)
	}
	return nil
}

func (c *controller) Run(a *activity.Activity) error {
	a.Logger().Info("Running...")
	for {
		a.Logger().Debug("Waiting for subsystem messages...")
		delivery, err := activity.WaitForMessage(a, protocol.Catalog, c.cfg.WaitTimeout)
		if a.Context().Err() != nil {
			return nil
		}
		switch {
		case errz.IsRecoverable(err) || errors.Is(err, errz.ErrIOFailure):
			a.Logger().Error("Waiting for event failed", "error", err)
			a.Sleep(c.cfg.RetryBackoff)
			continue
		case err != nil:
			a.Logger().Warn("Ignoring message", "error", err)
		case delivery.Message != nil:
			c.handle(delivery)
		}
		c.tick(time.Now())
		c.updateState()
	}
}

// TearDown stops the subsystems in reverse start order.
func (c *controller) TearDown(a *activity.Activity) {
	a.Logger().Info("Tearing down...")
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Destroy(); err != nil {
			a.Logger().Warn("Failed to destroy subsystem", "subsystem", c.children[i].Name(), "error", err)
		}
	}
}

func (c *controller) handle(delivery activity.Delivery) {
	from := delivery.Sender.Name
	switch msg := delivery.Message.(type) {
	case protocol.Command:
		c.handleCommand(msg)
	case protocol.ProductRequest:
		c.handleProductRequest(msg, delivery)
	case protocol.Status:
		switch msg.Subsystem {
		case protocol.CoffeePowderDispenserName:
			c.powderState = msg.State
		case protocol.WaterSupplyName:
			c.waterState = msg.State
		}
	case protocol.Result:
		c.handleResult(from, msg)
	case protocol.Notification:
		c.handleNotification(msg)
	default:
		c.a.Logger().Warn("Unexpected message", "sender", from)
	}
}

func (c *controller) handleCommand(cmd protocol.Command) {
	c.a.Logger().Info("Command received", "command", cmd.Code)
	switch cmd.Code {
	case protocol.InitCommand:
		c.powered = true
		c.send(protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.InitCommand})
		c.send(protocol.WaterSupply, protocol.Command{Code: protocol.InitCommand})
	case protocol.OffCommand:
		c.powered = false
		c.finish(protocol.Result{Code: protocol.NOKResult, Text: "switched off"})
		c.send(protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.OffCommand})
		c.send(protocol.WaterSupply, protocol.Command{Code: protocol.OffCommand})
	case protocol.AbortCommand:
		if c.order == nil {
			return
		}
		c.send(protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.SupplyStopCommand})
		c.send(protocol.WaterSupply, protocol.Command{Code: protocol.WaterStopCommand})
		c.finish(protocol.Result{Code: protocol.NOKResult, Text: "aborted"})
	default:
		c.a.Logger().Warn("Unknown command", "code", cmd.Code)
	}
}

func (c *controller) handleProductRequest(req protocol.ProductRequest, delivery activity.Delivery) {
	client := activity.Address(delivery.Sender.Name)
	if delivery.Sender.IsUnknown() {
		client = activity.Null
	}
	if req.Product < 1 || req.Product > protocol.MaxProducts {
		c.send(client, protocol.Result{
			Code: protocol.NOKResult,
			Text: fmt.Sprintf("unknown product %d", req.Product),
		})
		return
	}
	if c.state != protocol.MachineIdle {
		c.send(client, protocol.Result{
			Code: protocol.NOKResult,
			Text: "machine is " + c.state.String(),
		})
		return
	}

	c.a.Logger().Info("Producing", "product", req.Product, "withMilk", req.WithMilk)
	c.order = &order{product: req.Product, withMilk: req.WithMilk, client: client}
	c.send(protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.SupplyStartCommand})
}

func (c *controller) handleResult(from string, r protocol.Result) {
	c.a.Logger().Info("Result received", "sender", from, "code", r.Code, "text", r.Text)
	if c.order == nil {
		return
	}
	switch from {
	case protocol.CoffeePowderDispenserName:
		if !r.OK() {
			c.finish(r)
			return
		}
		c.order.brewing = true
		c.order.brewUntil = time.Now().Add(c.cfg.BrewTime)
		c.send(protocol.WaterSupply, protocol.Command{Code: protocol.WaterStartCommand})
	case protocol.WaterSupplyName:
		if !r.OK() {
			c.finish(r)
			return
		}
		c.finish(protocol.Result{
			Code: protocol.OKResult,
			Text: fmt.Sprintf("product %d ready", c.order.product),
		})
	}
}

func (c *controller) handleNotification(n protocol.Notification) {
	var change protocol.AvailabilityChanged
	switch n.Code {
	case protocol.NoBeansNotification:
		change = protocol.AvailabilityChanged{Ingredient: protocol.Coffee, Available: false}
	case protocol.BeansAvailableNotification:
		change = protocol.AvailabilityChanged{Ingredient: protocol.Coffee, Available: true}
	case protocol.NoWaterNotification:
		change = protocol.AvailabilityChanged{Ingredient: protocol.Water, Available: false}
	case protocol.WaterAvailableNotification:
		change = protocol.AvailabilityChanged{Ingredient: protocol.Water, Available: true}
	default:
		return
	}
	c.send(protocol.UserInterface, change)
}

// tick stops the water once the brew time is over.
func (c *controller) tick(now time.Time) {
	o := c.order
	if o == nil || !o.brewing || o.stopSent || now.Before(o.brewUntil) {
		return
	}
	o.stopSent = true
	c.send(protocol.WaterSupply, protocol.Command{Code: protocol.WaterStopCommand})
}

func (c *controller) finish(r protocol.Result) {
	if c.order == nil {
		return
	}
	c.send(c.order.client, r)
	c.send(protocol.ServiceInterface, r)
	c.order = nil
}

func (c *controller) updateState() {
	next := c.machineState()
	if next == c.state {
		return
	}
	c.a.Logger().Info("Machine state changed", "from", c.state, "to", next)
	c.state = next
	c.send(protocol.UserInterface, protocol.MachineStateChanged{State: next})
	c.send(protocol.ServiceInterface, protocol.Status{Subsystem: protocol.MainControllerName, State: next.String()})
}

// waterReady lists the water supply states that accept a new order. The
// supply reports its result before it is back in standby.
var waterReady = map[string]bool{"standby": true, "pumpOn": true, "heaterOn": true}

func (c *controller) machineState() protocol.MachineState {
	switch {
	case !c.powered:
		return protocol.MachineOff
	case c.order != nil:
		return protocol.MachineProducing
	case c.powderState == "idle" && waterReady[c.waterState]:
		return protocol.MachineIdle
	default:
		return protocol.MachineInitializing
	}
}

func (c *controller) send(to activity.Descriptor, msg message.Message) {
	if err := activity.SendMessage(c.a.Context(), c.a, to, msg, channel.Medium); err != nil {
		c.a.Logger().Warn("Send failed", "to", to.Name, "error", err)
	}
}
