package maincontroller

import (
	"slices"
	"testing"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/display"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/powder"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/ui"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/water"
	"github.com/atlanticdynamic/coffeemaker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 3 * time.Second

type machine struct {
	ns       *channel.Namespace
	io       *device.Memory
	buttons  *device.MemoryEvents
	switches *device.MemoryEvents
	a        *activity.Activity
}

func startMachine(t *testing.T) *machine {
	t.Helper()
	m := &machine{
		ns:       channel.NewNamespace(),
		io:       device.NewMemory(),
		buttons:  device.NewMemoryEvents(device.ButtonsEvent),
		switches: device.NewMemoryEvents(device.SwitchesEvent),
	}
	m.io.Set(device.CoffeeBeansSensor, 1)
	m.io.Set(device.WaterSensor, 1)
	m.io.Set(device.WaterFlowSensor, 1)
	m.io.Set(device.WaterTemperatureSensor, 20)

	fast := 5 * time.Millisecond
	cfg := Config{
		Powder: powder.Config{IO: m.io, WaitTimeout: fast, PollInterval: fast},
		Water:  water.Config{IO: m.io, WaitTimeout: fast},
		UI: ui.Config{
			IO:      m.io,
			Display: display.Config{IO: m.io},
			OpenEvents: func(endpoint string) (device.EventSource, error) {
				if endpoint == device.ButtonsEvent {
					return m.buttons, nil
				}
				return m.switches, nil
			},
		},
		BrewTime:    30 * time.Millisecond,
		WaitTimeout: fast,
	}

	var err error
	m.a, err = activity.Create(Descriptor(cfg), channel.Blocking, activity.WithNamespace(m.ns))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, m.a.Destroy()) })

	require.Eventually(t, func() bool {
		return slices.Contains(m.ns.Names(), "/"+protocol.DisplayName)
	}, waitFor, 5*time.Millisecond, "display should have been started")
	return m
}

func (m *machine) displayShows(t *testing.T, want string) {
	t.Helper()
	assert.Eventually(t, func() bool { return m.io.Value(device.Display) == want },
		waitFor, 5*time.Millisecond, "display should show %q, has %q", want, m.io.Value(device.Display))
}

func TestProduceCoffee(t *testing.T) {
	t.Parallel()
	m := startMachine(t)

	m.switches.Trigger(ui.PowerSwitch)
	m.displayShows(t, "idle")

	m.buttons.Trigger(0)
	m.displayShows(t, "producing | product 1")
	assert.Eventually(t, func() bool {
		return m.io.Value(device.CoffeeGrinderMotor) == "50"
	}, waitFor, 5*time.Millisecond, "grinder should be running")

	m.io.Set(device.CoffeePowderDispenser, 1)
	assert.Eventually(t, func() bool {
		for _, v := range m.io.History(device.WaterPump) {
			if v == "1" {
				return true
			}
		}
		return false
	}, waitFor, 5*time.Millisecond, "pump should run once the powder is ready")

	m.displayShows(t, "idle")
	assert.Equal(t, "0", m.io.Value(device.CoffeeGrinderMotor))
	assert.Equal(t, "0", m.io.Value(device.WaterPump))

	m.switches.Trigger(0)
	m.displayShows(t, "off")
}

func TestProductRequestRefused(t *testing.T) {
	t.Parallel()
	m := startMachine(t)
	remote := testutil.StartProbe(t, m.ns, "remote", protocol.Catalog)

	remote.Send(t, protocol.MainController, protocol.ProductRequest{Product: 1})
	result, _ := testutil.NextOf[protocol.Result](t, remote, waitFor)
	assert.Equal(t, protocol.Result{Code: protocol.NOKResult, Text: "machine is off"}, result)

	remote.Send(t, protocol.MainController, protocol.ProductRequest{Product: protocol.MaxProducts + 1})
	result, _ = testutil.NextOf[protocol.Result](t, remote, waitFor)
	assert.Equal(t, protocol.NOKResult, result.Code)
	assert.Contains(t, result.Text, "unknown product")
}

func TestBeansRunOut(t *testing.T) {
	t.Parallel()
	m := startMachine(t)

	m.switches.Trigger(ui.PowerSwitch)
	m.displayShows(t, "idle")

	m.io.Set(device.CoffeeBeansSensor, 0)
	m.displayShows(t, "idle | no coffee")

	remote := testutil.StartProbe(t, m.ns, "remote", protocol.Catalog)
	remote.Send(t, protocol.MainController, protocol.ProductRequest{Product: 2})
	result, _ := testutil.NextOf[protocol.Result](t, remote, waitFor)
	assert.Equal(t, protocol.Result{Code: protocol.NOKResult, Text: "No beans"}, result)
	m.displayShows(t, "idle | no coffee")
}

func TestMachineState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		c      controller
		expect protocol.MachineState
	}{
		{"off", controller{}, protocol.MachineOff},
		{"initializing", controller{powered: true, powderState: "initializing", waterState: "standby"}, protocol.MachineInitializing},
		{"idle", controller{powered: true, powderState: "idle", waterState: "standby"}, protocol.MachineIdle},
		{"producing", controller{powered: true, powderState: "supplying", order: &order{product: 1}}, protocol.MachineProducing},
		{"water flowing", controller{powered: true, powderState: "idle", waterState: "pumpOn"}, protocol.MachineIdle},
		{"water failed", controller{powered: true, powderState: "idle", waterState: "error"}, protocol.MachineInitializing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.c.machineState())
		})
	}
}
