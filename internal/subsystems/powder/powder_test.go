package powder

import (
	"testing"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/statemachine"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
	"github.com/atlanticdynamic/coffeemaker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type grinder struct {
	ns      *channel.Namespace
	io      *device.Memory
	client  *testutil.Probe
	service *testutil.Probe
}

func startGrinder(t *testing.T, beans bool) *grinder {
	t.Helper()
	g := &grinder{ns: channel.NewNamespace(), io: device.NewMemory()}
	if beans {
		g.io.Set(device.CoffeeBeansSensor, 1)
	}
	g.client = testutil.StartProbe(t, g.ns, "coffeeSupply", protocol.Catalog)
	g.service = testutil.StartProbe(t, g.ns, protocol.ServiceInterfaceName, protocol.Catalog)

	a, err := activity.Create(Descriptor(Config{
		IO:           g.io,
		WaitTimeout:  5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	}), channel.Blocking, activity.WithNamespace(g.ns))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Destroy()) })

	assert.Eventually(t, func() bool {
		return g.io.Value(device.CoffeeGrinderMotor) == "0"
	}, waitFor, 5*time.Millisecond, "motor is stopped on set up")
	return g
}

func (g *grinder) expectState(t *testing.T, state string) {
	t.Helper()
	status, _ := testutil.NextOf[protocol.Status](t, g.service, waitFor)
	assert.Equal(t, protocol.CoffeePowderDispenserName, status.Subsystem)
	assert.Equal(t, state, status.State)
}

func (g *grinder) motorLevel() string {
	return g.io.Value(device.CoffeeGrinderMotor)
}

func (g *grinder) initialize(t *testing.T) {
	t.Helper()
	g.client.Send(t, protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.InitCommand})
	g.expectState(t, "initializing")
	g.expectState(t, "idle")
}

func TestGrinderScenario(t *testing.T) {
	t.Parallel()
	g := startGrinder(t, true)
	g.initialize(t)

	g.client.Send(t, protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.SupplyStartCommand})
	g.expectState(t, "supplying")
	assert.Eventually(t, func() bool { return g.motorLevel() == "50" }, waitFor, 5*time.Millisecond)

	g.io.Set(device.CoffeePowderDispenser, 1)
	g.expectState(t, "idle")

	result, d := testutil.NextOf[protocol.Result](t, g.client, waitFor)
	assert.Equal(t, protocol.Result{Code: protocol.OKResult, Text: "grinding complete"}, result)
	assert.Equal(t, protocol.CoffeePowderDispenserName, d.Sender.Name)
	assert.Eventually(t, func() bool { return g.motorLevel() == "0" }, waitFor, 5*time.Millisecond)

	history := g.io.History(device.CoffeeGrinderMotor)
	require.GreaterOrEqual(t, len(history), 2)
	assert.Equal(t, []string{"50", "0"}, history[len(history)-2:], "motor start is followed by motor stop")
}

func TestGrinderRefusesWithoutBeans(t *testing.T) {
	t.Parallel()
	g := startGrinder(t, false)
	g.initialize(t)

	g.client.Send(t, protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.SupplyStartCommand})
	result, _ := testutil.NextOf[protocol.Result](t, g.client, waitFor)
	assert.Equal(t, protocol.NOKResult, result.Code)
	assert.Equal(t, "0", g.motorLevel())
}

func TestGrinderRefusesWhenSwitchedOff(t *testing.T) {
	t.Parallel()
	g := startGrinder(t, true)

	g.client.Send(t, protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.SupplyStartCommand})
	result, _ := testutil.NextOf[protocol.Result](t, g.client, waitFor)
	assert.Equal(t, protocol.NOKResult, result.Code)
	assert.Contains(t, result.Text, "switchedOff")
}

func TestGrinderRunsOutOfBeans(t *testing.T) {
	t.Parallel()
	g := startGrinder(t, true)
	g.initialize(t)

	g.client.Send(t, protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.SupplyStartCommand})
	g.expectState(t, "supplying")

	g.io.Set(device.CoffeeBeansSensor, 0)
	g.expectState(t, "idle")

	result, _ := testutil.NextOf[protocol.Result](t, g.client, waitFor)
	assert.Equal(t, protocol.Result{Code: protocol.NOKResult, Text: "No beans"}, result)
	n, _ := testutil.NextOf[protocol.Notification](t, g.client, waitFor)
	assert.Equal(t, protocol.NoBeansNotification, n.Code)

	g.io.Set(device.CoffeeBeansSensor, 1)
	n, _ = testutil.NextOf[protocol.Notification](t, g.client, waitFor)
	assert.Equal(t, protocol.BeansAvailableNotification, n.Code)
}

func TestGrinderStop(t *testing.T) {
	t.Parallel()
	g := startGrinder(t, true)
	g.initialize(t)

	g.client.Send(t, protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.SupplyStartCommand})
	g.expectState(t, "supplying")
	g.client.Send(t, protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.SupplyStopCommand})
	g.expectState(t, "idle")

	result, _ := testutil.NextOf[protocol.Result](t, g.client, waitFor)
	assert.Equal(t, protocol.Result{Code: protocol.NOKResult, Text: "stopped"}, result)

	g.client.Send(t, protocol.CoffeePowderDispenser, protocol.Command{Code: protocol.OffCommand})
	g.expectState(t, "switchedOff")
}

func TestDefinition(t *testing.T) {
	t.Parallel()

	table := Definition.Describe()
	assert.Equal(t, "switchedOff", table.Initial)
	assert.Len(t, table.States, 4)
	assert.Len(t, table.Events, 8)
	assert.Len(t, table.Transitions, 10)

	tests := []struct {
		from  statemachine.StateID
		event statemachine.Event
		to    statemachine.StateID
		ok    bool
	}{
		{SwitchedOff, EventInit, Initializing, true},
		{SwitchedOff, EventStartSupplying, 0, false},
		{Idle, EventStartSupplying, Supplying, true},
		{Supplying, EventNoBeans, Idle, true},
		{Supplying, EventBeansAvailable, 0, false},
		{Idle, EventNoBeans, 0, false},
	}
	for _, tt := range tests {
		to, ok := Definition.Target(tt.from, tt.event)
		assert.Equal(t, tt.ok, ok, "%s on %s", Definition.StateName(tt.from), Definition.EventName(tt.event))
		if tt.ok {
			assert.Equal(t, tt.to, to)
		}
	}
}
