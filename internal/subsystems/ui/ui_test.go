package ui

import (
	"testing"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/display"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
	"github.com/atlanticdynamic/coffeemaker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestUserInterface(t *testing.T) {
	t.Parallel()
	ns := channel.NewNamespace()
	io := device.NewMemory()
	buttons := device.NewMemoryEvents(device.ButtonsEvent)
	switches := device.NewMemoryEvents(device.SwitchesEvent)

	controller := testutil.StartProbe(t, ns, protocol.MainControllerName, protocol.Catalog)

	a, err := activity.Create(Descriptor(Config{
		IO:      io,
		Display: display.Config{IO: io},
		OpenEvents: func(endpoint string) (device.EventSource, error) {
			if endpoint == device.ButtonsEvent {
				return buttons, nil
			}
			return switches, nil
		},
	}), channel.Blocking, activity.WithNamespace(ns))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Destroy()) })

	displayShows := func(want string) {
		t.Helper()
		assert.Eventually(t, func() bool { return io.Value(device.Display) == want },
			waitFor, 5*time.Millisecond, "display should show %q, has %q", want, io.Value(device.Display))
	}

	switches.Trigger(PowerSwitch)
	cmd, d := testutil.NextOf[protocol.Command](t, controller, waitFor)
	assert.Equal(t, protocol.InitCommand, cmd.Code)
	assert.Equal(t, protocol.UserInterfaceName, d.Sender.Name)

	controller.Send(t, protocol.UserInterface, protocol.MachineStateChanged{State: protocol.MachineIdle})
	displayShows("idle")

	switches.Trigger(PowerSwitch | MilkSelectorSwitch)
	displayShows("idle with milk")
	controller.Quiet(t, 30*time.Millisecond)

	buttons.Trigger(1)
	req, _ := testutil.NextOf[protocol.ProductRequest](t, controller, waitFor)
	assert.Equal(t, protocol.ProductRequest{Product: 2, WithMilk: true}, req)

	buttons.Trigger(7)
	controller.Quiet(t, 30*time.Millisecond)

	controller.Send(t, protocol.UserInterface, protocol.AvailabilityChanged{Ingredient: protocol.Coffee})
	displayShows("idle | product 2 with milk | no coffee")

	switches.Trigger(0)
	cmd, _ = testutil.NextOf[protocol.Command](t, controller, waitFor)
	assert.Equal(t, protocol.OffCommand, cmd.Code)
	displayShows("off")
}

func TestProcessSwitchesEdges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		previous int
		states   int
		power    bool
		milk     bool
	}{
		{"power on", 0, PowerSwitch, true, false},
		{"milk only", PowerSwitch, PowerSwitch | MilkSelectorSwitch, true, true},
		{"unchanged", PowerSwitch, PowerSwitch, true, false},
		{"all off", PowerSwitch | MilkSelectorSwitch, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u := &userInterface{previousSwitches: tt.previous}
			u.view.PowerOn = tt.previous&PowerSwitch != 0
			u.view.WithMilk = tt.previous&MilkSelectorSwitch != 0

			// power changes need an activity to send from
			if (tt.previous^tt.states)&PowerSwitch != 0 {
				ns := channel.NewNamespace()
				a, err := activity.Create(activity.Descriptor{
					Name:     "edges",
					Behavior: activity.BehaviorFuncs{},
				}, channel.Blocking, activity.WithNamespace(ns))
				require.NoError(t, err)
				t.Cleanup(func() { _ = a.Destroy() })
				u.a = a
			}

			u.processSwitches(tt.states)
			assert.Equal(t, tt.power, u.view.PowerOn)
			assert.Equal(t, tt.milk, u.view.WithMilk)
			assert.Equal(t, tt.states, u.previousSwitches)
		})
	}
}
