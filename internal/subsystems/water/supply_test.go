package water

import (
	"testing"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
	"github.com/atlanticdynamic/coffeemaker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type harness struct {
	io      *device.Memory
	client  *testutil.Probe
	service *testutil.Probe
}

func start(t *testing.T) *harness {
	t.Helper()
	ns := channel.NewNamespace()
	h := &harness{io: device.NewMemory()}
	h.io.Set(device.WaterSensor, 1)
	h.io.Set(device.WaterFlowSensor, 1)
	h.io.Set(device.WaterTemperatureSensor, 20)
	h.client = testutil.StartProbe(t, ns, protocol.MainControllerName, protocol.Catalog)
	h.service = testutil.StartProbe(t, ns, protocol.ServiceInterfaceName, protocol.Catalog)

	a, err := activity.Create(Descriptor(Config{IO: h.io, WaitTimeout: 5 * time.Millisecond}),
		channel.Blocking, activity.WithNamespace(ns))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Destroy()) })

	h.command(t, protocol.InitCommand)
	h.expectState(t, "standby")
	return h
}

func (h *harness) command(t *testing.T, code protocol.Code) {
	t.Helper()
	h.client.Send(t, protocol.WaterSupply, protocol.Command{Code: code})
}

func (h *harness) expectState(t *testing.T, state string) {
	t.Helper()
	status, _ := testutil.NextOf[protocol.Status](t, h.service, waitFor)
	assert.Equal(t, protocol.WaterSupplyName, status.Subsystem)
	assert.Equal(t, state, status.State)
}

func TestDelivery(t *testing.T) {
	t.Parallel()
	h := start(t)

	h.command(t, protocol.WaterStartCommand)
	h.expectState(t, "pumpOn")
	h.expectState(t, "heaterOn")
	assert.Equal(t, "1", h.io.Value(device.WaterPump))
	assert.Equal(t, "1", h.io.Value(device.WaterHeater))

	h.io.Set(device.WaterTemperatureSensor, 70)
	h.expectState(t, "pumpOn")
	assert.Equal(t, "0", h.io.Value(device.WaterHeater))
	assert.Equal(t, "1", h.io.Value(device.WaterPump))

	h.command(t, protocol.WaterStopCommand)
	h.expectState(t, "standby")
	result, _ := testutil.NextOf[protocol.Result](t, h.client, waitFor)
	assert.Equal(t, protocol.Result{Code: protocol.OKResult, Text: "water delivered"}, result)
	assert.Equal(t, "0", h.io.Value(device.WaterPump))
	assert.Equal(t, "0", h.io.Value(device.WaterHeater))
}

func TestWaterRunsOut(t *testing.T) {
	t.Parallel()
	h := start(t)

	h.command(t, protocol.WaterStartCommand)
	h.expectState(t, "pumpOn")

	h.io.Set(device.WaterSensor, 0)
	h.expectState(t, "standby")

	result, _ := testutil.NextOf[protocol.Result](t, h.client, waitFor)
	assert.Equal(t, protocol.Result{Code: protocol.NOKResult, Text: "No water"}, result)

	h.command(t, protocol.WaterStartCommand)
	result, _ = testutil.NextOf[protocol.Result](t, h.client, waitFor)
	assert.Equal(t, protocol.NOKResult, result.Code, "refused while the tank is empty")
}

func TestStartRefusedWhenOff(t *testing.T) {
	t.Parallel()
	h := start(t)

	h.command(t, protocol.OffCommand)
	h.expectState(t, "off")

	h.command(t, protocol.WaterStartCommand)
	result, _ := testutil.NextOf[protocol.Result](t, h.client, waitFor)
	assert.Equal(t, protocol.NOKResult, result.Code)
	assert.Contains(t, result.Text, "off")
}

func TestDefinitionReachesEveryState(t *testing.T) {
	t.Parallel()
	table := Definition.Describe()
	assert.Equal(t, []string{"off", "standby", "pumpOn", "heaterOn", "error"}, table.States)
	assert.Equal(t, "off", table.Initial)
}
