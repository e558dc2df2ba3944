package washerdryer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/util/mqtttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayMessage struct {
	topic   string
	payload string
}

func (m gatewayMessage) Duplicate() bool   { return false }
func (m gatewayMessage) Qos() byte         { return 1 }
func (m gatewayMessage) Retained() bool    { return false }
func (m gatewayMessage) Topic() string     { return m.topic }
func (m gatewayMessage) MessageID() uint16 { return 1 }
func (m gatewayMessage) Payload() []byte   { return []byte(m.payload) }
func (m gatewayMessage) Ack()              {}

func TestParseMachineState(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(MachineStateStandby, ParseMachineState("0"))
	assert.Equal(MachineStateRunningMainCycle, ParseMachineState("7"))
	assert.Equal(MachineStateSystemInit, ParseMachineState("18"))
	assert.Equal(MachineStateUnknown, ParseMachineState("19"), "out of range")
	assert.Equal(MachineStateUnknown, ParseMachineState("-3"), "negative")
	assert.Equal(MachineStateUnknown, ParseMachineState(""), "missing")
	assert.Equal(MachineStateUnknown, ParseMachineState("running"), "not a number")
}

func TestHandleAttributes(t *testing.T) {

	assert := assert.New(t)

	hub := NewHub("localhost", 1883, "", "", "whirlpool")
	wd := hub.WasherDryer("WPR4TESTSAID")

	err := wd.handleAttributes([]byte(`{"Cavity_CycleStatusMachineState":"7","Cavity_TimeStatusEstTimeRemaining":1800,"Cavity_OpStatusDoorOpen":false}`))
	require.NoError(t, err)

	assert.Equal(MachineStateRunningMainCycle, wd.GetMachineState())
	assert.Equal("1800", wd.GetAttribute(ATTR_TIME_REMAINING), "numbers kept as text")
	assert.Equal("0", wd.GetAttribute(ATTR_DOOR_OPEN), "bools as 0/1")

	// partial updates are merged
	err = wd.handleAttributes([]byte(`{"Cavity_CycleStatusSpinning":"1","Cavity_OpStatusDoorOpen":null}`))
	require.NoError(t, err)
	assert.True(wd.GetCycleStatusSpinning())
	assert.False(wd.GetCycleStatusWashing())
	assert.Equal("", wd.GetAttribute(ATTR_DOOR_OPEN), "null removes the attribute")
	assert.Equal(MachineStateRunningMainCycle, wd.GetMachineState())

	assert.Error(wd.handleAttributes([]byte(`not json`)))
}

func TestHandleOnline(t *testing.T) {

	assert := assert.New(t)

	hub := NewHub("localhost", 1883, "", "", "whirlpool")
	wd := hub.WasherDryer("WPR4TESTSAID")

	assert.False(wd.GetOnline())
	assert.True(wd.handleOnline([]byte("1")))
	assert.True(wd.GetOnline())
	assert.False(wd.handleOnline([]byte("maybe")), "unknown payload ignored")
	assert.True(wd.GetOnline())
	assert.True(wd.handleOnline([]byte("0")))
	assert.False(wd.GetOnline())
}

func TestCallbacks(t *testing.T) {

	assert := assert.New(t)

	hub := NewHub("localhost", 1883, "", "", "whirlpool")
	wd := hub.WasherDryer("WPR4TESTSAID")

	calls := 0
	id := wd.RegisterAttrCallback(func() { calls++ })
	wd.notify()
	assert.Equal(1, calls)

	wd.UnregisterAttrCallback(id)
	wd.notify()
	assert.Equal(1, calls, "unregistered callback not invoked")

	assert.Equal("whirlpool/WPR4TESTSAID/attributes", hub.attributesTopic(wd.SAID()))
	assert.Equal("whirlpool/WPR4TESTSAID/online", hub.onlineTopic(wd.SAID()))
}

func TestTestWasherDryer(t *testing.T) {

	assert := assert.New(t)

	wd := CreateTestWasherDryer("WPR4TESTSAID")
	wd.SetMachineState(MachineStateComplete)
	wd.SetAttribute(ATTR_CYCLE_STATUS_RINSING, "1")

	calls := 0
	wd.RegisterAttrCallback(func() { calls++ })
	wd.Push()

	assert.Equal(1, calls)
	assert.Equal(MachineStateComplete, wd.GetMachineState())
	assert.True(wd.GetCycleStatusRinsing())
	assert.False(wd.GetCycleStatusFilling())
}

func TestGatewayErrorsReported(t *testing.T) {

	assert := assert.New(t)

	hub := NewHub("localhost", 1883, "", "", "whirlpool")
	wd := hub.WasherDryer("WPR4TESTSAID")

	var mu sync.Mutex
	var errs []error
	hub.OnError(func(said string, err error) {
		assert.Equal("WPR4TESTSAID", said)
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	calls := 0
	wd.RegisterAttrCallback(func() { calls++ })

	wd.onMessage(nil, gatewayMessage{topic: "whirlpool/WPR4TESTSAID/attributes", payload: "not json"})
	wd.onMessage(nil, gatewayMessage{topic: "whirlpool/WPR4TESTSAID/online", payload: "maybe"})
	wd.onMessage(nil, gatewayMessage{topic: "whirlpool/WPR4TESTSAID/online", payload: "1"})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 2)
	assert.ErrorContains(errs[0], "decode attributes")
	assert.ErrorIs(errs[1], ErrUnexpectedPayload)
	assert.Equal(1, calls, "only the valid push notifies")
}

func TestWasherDryerGateway(t *testing.T) {

	assert := assert.New(t)

	broker := mqtttest.StartBroker(t)
	hub := NewHub(broker.Host(), broker.Port(), "", "", "whirlpool")
	wd := hub.WasherDryer("WPR4TESTSAID")

	var pushes atomic.Int32
	wd.RegisterAttrCallback(func() { pushes.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wd.Connect(ctx))
	defer wd.Disconnect(context.Background())

	gateway := broker.Client()
	broker.Publish(gateway, "whirlpool/WPR4TESTSAID/online", "1", false)
	broker.Publish(gateway, "whirlpool/WPR4TESTSAID/attributes", `{"Cavity_CycleStatusMachineState":"7"}`, false)

	assert.Eventually(func() bool {
		return pushes.Load() == 2
	}, 5*time.Second, 50*time.Millisecond)
	assert.True(wd.GetOnline())
	assert.Equal(MachineStateRunningMainCycle, wd.GetMachineState())

	// connection loss marks the appliance offline
	broker.Restart()
	assert.Eventually(func() bool {
		return !wd.GetOnline()
	}, 5*time.Second, 50*time.Millisecond)

	// pushes keep flowing once the hub reconnects
	gateway = broker.Client()
	assert.Eventually(func() bool {
		gateway.Publish("whirlpool/WPR4TESTSAID/attributes", 1, false, `{"Cavity_CycleStatusMachineState":"10"}`).WaitTimeout(time.Second)
		return wd.GetMachineState() == MachineStateComplete
	}, 15*time.Second, 250*time.Millisecond)

	broker.Publish(gateway, "whirlpool/WPR4TESTSAID/online", "1", false)
	assert.Eventually(func() bool {
		return wd.GetOnline()
	}, 5*time.Second, 50*time.Millisecond)
}
