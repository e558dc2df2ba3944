package appliance

import (
	"testing"

	"github.com/berfenger/laundrynet2mqtt/pkg/washerdryer"

	"github.com/stretchr/testify/assert"
)

func TestWasherStateProbeOrder(t *testing.T) {

	assert := assert.New(t)

	wd := washerdryer.CreateTestWasherDryer("WPR1")
	wd.SetMachineState(washerdryer.MachineStateRunningMainCycle)

	wd.SetAttribute(washerdryer.ATTR_CYCLE_STATUS_WASHING, "1")
	assert.Equal("Cycle Washing", WasherState(wd))

	wd.SetAttribute(washerdryer.ATTR_CYCLE_STATUS_SPINNING, "1")
	assert.Equal("Cycle Spinning", WasherState(wd), "spinning probed before washing")

	wd.SetAttribute(washerdryer.ATTR_CYCLE_STATUS_SENSING, "1")
	assert.Equal("Cycle Sensing", WasherState(wd))

	wd.SetAttribute(washerdryer.ATTR_CYCLE_STATUS_FILLING, "1")
	wd.SetAttribute(washerdryer.ATTR_CYCLE_STATUS_RINSING, "1")
	assert.Equal("Cycle Filling", WasherState(wd), "filling probed first")
}

func TestWasherStateRunningWithoutSubStatus(t *testing.T) {
	wd := washerdryer.CreateTestWasherDryer("WPR1")
	wd.SetMachineState(washerdryer.MachineStateRunningMainCycle)
	assert.Equal(t, "Running Maincycle", WasherState(wd))
}

func TestWasherStateSubStatusIgnoredWhenNotRunning(t *testing.T) {
	wd := washerdryer.CreateTestWasherDryer("WPR1")
	wd.SetMachineState(washerdryer.MachineStatePause)
	wd.SetAttribute(washerdryer.ATTR_CYCLE_STATUS_SPINNING, "1")
	assert.Equal(t, "Pause", WasherState(wd))
}

func TestWasherStateDoorOpen(t *testing.T) {

	assert := assert.New(t)

	wd := washerdryer.CreateTestWasherDryer("WPR1")
	wd.SetMachineState(washerdryer.MachineStateRunningMainCycle)
	wd.SetAttribute(washerdryer.ATTR_CYCLE_STATUS_FILLING, "1")
	wd.SetAttribute(washerdryer.ATTR_DOOR_OPEN, "1")
	assert.Equal(STATE_DOOR_OPEN, WasherState(wd), "door open wins over sub status")

	for state := washerdryer.MachineStateStandby; state <= washerdryer.MachineStateSystemInit; state++ {
		wd.SetMachineState(state)
		assert.Equal(STATE_DOOR_OPEN, WasherState(wd))
	}

	wd.SetAttribute(washerdryer.ATTR_DOOR_OPEN, "0")
	wd.SetMachineState(washerdryer.MachineStateComplete)
	assert.Equal("Complete", WasherState(wd))
}

func TestWasherStateUnknown(t *testing.T) {

	assert := assert.New(t)

	wd := washerdryer.CreateTestWasherDryer("WPR1")
	assert.Equal(STATE_UNKNOWN, WasherState(wd), "missing state")

	wd.SetAttribute(washerdryer.ATTR_MACHINE_STATE, "42")
	assert.Equal(STATE_UNKNOWN, WasherState(wd), "out of range state")

	assert.Equal(STATE_UNKNOWN, MachineStateLabel(washerdryer.MachineState(99)))
	assert.Len(machineStateLabels, 19)
}

func TestDispenseLevel(t *testing.T) {

	assert := assert.New(t)

	wd := washerdryer.CreateTestWasherDryer("WPR1")

	expected := map[string]string{"0": "Unknown", "1": "Empty", "2": "25%", "3": "50%", "4": "100%", "5": "Active"}
	for code, label := range expected {
		wd.SetAttribute(washerdryer.ATTR_BULK_DISPENSE_LEVEL, code)
		value, err := DispenseLevel(wd)
		assert.NoError(err)
		assert.Equal(label, value)
	}

	wd.SetAttribute(washerdryer.ATTR_BULK_DISPENSE_LEVEL, "6")
	_, err := DispenseLevel(wd)
	assert.ErrorIs(err, ErrUnknownFillLevel)

	wd.SetAttribute(washerdryer.ATTR_BULK_DISPENSE_LEVEL, "")
	_, err = DispenseLevel(wd)
	assert.ErrorIs(err, ErrUnknownFillLevel)
}

func TestDisplayNameAndIcon(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("Dryer", DisplayName("DRYER"))
	assert.Equal("Washer upstairs", DisplayName("washer Upstairs"))
	assert.Equal("", DisplayName(""))
	assert.Equal(ICON_DRYER, Icon(DisplayName("dryer")))
	assert.Equal(ICON_WASHER, Icon(DisplayName("washer")))
	assert.Equal(ICON_WASHER, Icon("Dryer 2"))
	assert.Equal("WPR1-timeremaining", UniqueId("WPR1", SENSOR_KEY_END_TIME))
}
