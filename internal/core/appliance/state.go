package appliance

import (
	"errors"
	"fmt"

	"github.com/berfenger/laundrynet2mqtt/internal/core/port"
	"github.com/berfenger/laundrynet2mqtt/pkg/washerdryer"
)

const (
	STATE_DOOR_OPEN = "Door open"
	STATE_UNKNOWN   = "unknown"
)

var ErrUnknownFillLevel = errors.New("unknown dispenser fill level")

var machineStateLabels = map[washerdryer.MachineState]string{
	washerdryer.MachineStateStandby:            "Standby",
	washerdryer.MachineStateSetting:            "Setting",
	washerdryer.MachineStateDelayCountdownMode: "Delay Countdown",
	washerdryer.MachineStateDelayPause:         "Delay Paused",
	washerdryer.MachineStateSmartDelay:         "Smart Delay",
	washerdryer.MachineStateSmartGridPause:     "Smart Grid Pause",
	washerdryer.MachineStatePause:              "Pause",
	washerdryer.MachineStateRunningMainCycle:   "Running Maincycle",
	washerdryer.MachineStateRunningPostCycle:   "Running Postcycle",
	washerdryer.MachineStateExceptions:         "Exception",
	washerdryer.MachineStateComplete:           "Complete",
	washerdryer.MachineStatePowerFailure:       "Power Failure",
	washerdryer.MachineStateServiceDiagnostic:  "Service Diagnostic Mode",
	washerdryer.MachineStateFactoryDiagnostic:  "Factory Diagnostic Mode",
	washerdryer.MachineStateLifeTest:           "Life Test",
	washerdryer.MachineStateCustomerFocusMode:  "Customer Focus Mode",
	washerdryer.MachineStateDemoMode:           "Demo Mode",
	washerdryer.MachineStateHardStopOrError:    "Hard Stop or Error",
	washerdryer.MachineStateSystemInit:         "System Initialize",
}

type cycleStatusProbe struct {
	probe func(port.WasherDryer) bool
	label string
}

// probed in order while running the main cycle, first match wins
var cycleStatusProbes = []cycleStatusProbe{
	{probe: port.WasherDryer.GetCycleStatusFilling, label: "Cycle Filling"},
	{probe: port.WasherDryer.GetCycleStatusRinsing, label: "Cycle Rinsing"},
	{probe: port.WasherDryer.GetCycleStatusSensing, label: "Cycle Sensing"},
	{probe: port.WasherDryer.GetCycleStatusSoaking, label: "Cycle Soaking"},
	{probe: port.WasherDryer.GetCycleStatusSpinning, label: "Cycle Spinning"},
	{probe: port.WasherDryer.GetCycleStatusWashing, label: "Cycle Washing"},
}

var fillLevelLabels = map[string]string{
	"0": "Unknown",
	"1": "Empty",
	"2": "25%",
	"3": "50%",
	"4": "100%",
	"5": "Active",
}

func MachineStateLabel(state washerdryer.MachineState) string {
	if label, ok := machineStateLabels[state]; ok {
		return label
	}
	return STATE_UNKNOWN
}

// WasherState returns the display status of the appliance.
func WasherState(wd port.WasherDryer) string {
	if wd.GetAttribute(washerdryer.ATTR_DOOR_OPEN) == washerdryer.ATTR_VALUE_TRUE {
		return STATE_DOOR_OPEN
	}

	state := wd.GetMachineState()

	if state == washerdryer.MachineStateRunningMainCycle {
		for _, p := range cycleStatusProbes {
			if p.probe(wd) {
				return p.label
			}
		}
	}

	return MachineStateLabel(state)
}

// DispenseLevel returns the bulk dispenser fill level label.
func DispenseLevel(wd port.WasherDryer) (string, error) {
	code := wd.GetAttribute(washerdryer.ATTR_BULK_DISPENSE_LEVEL)
	label, ok := fillLevelLabels[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFillLevel, code)
	}
	return label, nil
}
