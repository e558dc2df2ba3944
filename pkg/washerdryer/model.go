package washerdryer

type MachineState int

// machine states reported in ATTR_MACHINE_STATE
const (
	MachineStateStandby            MachineState = 0
	MachineStateSetting            MachineState = 1
	MachineStateDelayCountdownMode MachineState = 2
	MachineStateDelayPause         MachineState = 3
	MachineStateSmartDelay         MachineState = 4
	MachineStateSmartGridPause     MachineState = 5
	MachineStatePause              MachineState = 6
	MachineStateRunningMainCycle   MachineState = 7
	MachineStateRunningPostCycle   MachineState = 8
	MachineStateExceptions         MachineState = 9
	MachineStateComplete           MachineState = 10
	MachineStatePowerFailure       MachineState = 11
	MachineStateServiceDiagnostic  MachineState = 12
	MachineStateFactoryDiagnostic  MachineState = 13
	MachineStateLifeTest           MachineState = 14
	MachineStateCustomerFocusMode  MachineState = 15
	MachineStateDemoMode           MachineState = 16
	MachineStateHardStopOrError    MachineState = 17
	MachineStateSystemInit         MachineState = 18
	// not reported by appliances, used when the attribute is missing or malformed
	MachineStateUnknown MachineState = -1
)

const (
	ATTR_MACHINE_STATE         = "Cavity_CycleStatusMachineState"
	ATTR_DOOR_OPEN             = "Cavity_OpStatusDoorOpen"
	ATTR_TIME_REMAINING        = "Cavity_TimeStatusEstTimeRemaining"
	ATTR_BULK_DISPENSE_LEVEL   = "WashCavity_OpStatusBulkDispense1Level"
	ATTR_CYCLE_STATUS_FILLING  = "Cavity_CycleStatusFilling"
	ATTR_CYCLE_STATUS_RINSING  = "Cavity_CycleStatusRinsing"
	ATTR_CYCLE_STATUS_SENSING  = "Cavity_CycleStatusSensing"
	ATTR_CYCLE_STATUS_SOAKING  = "Cavity_CycleStatusSoaking"
	ATTR_CYCLE_STATUS_SPINNING = "Cavity_CycleStatusSpinning"
	ATTR_CYCLE_STATUS_WASHING  = "Cavity_CycleStatusWashing"
	ATTR_VALUE_TRUE            = "1"
	ONLINE_PAYLOAD_ONLINE      = "1"
	ONLINE_PAYLOAD_OFFLINE     = "0"
)

type CallbackId uint64
