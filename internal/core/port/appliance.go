package port

import (
	"context"

	"github.com/berfenger/laundrynet2mqtt/pkg/washerdryer"
)

// WasherDryer is the vendor client of a single washer/dryer appliance.
// Registered callbacks run after every upstream push, on the client's goroutine.
type WasherDryer interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	GetOnline() bool
	GetMachineState() washerdryer.MachineState
	GetAttribute(name string) string
	GetCycleStatusFilling() bool
	GetCycleStatusRinsing() bool
	GetCycleStatusSensing() bool
	GetCycleStatusSoaking() bool
	GetCycleStatusSpinning() bool
	GetCycleStatusWashing() bool
	RegisterAttrCallback(fn func()) washerdryer.CallbackId
	UnregisterAttrCallback(id washerdryer.CallbackId)
}

// ensure interface compliance
var _ WasherDryer = (*washerdryer.WasherDryer)(nil)
var _ WasherDryer = (*washerdryer.TestWasherDryer)(nil)
