package washerdryer

import (
	"context"
	"strconv"
	"sync"
)

func CreateTestWasherDryer(said string) *TestWasherDryer {
	return &TestWasherDryer{
		said:      said,
		attrs:     make(map[string]string),
		callbacks: make(map[CallbackId]func()),
	}
}

// TestWasherDryer is an in-memory appliance. Push runs the registered callbacks
// the same way a gateway update does.
type TestWasherDryer struct {
	said string

	mu            sync.RWMutex
	attrs         map[string]string
	online        bool
	nextId        CallbackId
	callbacks     map[CallbackId]func()
	connects      int
	disconnects   int
	ConnectErr    error
	DisconnectErr error
}

func (wd *TestWasherDryer) SAID() string {
	return wd.said
}

func (wd *TestWasherDryer) Connect(_ context.Context) error {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.connects++
	return wd.ConnectErr
}

func (wd *TestWasherDryer) Disconnect(_ context.Context) error {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.disconnects++
	return wd.DisconnectErr
}

func (wd *TestWasherDryer) Connects() int {
	wd.mu.RLock()
	defer wd.mu.RUnlock()
	return wd.connects
}

func (wd *TestWasherDryer) Disconnects() int {
	wd.mu.RLock()
	defer wd.mu.RUnlock()
	return wd.disconnects
}

func (wd *TestWasherDryer) SetAttribute(name, value string) {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.attrs[name] = value
}

func (wd *TestWasherDryer) SetMachineState(state MachineState) {
	wd.SetAttribute(ATTR_MACHINE_STATE, strconv.Itoa(int(state)))
}

func (wd *TestWasherDryer) SetOnline(online bool) {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.online = online
}

func (wd *TestWasherDryer) Push() {
	wd.mu.RLock()
	callbacks := make([]func(), 0, len(wd.callbacks))
	for _, fn := range wd.callbacks {
		callbacks = append(callbacks, fn)
	}
	wd.mu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}

func (wd *TestWasherDryer) CallbackCount() int {
	wd.mu.RLock()
	defer wd.mu.RUnlock()
	return len(wd.callbacks)
}

func (wd *TestWasherDryer) GetOnline() bool {
	wd.mu.RLock()
	defer wd.mu.RUnlock()
	return wd.online
}

func (wd *TestWasherDryer) GetAttribute(name string) string {
	wd.mu.RLock()
	defer wd.mu.RUnlock()
	return wd.attrs[name]
}

func (wd *TestWasherDryer) GetMachineState() MachineState {
	return ParseMachineState(wd.GetAttribute(ATTR_MACHINE_STATE))
}

func (wd *TestWasherDryer) GetCycleStatusFilling() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_FILLING) == ATTR_VALUE_TRUE
}

func (wd *TestWasherDryer) GetCycleStatusRinsing() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_RINSING) == ATTR_VALUE_TRUE
}

func (wd *TestWasherDryer) GetCycleStatusSensing() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_SENSING) == ATTR_VALUE_TRUE
}

func (wd *TestWasherDryer) GetCycleStatusSoaking() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_SOAKING) == ATTR_VALUE_TRUE
}

func (wd *TestWasherDryer) GetCycleStatusSpinning() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_SPINNING) == ATTR_VALUE_TRUE
}

func (wd *TestWasherDryer) GetCycleStatusWashing() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_WASHING) == ATTR_VALUE_TRUE
}

func (wd *TestWasherDryer) RegisterAttrCallback(fn func()) CallbackId {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.nextId++
	wd.callbacks[wd.nextId] = fn
	return wd.nextId
}

func (wd *TestWasherDryer) UnregisterAttrCallback(id CallbackId) {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	delete(wd.callbacks, id)
}
