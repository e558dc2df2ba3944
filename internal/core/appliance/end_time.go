package appliance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/laundrynet2mqtt/pkg/washerdryer"
)

// EndTimeTracker estimates when the running cycle ends. Once the machine stops
// running the value freezes at the instant the stop was seen.
type EndTimeTracker struct {
	running bool
	value   *time.Time
}

func (t *EndTimeTracker) Restore(value time.Time) {
	v := value
	t.value = &v
}

func (t *EndTimeTracker) Value() *time.Time {
	return t.value
}

func (t *EndTimeTracker) Running() bool {
	return t.running
}

// Update applies a push of the appliance. It reports whether the value must be written.
// remaining is the vendor estimate in seconds, possibly fractional, only read while
// running the main cycle.
func (t *EndTimeTracker) Update(state washerdryer.MachineState, remaining string, now time.Time) (bool, error) {
	changed := false

	if (state == washerdryer.MachineStateComplete || state == washerdryer.MachineStateStandby) && t.running {
		t.running = false
		t.value = &now
		changed = true
	}

	if state == washerdryer.MachineStateRunningMainCycle {
		seconds, err := parseRemaining(remaining)
		if err != nil {
			return changed, err
		}
		end := now.Add(seconds)
		t.running = true
		t.value = &end
		changed = true
	}

	return changed, nil
}

func parseRemaining(remaining string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(remaining), 64)
	if err != nil {
		return 0, fmt.Errorf("parse remaining time %q: %w", remaining, err)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("parse remaining time %q: not a finite number", remaining)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
