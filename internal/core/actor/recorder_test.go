package actor

import (
	"sync"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/eventstream"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []any
}

func recordEvents(es *eventstream.EventStream) *eventRecorder {
	r := &eventRecorder{}
	es.Subscribe(func(evt any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, evt)
	})
	return r
}

func (r *eventRecorder) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any{}, r.events...)
}

func (r *eventRecorder) lastText(deviceId, id string) (string, bool) {
	var value string
	found := false
	for _, evt := range r.all() {
		if ev, ok := evt.(domain.TextSensorUpdateEvent); ok && ev.DeviceId == deviceId && ev.Id == id {
			value = ev.Value
			found = true
		}
	}
	return value, found
}

func (r *eventRecorder) lastInt(deviceId, id string) (int, bool) {
	var value int
	found := false
	for _, evt := range r.all() {
		if ev, ok := evt.(domain.IntSensorUpdateEvent); ok && ev.DeviceId == deviceId && ev.Id == id {
			value = ev.Value
			found = true
		}
	}
	return value, found
}

func (r *eventRecorder) lastTimestamp(deviceId, id string) (*time.Time, bool) {
	var value *time.Time
	found := false
	for _, evt := range r.all() {
		if ev, ok := evt.(domain.TimestampSensorUpdateEvent); ok && ev.DeviceId == deviceId && ev.Id == id {
			value = ev.Value
			found = true
		}
	}
	return value, found
}

func (r *eventRecorder) lastAvailability(deviceId, id string) (bool, bool) {
	value := false
	found := false
	for _, evt := range r.all() {
		if ev, ok := evt.(domain.AvailabilityUpdateEvent); ok && ev.DeviceId == deviceId && ev.Id == id {
			value = ev.Value
			found = true
		}
	}
	return value, found
}

func (r *eventRecorder) countTimestamps(deviceId, id string) int {
	n := 0
	for _, evt := range r.all() {
		if ev, ok := evt.(domain.TimestampSensorUpdateEvent); ok && ev.DeviceId == deviceId && ev.Id == id {
			n++
		}
	}
	return n
}
