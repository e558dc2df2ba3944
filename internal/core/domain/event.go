package domain

import (
	"fmt"
	"time"
)

type SensorUpdateEventMixIn struct {
	DeviceId string
	Id       string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorDeviceId() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorDeviceId() string {
	return e.DeviceId
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

type IntSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value int
}

type TextSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

// TimestampSensorUpdateEvent carries a nil Value while the sensor has no value yet.
type TimestampSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value *time.Time
}

type AvailabilityUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// PublisherReadyEvent is published once the MQTT publisher listens to the event stream.
// Sensor owners answer it by publishing their current state again.
type PublisherReadyEvent struct {
}

// ensure interface compliance
var _ SensorUpdateEvent = (*IntSensorUpdateEvent)(nil)
var _ SensorUpdateEvent = (*TimestampSensorUpdateEvent)(nil)
