package domain

import "time"

const (
	SENSOR_ID_BRIDGE_STATE    = "bridge"
	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_TIMESTAMP    = "timestamp"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	ENTITY_CLASS_CONFIG       = "config"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
)

// Sensor values shared by every state consumer.
const (
	STATE_ONLINE  = "online"
	STATE_OFFLINE = "offline"
	STATE_NONE    = "None"
)

// SensorData is the persisted state of a sensor restored on startup.
type SensorData struct {
	NativeValue string    `json:"native_value"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SensorState is the last published value of a sensor.
type SensorState struct {
	DeviceId  string    `json:"device_id"`
	SensorId  string    `json:"sensor_id"`
	Value     string    `json:"value"`
	Available bool      `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}
