package domain

// Device groups sensors in Home Assistant. ViaDevice is the id of the bridge
// the device is reached through.
type Device struct {
	Id           string
	Name         string
	Manufacturer string
	Model        string
	Version      string
	ViaDevice    string
}

// GenericSensor is everything needed to announce a sensor through MQTT discovery.
type GenericSensor struct {
	Device     Device
	Id         string
	UniqueId   string
	Name       string
	SensorType string // sensor, binary_sensor
	Icon       string

	DeviceClass       string // timestamp, connectivity
	StateClass        string // measurement
	EntityCategory    string // diagnostic, config
	UnitOfMeasurement string
	EnabledByDefault  *bool

	// Availability is set for sensors that publish their own availability
	// on top of the bridge state.
	Availability bool
}
