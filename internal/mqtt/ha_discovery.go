package mqtt

import (
	"fmt"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice         `json:"device"`
	StateTopic        string                    `json:"state_topic"`
	StateClass        string                    `json:"state_class,omitempty"`
	DeviceClass       string                    `json:"device_class,omitempty"`
	UnitOfMeasurement string                    `json:"unit_of_measurement,omitempty"`
	AvTopic           string                    `json:"availability_topic,omitempty"`
	Availability      []HADiscoveryAvailability `json:"availability,omitempty"`
	AvailabilityMode  string                    `json:"availability_mode,omitempty"`
	EntityCategory    string                    `json:"entity_category,omitempty"`
	Name              string                    `json:"name"`
	UniqueId          string                    `json:"unique_id"`
	Platform          string                    `json:"platform"`
	EnabledByDefault  *bool                     `json:"enabled_by_default,omitempty"`
	PayloadOn         string                    `json:"payload_on,omitempty"`
	PayloadOff        string                    `json:"payload_off,omitempty"`
	Icon              string                    `json:"icon,omitempty"`
}

type HADiscoveryAvailability struct {
	Topic               string `json:"topic"`
	PayloadAvailable    string `json:"payload_available,omitempty"`
	PayloadNotAvailable string `json:"payload_not_available,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func HADiscoverySensorTopic(client *MQTTClient, sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", client.HADiscoveryTopic(), sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	dev := device(sensor.Device)
	var topic string
	switch {
	case sensor.Id == domain.SENSOR_ID_BRIDGE_STATE:
		topic = client.BridgeStateTopic()
	case sensor.SensorType == domain.SENSOR_TYPE_SENSOR:
		topic = client.SensorStateTopic(sensor.Device.Id, sensor.Id)
	case sensor.SensorType == domain.SENSOR_TYPE_BINARY:
		topic = client.BinarySensorStateTopic(sensor.Device.Id, sensor.Id)
	}
	disConfig := HADiscoveryConfig{
		Device:            dev,
		StateTopic:        topic,
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		EntityCategory:    sensor.EntityCategory,
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Icon:              sensor.Icon,
		EnabledByDefault:  sensor.EnabledByDefault,
		Platform:          "mqtt",
	}
	if sensor.Availability {
		// available only while both the bridge and the sensor source are up
		disConfig.Availability = []HADiscoveryAvailability{
			{Topic: client.BridgeStateTopic()},
			{Topic: client.SensorAvailabilityTopic(sensor.Device.Id, sensor.Id)},
		}
		disConfig.AvailabilityMode = "all"
	} else {
		disConfig.AvTopic = client.BridgeStateTopic()
	}
	if sensor.Id == domain.SENSOR_ID_BRIDGE_STATE {
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
