package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/berfenger/laundrynet2mqtt/internal/core/appliance"
	. "github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/network"
	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"

	"github.com/carlmjohnson/versioninfo"
)

var invalidIdChars = regexp.MustCompile("[^a-zA-Z0-9_-]+")

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("laundrynet_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "LaundryNet",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("LaundryNet %s", md5HashShort(baseTopic)),
	}
}

// NetworkDevice describes the polled adapter. title overrides the name reported by the device.
func NetworkDevice(info *plcnet.DeviceInfo, title string) Device {
	name := title
	if name == "" {
		name = info.Name
	}
	if name == "" {
		name = fmt.Sprintf("%s %s", info.Manufacturer, info.Model)
	}
	return Device{
		Id:           DeviceIdOf(info.Serial),
		Version:      info.Version,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         name,
	}
}

func ApplianceDevice(said, name string) Device {
	return Device{
		Id:           DeviceIdOf(said),
		Manufacturer: appliance.MANUFACTURER,
		Name:         appliance.DisplayName(name),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// DeviceIdOf turns a serial number or SAID into a topic safe identifier.
func DeviceIdOf(id string) string {
	return invalidIdChars.ReplaceAllString(id, "_")
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func NetworkSensors(networkDevice Device, serial string, metrics []network.MetricDescription) []GenericSensor {

	var sensors []GenericSensor

	for i, m := range metrics {
		device := networkDevice
		if i > 0 {
			device = IdDevice(networkDevice)
		}
		sensors = append(sensors, GenericSensor{
			Device:           device,
			Id:               m.Key,
			SensorType:       SENSOR_TYPE_SENSOR,
			Name:             m.Name,
			UniqueId:         network.UniqueId(serial, m.Key),
			StateClass:       m.StateClass,
			EntityCategory:   m.EntityCategory,
			EnabledByDefault: optionalBool(m.EnabledByDefault),
			Icon:             m.Icon,
			Availability:     true,
		})
	}

	return sensors
}

func ApplianceSensors(applianceDevice Device, said string) []GenericSensor {

	var sensors []GenericSensor

	icon := appliance.Icon(applianceDevice.Name)
	descriptions := append(append([]appliance.SensorDescription{}, appliance.Sensors...), appliance.SensorTimer)
	for i, d := range descriptions {
		device := applianceDevice
		if i > 0 {
			device = IdDevice(applianceDevice)
		}
		sensors = append(sensors, GenericSensor{
			Device:       device,
			Id:           d.Key,
			SensorType:   SENSOR_TYPE_SENSOR,
			Name:         d.Name,
			UniqueId:     appliance.UniqueId(said, d.Key),
			DeviceClass:  d.DeviceClass,
			Icon:         icon,
			Availability: true,
		})
	}

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
