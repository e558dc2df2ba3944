package appliance

import (
	"fmt"
	"strings"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
)

const (
	SENSOR_KEY_STATE          = "state"
	SENSOR_KEY_DISPENSE_LEVEL = "DispenseLevel"
	SENSOR_KEY_END_TIME       = "timeremaining"
	ICON_WASHER               = "mdi:washing-machine"
	ICON_DRYER                = "mdi:tumble-dryer"
	MANUFACTURER              = "Whirlpool"
)

type SensorDescription struct {
	Key         string
	Name        string
	DeviceClass string
}

var Sensors = []SensorDescription{
	{Key: SENSOR_KEY_STATE, Name: "State"},
	{Key: SENSOR_KEY_DISPENSE_LEVEL, Name: "Detergent Level"},
}

var SensorTimer = SensorDescription{
	Key:         SENSOR_KEY_END_TIME,
	Name:        "End Time",
	DeviceClass: domain.DEVICE_CLASS_TIMESTAMP,
}

// DisplayName upper cases the first letter and lower cases the rest.
func DisplayName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(strings.ToLower(name))
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func Icon(displayName string) string {
	if displayName == "Dryer" {
		return ICON_DRYER
	}
	return ICON_WASHER
}

func UniqueId(said, key string) string {
	return fmt.Sprintf("%s-%s", said, key)
}
