package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *MQTTClient {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "loremtopic",
			HADiscoveryTopic: "homeassistant",
		},
	}
	return CreateMQTTClient(cfg, OptsFromConfig(cfg), nil, nil)
}

func TestTopics(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	assert.Equal("loremtopic/bridge/state", c.BridgeStateTopic())
	assert.Equal("loremtopic/sensor/WPR1/state/state", c.SensorStateTopic("WPR1", "state"))
	assert.Equal("loremtopic/sensor/1234/connected_wifi_clients/availability", c.SensorAvailabilityTopic("1234", "connected_wifi_clients"))
	assert.Equal("homeassistant/status", c.HAStatusTopic())
}

func TestSensorDiscoveryMessage(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	enabled := false
	sensor := domain.GenericSensor{
		Device:           domain.Device{Id: "1234", Name: "Office", Manufacturer: "devolo"},
		Id:               "connected_plc_devices",
		SensorType:       domain.SENSOR_TYPE_SENSOR,
		Name:             "Connected PLC devices",
		UniqueId:         "1234_connected_plc_devices",
		EntityCategory:   domain.ENTITY_CLASS_DIAGNOSTIC,
		EnabledByDefault: &enabled,
		Icon:             "mdi:lan",
		Availability:     true,
	}
	msg := GenericSensorToHADiscoveryMessage(c, sensor)
	assert.Equal("loremtopic/sensor/1234/connected_plc_devices/state", msg.StateTopic)
	assert.Empty(msg.AvTopic)
	require.Len(t, msg.Availability, 2)
	assert.Equal("loremtopic/bridge/state", msg.Availability[0].Topic)
	assert.Equal("loremtopic/sensor/1234/connected_plc_devices/availability", msg.Availability[1].Topic)
	assert.Equal("all", msg.AvailabilityMode)
	assert.Equal("homeassistant/sensor/1234/connected_plc_devices/config", HADiscoverySensorTopic(c, sensor))

	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(string(payload), `"enabled_by_default":false`)
	assert.Contains(string(payload), `"identifiers":["1234"]`)
}

func TestBridgeDiscoveryMessage(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	msg := GenericSensorToHADiscoveryMessage(c, domain.GenericSensor{
		Device:     domain.Device{Id: "bridge"},
		Id:         domain.SENSOR_ID_BRIDGE_STATE,
		SensorType: domain.SENSOR_TYPE_BINARY,
	})
	assert.Equal(c.BridgeStateTopic(), msg.StateTopic)
	assert.Equal(c.BridgeStateTopic(), msg.AvTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Empty(msg.Availability)
}
