package mqtt

import (
	"fmt"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	MQTT_PAYLOAD_ONLINE  = domain.STATE_ONLINE
	MQTT_PAYLOAD_OFFLINE = domain.STATE_OFFLINE
	MQTT_PAYLOAD_NONE    = domain.STATE_NONE
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("laundrynet_%s", uuid.NewString()[:8]))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client: mqtt.NewClient(opts),
		cfg:    cfg.MQTT,
	}
}

type MQTTClient struct {
	client mqtt.Client
	cfg    config.MQTTConfig
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) SensorStateTopic(deviceId, sensorId string) string {
	return fmt.Sprintf("%s/sensor/%s/%s/state", c.baseTopic(), deviceId, sensorId)
}

func (c *MQTTClient) BinarySensorStateTopic(deviceId, sensorId string) string {
	return fmt.Sprintf("%s/binary_sensor/%s/%s/state", c.baseTopic(), deviceId, sensorId)
}

func (c *MQTTClient) SensorAvailabilityTopic(deviceId, sensorId string) string {
	return fmt.Sprintf("%s/sensor/%s/%s/availability", c.baseTopic(), deviceId, sensorId)
}

// HAStatusTopic is where Home Assistant announces itself after a restart.
func (c *MQTTClient) HAStatusTopic() string {
	return fmt.Sprintf("%s/status", c.cfg.HADiscoveryTopic)
}

func (c *MQTTClient) HADiscoveryTopic() string {
	return c.cfg.HADiscoveryTopic
}

func IsHAOnlineMessage(msg mqtt.Message) bool {
	return string(msg.Payload()) == MQTT_PAYLOAD_ONLINE
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Publish(topic, qos, retain, payload), "publish", timeout, continuation)
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Subscribe(topic, qos, handler), "subscribe", timeout, continuation)
}

func (c *MQTTClient) SubscribeToHAStatusTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.HAStatusTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Connect(), "connect", timeout, continuation)
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

// awaitToken calls continuation from a new goroutine once token completes or timeout expires.
func awaitToken(token mqtt.Token, op string, timeout time.Duration, continuation func(error)) {
	go func() {
		if !token.WaitTimeout(timeout) {
			continuation(fmt.Errorf("MQTT %s timed out", op))
			return
		}
		continuation(token.Error())
	}()
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
