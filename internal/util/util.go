package util

import (
	"github.com/berfenger/laundrynet2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:              "localhost",
			Port:              1883,
			BaseTopic:         "laundrynet",
			HADiscoveryEnable: true,
			HADiscoveryTopic:  "homeassistant",
		},
		Network: config.NetworkConfig{
			Enable:             true,
			Title:              "Office adapter",
			Host:               "-.-.-.-",
			Port:               161,
			Community:          "public",
			TimeoutMillis:      1000,
			PollIntervalMillis: 1000,
		},
		Appliances: config.AppliancesConfig{
			Gateway: config.GatewayConfig{
				Host:  "localhost",
				Port:  1883,
				Topic: "whirlpool",
			},
			Devices: []config.ApplianceConfig{
				{SAID: "WPR4TESTWASHER", Name: "washer"},
				{SAID: "WPR4TESTDRYER", Name: "dryer"},
			},
		},
		StateCacheTTLSeconds: 3600,
		Port:                 8080,
	}
}
