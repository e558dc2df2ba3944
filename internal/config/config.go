package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel             zapcore.Level
	MQTT                 MQTTConfig       `mapstructure:"mqtt"`
	Network              NetworkConfig    `mapstructure:"network"`
	Appliances           AppliancesConfig `mapstructure:"appliances"`
	Store                StoreConfig      `mapstructure:"store"`
	StateCacheTTLSeconds uint32           `mapstructure:"state_cache_ttl_seconds"`
	Port                 uint             `mapstructure:"port"`
	HttpLog              bool             `mapstructure:"http_log"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

// NetworkConfig describes the powerline/Wi-Fi adapter polled over SNMP.
// An empty OID disables the metrics that depend on it.
type NetworkConfig struct {
	Enable             bool
	Title              string
	Host               string
	Port               uint16
	Community          string
	TimeoutMillis      uint32   `mapstructure:"timeout_millis"`
	PollIntervalMillis uint32   `mapstructure:"poll_interval_millis"`
	PLCRateFromOID     string   `mapstructure:"plc_rate_from_oid"`
	PLCRateToOID       string   `mapstructure:"plc_rate_to_oid"`
	StationOID         string   `mapstructure:"station_oid"`
	NeighborOID        string   `mapstructure:"neighbor_oid"`
	Features           []string `mapstructure:"features"`
}

type AppliancesConfig struct {
	Gateway GatewayConfig     `mapstructure:"gateway"`
	Devices []ApplianceConfig `mapstructure:"devices"`
}

// GatewayConfig is the broker where the vendor gateway pushes appliance attributes.
type GatewayConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Topic    string
}

type ApplianceConfig struct {
	SAID string `mapstructure:"said"`
	Name string `mapstructure:"name"`
}

type StoreConfig struct {
	Path string
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

func CheckAppliances(devices []ApplianceConfig) error {
	seen := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		if d.SAID == "" {
			return errors.New("appliance said cannot be empty")
		}
		if _, ok := seen[d.SAID]; ok {
			return fmt.Errorf("duplicated appliance said %q", d.SAID)
		}
		seen[d.SAID] = struct{}{}
	}
	return nil
}
