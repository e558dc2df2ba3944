package network

import (
	"errors"
	"fmt"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"
)

const (
	METRIC_CONNECTED_PLC_DEVICES     = "connected_plc_devices"
	METRIC_CONNECTED_WIFI_CLIENTS    = "connected_wifi_clients"
	METRIC_NEIGHBORING_WIFI_NETWORKS = "neighboring_wifi_networks"
)

var ErrUnknownMetric = errors.New("unknown network metric")

// Category is the reader call that feeds a metric.
type Category int

const (
	CategoryLogicalNetwork Category = iota
	CategoryConnectedStations
	CategoryNeighborAPs
)

func CategoryToString(c Category) string {
	switch c {
	case CategoryLogicalNetwork:
		return "logical_network"
	case CategoryConnectedStations:
		return "connected_stations"
	case CategoryNeighborAPs:
		return "neighbor_aps"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// Snapshot holds the latest data of every category.
// A metric is only evaluated once its category has been fetched.
type Snapshot struct {
	Network   *plcnet.LogicalNetwork
	Stations  []plcnet.ConnectedStation
	Neighbors []plcnet.NeighborAP
}

type MetricDescription struct {
	Key              string
	Name             string
	Icon             string
	StateClass       string
	EntityCategory   string
	EnabledByDefault bool
	Category         Category
	value            func(Snapshot) int
}

var metrics = []MetricDescription{
	{
		Key:              METRIC_CONNECTED_PLC_DEVICES,
		Name:             "Connected PLC devices",
		Icon:             "mdi:lan",
		EntityCategory:   domain.ENTITY_CLASS_DIAGNOSTIC,
		EnabledByDefault: false,
		Category:         CategoryLogicalNetwork,
		value: func(s Snapshot) int {
			return ConnectedPLCDevices(s.Network)
		},
	},
	{
		Key:              METRIC_CONNECTED_WIFI_CLIENTS,
		Name:             "Connected Wifi clients",
		Icon:             "mdi:wifi",
		StateClass:       domain.STATE_CLASS_MEASUREMENT,
		EnabledByDefault: true,
		Category:         CategoryConnectedStations,
		value: func(s Snapshot) int {
			return len(s.Stations)
		},
	},
	{
		Key:              METRIC_NEIGHBORING_WIFI_NETWORKS,
		Name:             "Neighboring Wifi networks",
		Icon:             "mdi:wifi-marker",
		EntityCategory:   domain.ENTITY_CLASS_DIAGNOSTIC,
		EnabledByDefault: false,
		Category:         CategoryNeighborAPs,
		value: func(s Snapshot) int {
			return len(s.Neighbors)
		},
	},
}

var metricsByKey map[string]MetricDescription

func init() {
	metricsByKey = make(map[string]MetricDescription, len(metrics))
	for _, m := range metrics {
		metricsByKey[m.Key] = m
	}
}

func Description(key string) (MetricDescription, bool) {
	m, ok := metricsByKey[key]
	return m, ok
}

func Value(key string, snap Snapshot) (int, error) {
	m, ok := metricsByKey[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, key)
	}
	return m.value(snap), nil
}

// ConnectedPLCDevices counts the distinct source addresses of the data rate records.
func ConnectedPLCDevices(network *plcnet.LogicalNetwork) int {
	if network == nil {
		return 0
	}
	seen := make(map[string]struct{}, len(network.DataRates))
	for _, rate := range network.DataRates {
		seen[rate.MacAddressFrom] = struct{}{}
	}
	return len(seen)
}

// SupportedMetrics returns the metrics the device can serve, in a stable order.
func SupportedMetrics(info *plcnet.DeviceInfo) []MetricDescription {
	var supported []MetricDescription
	for _, m := range metrics {
		switch m.Category {
		case CategoryLogicalNetwork:
			if !info.HasPLCNet {
				continue
			}
		case CategoryConnectedStations, CategoryNeighborAPs:
			if !info.HasFeature(plcnet.FEATURE_WIFI1) {
				continue
			}
		}
		supported = append(supported, m)
	}
	return supported
}

// SupportedCategories returns every category feeding at least one of the given metrics.
func SupportedCategories(descriptions []MetricDescription) []Category {
	var categories []Category
	seen := make(map[Category]bool)
	for _, m := range descriptions {
		if !seen[m.Category] {
			seen[m.Category] = true
			categories = append(categories, m.Category)
		}
	}
	return categories
}

func UniqueId(serial, key string) string {
	return fmt.Sprintf("%s_%s", serial, key)
}
