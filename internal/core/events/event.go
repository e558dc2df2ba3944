package events

import (
	"time"

	. "github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/network"
)

// NetworkMetricUpdateEvents maps the metrics fed by category to update events.
func NetworkMetricUpdateEvents(deviceId string, snap network.Snapshot, metrics []network.MetricDescription,
	category network.Category) ([]any, error) {
	var events []any
	for _, m := range metrics {
		if m.Category != category {
			continue
		}
		value, err := network.Value(m.Key, snap)
		if err != nil {
			return nil, err
		}
		events = append(events, IntSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				DeviceId: deviceId,
				Id:       m.Key,
			},
			Value: value,
		})
	}
	return events, nil
}

// NetworkAvailabilityUpdateEvents marks the metrics fed by category as (un)available.
func NetworkAvailabilityUpdateEvents(deviceId string, metrics []network.MetricDescription,
	category network.Category, available bool) []any {
	var ids []string
	for _, m := range metrics {
		if m.Category == category {
			ids = append(ids, m.Key)
		}
	}
	return AvailabilityUpdateEvents(deviceId, ids, available)
}

func AvailabilityUpdateEvents(deviceId string, sensorIds []string, available bool) []any {
	var events []any
	for _, id := range sensorIds {
		events = append(events, AvailabilityUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				DeviceId: deviceId,
				Id:       id,
			},
			Value: available,
		})
	}
	return events
}

func TextUpdateEvent(deviceId, sensorId, value string) any {
	return TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			DeviceId: deviceId,
			Id:       sensorId,
		},
		Value: value,
	}
}

func TimestampUpdateEvent(deviceId, sensorId string, value *time.Time) any {
	return TimestampSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			DeviceId: deviceId,
			Id:       sensorId,
		},
		Value: value,
	}
}

func BridgeStateEvent(value bool) any {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: value,
	}
}
