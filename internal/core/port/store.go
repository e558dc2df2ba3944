package port

import (
	"errors"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
)

var ErrSensorDataNotFound = errors.New("no stored sensor data")

// SensorStateStore keeps the last value of sensors that survive restarts.
type SensorStateStore interface {
	LastSensorData(uniqueId string) (*domain.SensorData, error)
	SaveSensorData(uniqueId string, data domain.SensorData) error
}
