package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/port"

	"go.etcd.io/bbolt"
)

const (
	sensorStateBucket = "sensor_state"
)

// BoltSensorStateStore persists sensor data keyed by entity unique id.
type BoltSensorStateStore struct {
	db *bbolt.DB
}

func NewBoltSensorStateStore(path string) (*BoltSensorStateStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(sensorStateBucket)); err != nil {
			return fmt.Errorf("failed to create sensor state bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltSensorStateStore{db: db}, nil
}

func (s *BoltSensorStateStore) LastSensorData(uniqueId string) (*domain.SensorData, error) {
	var data *domain.SensorData
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sensorStateBucket))
		if bucket == nil {
			return fmt.Errorf("sensor state bucket not found")
		}

		raw := bucket.Get([]byte(uniqueId))
		if raw == nil {
			return port.ErrSensorDataNotFound
		}

		var d domain.SensorData
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("failed to unmarshal sensor data: %w", err)
		}
		data = &d
		return nil
	})
	return data, err
}

func (s *BoltSensorStateStore) SaveSensorData(uniqueId string, data domain.SensorData) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sensorStateBucket))
		if bucket == nil {
			return fmt.Errorf("sensor state bucket not found")
		}

		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal sensor data: %w", err)
		}

		return bucket.Put([]byte(uniqueId), raw)
	})
}

func (s *BoltSensorStateStore) Close() error {
	return s.db.Close()
}

// MemorySensorStateStore keeps sensor data for the lifetime of the process.
type MemorySensorStateStore struct {
	mu   sync.RWMutex
	data map[string]domain.SensorData
}

func NewMemorySensorStateStore() *MemorySensorStateStore {
	return &MemorySensorStateStore{
		data: make(map[string]domain.SensorData),
	}
}

func (s *MemorySensorStateStore) LastSensorData(uniqueId string) (*domain.SensorData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[uniqueId]
	if !ok {
		return nil, port.ErrSensorDataNotFound
	}
	return &d, nil
}

func (s *MemorySensorStateStore) SaveSensorData(uniqueId string, data domain.SensorData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[uniqueId] = data
	return nil
}

// ensure interface compliance
var _ port.SensorStateStore = (*BoltSensorStateStore)(nil)
var _ port.SensorStateStore = (*MemorySensorStateStore)(nil)
