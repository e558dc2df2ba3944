package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltSensorStateStore(t *testing.T) {

	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewBoltSensorStateStore(path)
	require.NoError(t, err)

	_, err = s.LastSensorData("WPR1-timeremaining")
	assert.ErrorIs(err, port.ErrSensorDataNotFound)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err = s.SaveSensorData("WPR1-timeremaining", domain.SensorData{
		NativeValue: now.Format(time.RFC3339),
		UpdatedAt:   now,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// survives reopening
	s, err = NewBoltSensorStateStore(path)
	require.NoError(t, err)
	defer s.Close()

	data, err := s.LastSensorData("WPR1-timeremaining")
	require.NoError(t, err)
	assert.Equal("2024-05-01T10:00:00Z", data.NativeValue)
	assert.True(now.Equal(data.UpdatedAt))
}

func TestMemorySensorStateStore(t *testing.T) {

	assert := assert.New(t)

	s := NewMemorySensorStateStore()
	_, err := s.LastSensorData("lorem")
	assert.ErrorIs(err, port.ErrSensorDataNotFound)

	assert.NoError(s.SaveSensorData("lorem", domain.SensorData{NativeValue: "ipsum"}))
	data, err := s.LastSensorData("lorem")
	assert.NoError(err)
	assert.Equal("ipsum", data.NativeValue)
}
