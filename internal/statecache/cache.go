package statecache

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"

	gocache "github.com/patrickmn/go-cache"
)

const (
	CLEANUP_INTERVAL = 10 * time.Minute
)

// StateCache keeps the last published value of every sensor.
// Entries not refreshed within the ttl are dropped.
type StateCache struct {
	cache *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func New(ttl time.Duration) *StateCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &StateCache{
		cache: gocache.New(ttl, CLEANUP_INTERVAL),
		ttl:   ttl,
		now:   time.Now,
	}
}

func Key(deviceId, sensorId string) string {
	return fmt.Sprintf("%s/%s", deviceId, sensorId)
}

// Apply records a sensor update event. It reports false for events it does not track.
func (c *StateCache) Apply(event any) bool {
	switch ev := event.(type) {
	case domain.IntSensorUpdateEvent:
		c.setValue(ev.SensorUpdateEventMixIn, strconv.Itoa(ev.Value))
	case domain.TextSensorUpdateEvent:
		c.setValue(ev.SensorUpdateEventMixIn, ev.Value)
	case domain.TimestampSensorUpdateEvent:
		value := domain.STATE_NONE
		if ev.Value != nil {
			value = ev.Value.UTC().Format(time.RFC3339)
		}
		c.setValue(ev.SensorUpdateEventMixIn, value)
	case domain.AvailabilityUpdateEvent:
		c.setAvailable(ev.SensorUpdateEventMixIn, ev.Value)
	case domain.BridgeStateUpdateEvent:
		value := domain.STATE_OFFLINE
		if ev.Value {
			value = domain.STATE_ONLINE
		}
		c.setValue(ev.SensorUpdateEventMixIn, value)
		c.setAvailable(ev.SensorUpdateEventMixIn, ev.Value)
	default:
		return false
	}
	return true
}

func (c *StateCache) Get(deviceId, sensorId string) (domain.SensorState, bool) {
	obj, ok := c.cache.Get(Key(deviceId, sensorId))
	if !ok {
		return domain.SensorState{}, false
	}
	return obj.(domain.SensorState), true
}

// States returns the cached states ordered by device and sensor.
func (c *StateCache) States() []domain.SensorState {
	items := c.cache.Items()
	states := make([]domain.SensorState, 0, len(items))
	for _, item := range items {
		states = append(states, item.Object.(domain.SensorState))
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].DeviceId != states[j].DeviceId {
			return states[i].DeviceId < states[j].DeviceId
		}
		return states[i].SensorId < states[j].SensorId
	})
	return states
}

func (c *StateCache) Len() int {
	return c.cache.ItemCount()
}

func (c *StateCache) setValue(ev domain.SensorUpdateEventMixIn, value string) {
	s := c.entry(ev)
	s.Value = value
	s.UpdatedAt = c.now()
	c.cache.Set(Key(ev.DeviceId, ev.Id), s, gocache.DefaultExpiration)
}

func (c *StateCache) setAvailable(ev domain.SensorUpdateEventMixIn, available bool) {
	s := c.entry(ev)
	s.Available = available
	c.cache.Set(Key(ev.DeviceId, ev.Id), s, gocache.DefaultExpiration)
}

// entry returns the cached state or a new available one.
func (c *StateCache) entry(ev domain.SensorUpdateEventMixIn) domain.SensorState {
	if s, ok := c.Get(ev.DeviceId, ev.Id); ok {
		return s
	}
	return domain.SensorState{
		DeviceId:  ev.DeviceId,
		SensorId:  ev.Id,
		Available: true,
	}
}
