package actor

import (
	"sync"
	"testing"
	"time"

	adactor "github.com/berfenger/laundrynet2mqtt/internal/adapter/actor"
	"github.com/berfenger/laundrynet2mqtt/internal/adapter/store"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/port"
	"github.com/berfenger/laundrynet2mqtt/internal/statecache"
	"github.com/berfenger/laundrynet2mqtt/internal/util"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"
	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"
	"github.com/berfenger/laundrynet2mqtt/pkg/washerdryer"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testAppliances struct {
	mu      sync.Mutex
	clients map[string]*washerdryer.TestWasherDryer
}

func (a *testAppliances) provide(said string) port.WasherDryer {
	a.mu.Lock()
	defer a.mu.Unlock()
	wd := washerdryer.CreateTestWasherDryer(said)
	wd.SetOnline(true)
	wd.SetMachineState(washerdryer.MachineStateStandby)
	a.clients[said] = wd
	return wd
}

func (a *testAppliances) get(said string) *washerdryer.TestWasherDryer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clients[said]
}

func TestMasterActor(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	appliances := &testAppliances{clients: map[string]*washerdryer.TestWasherDryer{}}
	var mu sync.Mutex
	var mqttActor *adactor.MQTTActor

	providers := ActorProviders{
		MQTT: func(es *eventstream.EventStream) *adactor.MQTTActor {
			mu.Lock()
			defer mu.Unlock()
			mqttActor = adactor.NewTestMQTTActor(&cfg, es, logger)
			return mqttActor
		},
		Network: func() *adactor.NetworkActor {
			return adactor.NewNetworkActor(&plcnet.TestReader{}, time.Second, logger)
		},
		ApplianceClient: appliances.provide,
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, statecache.New(time.Hour), store.NewMemorySensorStateStore(), providers, logger)
	})
	pid, err := context.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		t.Error(err)
		return
	}

	var healthResp domain.ActorHealthResponse
	assert.Eventually(func() bool {
		res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
		if err != nil {
			return false
		}
		healthResp = res.(domain.ActorHealthResponse)
		return healthResp.Healthy
	}, 10*time.Second, 250*time.Millisecond)
	assert.Equal(domain.ACTOR_ID_MASTER, healthResp.Id)
	assert.Equal("healthy", healthResp.State)

	// discovery for bridge, network device and both appliances
	assert.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return mqttActor != nil && len(mqttActor.Discovered()) == 10
	}, 5*time.Second, 100*time.Millisecond)

	mu.Lock()
	mqtt := mqttActor
	mu.Unlock()

	// a push reaches MQTT and the state cache
	washer := appliances.get("WPR4TESTWASHER")
	washer.SetMachineState(washerdryer.MachineStateRunningMainCycle)
	washer.SetAttribute(washerdryer.ATTR_CYCLE_STATUS_SPINNING, washerdryer.ATTR_VALUE_TRUE)
	washer.SetAttribute(washerdryer.ATTR_TIME_REMAINING, "300")
	washer.Push()

	assert.Eventually(func() bool {
		res, err := context.RequestFuture(pid, domain.GetSensorStatesRequest{}, time.Second).Result()
		if err != nil {
			return false
		}
		for _, s := range res.(domain.GetSensorStatesResponse).States {
			if s.DeviceId == "WPR4TESTWASHER" && s.SensorId == "state" && s.Value == "Cycle Spinning" {
				return true
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)

	assert.Eventually(func() bool {
		for _, ev := range mqtt.Published() {
			if text, ok := ev.(domain.TextSensorUpdateEvent); ok && text.Value == "Cycle Spinning" {
				return true
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorUnhealthyAppliance(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	cfg.Network.Enable = false
	cfg.MQTT.HADiscoveryEnable = false
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	providers := ActorProviders{
		MQTT: func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		},
		ApplianceClient: func(said string) port.WasherDryer {
			wd := washerdryer.CreateTestWasherDryer(said)
			if said == "WPR4TESTDRYER" {
				wd.ConnectErr = washerdryer.ErrNotConnected
			}
			return wd
		},
	}

	pid := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, statecache.New(time.Hour), store.NewMemorySensorStateStore(), providers, logger)
	}))

	time.Sleep(1 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	assert.NoError(err)
	healthResp := res.(domain.ActorHealthResponse)
	assert.False(healthResp.Healthy)
	assert.Contains(healthResp.State, domain.ApplianceActorId("WPR4TESTDRYER"))
	assert.NotContains(healthResp.State, domain.ApplianceActorId("WPR4TESTWASHER"))

	context.Stop(pid)

	as.Shutdown()
}
