package actor

import (
	"testing"
	"time"

	adactor "github.com/berfenger/laundrynet2mqtt/internal/adapter/actor"
	"github.com/berfenger/laundrynet2mqtt/internal/adapter/store"
	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/appliance"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/network"
	"github.com/berfenger/laundrynet2mqtt/internal/util"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"
	"github.com/berfenger/laundrynet2mqtt/internal/util/mqtttest"
	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"
	"github.com/berfenger/laundrynet2mqtt/pkg/washerdryer"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func publishedText(events []domain.SensorUpdateEvent, deviceId, id string) (string, bool) {
	for _, evt := range events {
		if ev, ok := evt.(domain.TextSensorUpdateEvent); ok && ev.DeviceId == deviceId && ev.Id == id {
			return ev.Value, true
		}
	}
	return "", false
}

func TestApplianceRepublishesWhenPublisherReady(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	es := &eventstream.EventStream{}

	restored := time.Date(2024, 4, 30, 21, 15, 0, 0, time.UTC)
	st := store.NewMemorySensorStateStore()
	require.NoError(t, st.SaveSensorData(appliance.UniqueId(testSAID, appliance.SENSOR_KEY_END_TIME), domain.SensorData{
		NativeValue: restored.Format(time.RFC3339),
		UpdatedAt:   restored,
	}))

	wd := washerdryer.CreateTestWasherDryer(testSAID)
	wd.SetOnline(true)
	wd.SetMachineState(washerdryer.MachineStateComplete)

	appliancePID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewApplianceActor(config.ApplianceConfig{SAID: testSAID, Name: "washer"}, wd, st, es, logger)
	}))
	assert.Eventually(func() bool {
		return wd.CallbackCount() == 1
	}, 2*time.Second, 50*time.Millisecond)

	// the publisher subscribes after the appliance published its first state
	mqttActor := adactor.NewTestMQTTActor(&cfg, es, logger)
	mqttPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor { return mqttActor }))

	assert.Eventually(func() bool {
		state, ok := publishedText(mqttActor.Published(), testSAID, appliance.SENSOR_KEY_STATE)
		return ok && state == "Complete"
	}, 2*time.Second, 50*time.Millisecond)

	var endTime *time.Time
	for _, evt := range mqttActor.Published() {
		if ev, ok := evt.(domain.TimestampSensorUpdateEvent); ok && ev.Id == appliance.SENSOR_KEY_END_TIME {
			endTime = ev.Value
		}
	}
	if assert.NotNil(endTime, "restored end time published") {
		assert.True(endTime.Equal(restored))
	}

	context.Stop(mqttPID)
	context.Stop(appliancePID)
	time.Sleep(200 * time.Millisecond)
	as.Shutdown()
}

func TestNetworkPollRepublishesWhenPublisherReady(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	cfg.Network.PollIntervalMillis = 600000
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	es := &eventstream.EventStream{}
	recorder := recordEvents(es)

	networkPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewNetworkActor(&plcnet.TestReader{}, time.Second, logger)
	}))
	pollPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewNetworkPollActor(&cfg, networkPID, es, logger)
	}))

	assert.Eventually(func() bool {
		_, ok := recorder.lastInt(testNetworkDeviceId, network.METRIC_NEIGHBORING_WIFI_NETWORKS)
		return ok
	}, 3*time.Second, 50*time.Millisecond)

	// no new poll before the interval, the values come from the last one
	mqttActor := adactor.NewTestMQTTActor(&cfg, es, logger)
	mqttPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor { return mqttActor }))

	assert.Eventually(func() bool {
		for _, evt := range mqttActor.Published() {
			if ev, ok := evt.(domain.IntSensorUpdateEvent); ok && ev.Id == network.METRIC_CONNECTED_PLC_DEVICES {
				return ev.Value == 3
			}
		}
		return false
	}, 2*time.Second, 50*time.Millisecond)

	context.Stop(mqttPID)
	context.Stop(pollPID)
	context.Stop(networkPID)
	time.Sleep(200 * time.Millisecond)
	as.Shutdown()
}

func TestApplianceStateReachesBrokerWhenMQTTStartsLater(t *testing.T) {

	assert := assert.New(t)

	broker := mqtttest.StartBroker(t)

	cfg := util.LoadTestConfig()
	cfg.MQTT.Host = broker.Host()
	cfg.MQTT.Port = broker.Port()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	es := &eventstream.EventStream{}

	wd := washerdryer.CreateTestWasherDryer(testSAID)
	wd.SetOnline(true)
	wd.SetMachineState(washerdryer.MachineStateComplete)

	appliancePID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewApplianceActor(config.ApplianceConfig{SAID: testSAID, Name: "washer"}, wd, store.NewMemorySensorStateStore(), es, logger)
	}))
	assert.Eventually(func() bool {
		return wd.CallbackCount() == 1
	}, 2*time.Second, 50*time.Millisecond)

	ha := broker.Client()
	state := broker.Subscribe(ha, "laundrynet/sensor/"+testSAID+"/state/state")
	availability := broker.Subscribe(ha, "laundrynet/sensor/"+testSAID+"/state/availability")

	mqttPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewMQTTActor(&cfg, es, logger)
	}))

	assert.Eventually(func() bool {
		return state.Payload() == "Complete" && availability.Payload() == domain.STATE_ONLINE
	}, 5*time.Second, 50*time.Millisecond)

	context.Stop(mqttPID)
	context.Stop(appliancePID)
	time.Sleep(500 * time.Millisecond)
	as.Shutdown()
}
