package actor

import (
	"testing"
	"time"

	adactor "github.com/berfenger/laundrynet2mqtt/internal/adapter/actor"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/util"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"
	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHADiscoveryActor(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	mqttActor := adactor.NewTestMQTTActor(&cfg, &eventstream.EventStream{}, logger)
	mqttPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor { return mqttActor }))
	networkPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewNetworkActor(&plcnet.TestReader{}, time.Second, logger)
	}))
	discPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, networkPID, mqttPID, logger)
	}))

	// bridge + 3 network metrics + 3 sensors per appliance
	assert.Eventually(func() bool {
		return len(mqttActor.Discovered()) == 10
	}, 3*time.Second, 50*time.Millisecond)

	sensors := mqttActor.Discovered()
	bridge := sensors[0]
	assert.Equal(domain.SENSOR_ID_BRIDGE_STATE, bridge.Id)
	assert.False(bridge.Availability)

	assert.Equal("Office adapter", sensors[1].Device.Name, "configured title")
	assert.Equal(bridge.Device.Id, sensors[1].Device.ViaDevice)
	assert.Equal("1234567890123456_connected_plc_devices", sensors[1].UniqueId)

	dryer := sensors[7]
	assert.Equal("Dryer", dryer.Device.Name)
	assert.Equal("mdi:tumble-dryer", dryer.Icon)
	assert.Equal("WPR4TESTDRYER-state", dryer.UniqueId)
	assert.Equal(bridge.Device.Id, dryer.Device.ViaDevice)
	assert.Equal(domain.DEVICE_CLASS_TIMESTAMP, sensors[9].DeviceClass)

	context.Stop(discPID)
	context.Stop(networkPID)
	context.Stop(mqttPID)
	as.Shutdown()
}

func TestHADiscoveryActorWithoutNetwork(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.Network.Enable = false
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	mqttActor := adactor.NewTestMQTTActor(&cfg, &eventstream.EventStream{}, logger)
	mqttPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor { return mqttActor }))
	discPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, nil, mqttPID, logger)
	}))

	assert.Eventually(t, func() bool {
		return len(mqttActor.Discovered()) == 7
	}, 3*time.Second, 50*time.Millisecond)

	context.Stop(discPID)
	context.Stop(mqttPID)
	as.Shutdown()
}
