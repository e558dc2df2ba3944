package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/events"
	"github.com/berfenger/laundrynet2mqtt/internal/core/network"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"
	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	HA_DISCOVERY_INFO_RETRY = 30 * time.Second
)

type HADiscoveryActor struct {
	config       *config.Config
	behavior     actor.Behavior
	stash        *actorutil.Stash
	scheduler    *scheduler.TimerScheduler
	networkActor *actor.PID
	mqttActor    *actor.PID
	healthy      map[string]bool
	healthyRecv  int
	infoRetry    time.Duration

	logger *zap.Logger
}

type networkInfoRetry struct {
}

// NewHADiscoveryActor builds the discovery of every device. networkActor is nil when
// network polling is disabled.
func NewHADiscoveryActor(config *config.Config, networkActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:       config,
		networkActor: networkActor,
		mqttActor:    mqttActor,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		infoRetry:    HA_DISCOVERY_INFO_RETRY,
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)

		// Check Network and MQTT actor healthy
		state.healthyRecv = 0
		state.healthy = map[string]bool{}
		state.requestHealth(ctx, state.mqttActor, domain.ACTOR_ID_MQTT)
		if state.networkActor != nil {
			state.requestHealth(ctx, state.networkActor, domain.ACTOR_ID_NETWORK)
		}
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		state.healthy[msg.Id] = msg.Healthy
		if state.healthyRecv < state.expectedHealthChecks() {
			return
		}

		for id, healthy := range state.healthy {
			if !healthy {
				panic(fmt.Errorf("%s actor is not healthy", id))
			}
		}

		if state.networkActor == nil {
			state.publishDiscovery(ctx, nil)
			return
		}
		state.requestNetworkInfo(ctx)
		state.behavior.Become(state.WaitingInfoReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetNetworkDeviceInfoResponse:
		if msg.HasResponseError() || msg.Info == nil {
			// publish what is known now, network sensors follow once the device answers
			state.logger.Error("hadiscovery@info GetNetworkDeviceInfoResponse", zap.Error(msg.GetResponseError()))
			ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
				Sensors: state.buildSensors(nil),
			})
			state.scheduler.RequestOnce(state.infoRetry, ctx.Self(), networkInfoRetry{})
			return
		}
		state.logger.Debug("hadiscovery@info GetNetworkDeviceInfoResponse", zap.Any("info", msg.Info))
		state.publishDiscovery(ctx, msg.Info)
	case networkInfoRetry:
		state.requestNetworkInfo(ctx)
	default:
		state.logger.Debug("hadiscovery@info: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) WaitingPublishReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.PublishDiscoveryResponse:
		if msg.HasResponseError() {
			state.logger.Error("hadiscovery@publish PublishDiscoveryResponse", zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Info("hadiscovery@publish discovery published")
		}
		state.behavior.Become(state.Done)
	default:
		state.logger.Debug("hadiscovery@publish: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) publishDiscovery(ctx actor.Context, info *plcnet.DeviceInfo) {
	ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
		ActorRequestMixIn: domain.ActorRequestMixIn{
			ReplyToRef: domain.RefOf(ctx.Self()),
		},
		Sensors: state.buildSensors(info),
	})
	state.behavior.Become(state.WaitingPublishReceive)
}

// buildSensors returns the sensors of the bridge, the network device when info is known,
// and every configured appliance.
func (state *HADiscoveryActor) buildSensors(info *plcnet.DeviceInfo) []domain.GenericSensor {
	var sensors []domain.GenericSensor

	bridgeDevice := events.BridgeDevice(state.config.MQTT.BaseTopic)
	sensors = append(sensors, events.BridgeSensors(bridgeDevice)...)

	if info != nil {
		networkDevice := events.NetworkDevice(info, state.config.Network.Title)
		networkDevice.ViaDevice = bridgeDevice.Id
		sensors = append(sensors, events.NetworkSensors(networkDevice, info.Serial, network.SupportedMetrics(info))...)
	}

	for _, a := range state.config.Appliances.Devices {
		applianceDevice := events.ApplianceDevice(a.SAID, a.Name)
		applianceDevice.ViaDevice = bridgeDevice.Id
		sensors = append(sensors, events.ApplianceSensors(applianceDevice, a.SAID)...)
	}

	return sensors
}

func (state *HADiscoveryActor) expectedHealthChecks() int {
	if state.networkActor != nil {
		return 2
	}
	return 1
}

func (state *HADiscoveryActor) requestHealth(ctx actor.Context, pid *actor.PID, id string) {
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
		return domain.ActorHealthResponse{
			Id:      id,
			Healthy: false,
		}
	})
}

func (state *HADiscoveryActor) requestNetworkInfo(ctx actor.Context) {
	timeout := time.Duration(state.config.Network.TimeoutMillis)*time.Millisecond + 2*time.Second
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.networkActor, domain.GetNetworkDeviceInfoRequest{}, timeout), func(err error) any {
		return domain.GetNetworkDeviceInfoResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}
