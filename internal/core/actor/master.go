package actor

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	adactor "github.com/berfenger/laundrynet2mqtt/internal/adapter/actor"
	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/port"
	"github.com/berfenger/laundrynet2mqtt/internal/statecache"
	. "github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type NetworkActorProvider func() *adactor.NetworkActor

type ApplianceClientProvider func(said string) port.WasherDryer

type ActorProviders struct {
	MQTT            MQTTActorProvider
	Network         NetworkActorProvider
	ApplianceClient ApplianceClientProvider
}

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	stateCache         *statecache.StateCache
	store              port.SensorStateStore
	mqttActor          *actor.PID
	networkActor       *actor.PID
	stateCacheActor    *actor.PID
	children           []child
	providers          ActorProviders
	logger             *zap.Logger
}

type child struct {
	id  string
	pid *actor.PID
}

type healthCheckResult struct {
	ids            []string
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, stateCache *statecache.StateCache, store port.SensorStateStore,
	providers ActorProviders, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream: &eventstream.EventStream{},
		stateCache:  stateCache,
		store:       store,
		providers:   providers,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.children = nil
		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset(nil)

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID
		state.addChild(domain.ACTOR_ID_MQTT, mqttActorPID)

		// start state cache child
		stateCachePID, err := state.startStateCacheActor(ctx)
		if err != nil {
			panic(err)
		}
		state.stateCacheActor = stateCachePID
		state.addChild(domain.ACTOR_ID_STATE_CACHE, stateCachePID)

		// start Network and NetworkPoll children
		if state.networkEnabled() {
			networkActorPID, err := state.startNetworkActor(ctx)
			if err != nil {
				panic(err)
			}
			state.networkActor = networkActorPID
			state.addChild(domain.ACTOR_ID_NETWORK, networkActorPID)

			networkPollPID, err := state.startNetworkPollActor(ctx)
			if err != nil {
				panic(err)
			}
			state.addChild(domain.ACTOR_ID_NETWORK_POLL, networkPollPID)
		}

		// start one child per appliance
		for _, a := range state.config.Appliances.Devices {
			appliancePID, err := state.startApplianceActor(ctx, a)
			if err != nil {
				panic(err)
			}
			state.addChild(domain.ApplianceActorId(a.SAID), appliancePID)
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(state.childIds())
		state.currentHealthCheck.respondTo = ctx.Sender()
		for _, c := range state.children {
			id := c.id
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(c.pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.GetSensorStatesRequest:
		state.logger.Debug("master@default GetSensorStatesRequest")
		ctx.Forward(state.stateCacheActor)
	case *actor.Terminated:
		// without MQTT nothing can be published
		if msg.Who.Id == state.mqttActor.Id {
			state.logger.Error("master@default mqtt terminated")
			panic(errors.New("mqtt terminated"))
		}
		state.logger.Warn("master@default child terminated", zap.String("child", msg.Who.Id))
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthy[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()
			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) networkEnabled() bool {
	return state.config.Network.Enable && state.providers.Network != nil
}

func (state *MasterOfPuppetsActor) childIds() []string {
	ids := make([]string, len(state.children))
	for i, c := range state.children {
		ids[i] = c.id
	}
	return ids
}

func (state *MasterOfPuppetsActor) addChild(id string, pid *actor.PID) {
	state.children = append(state.children, child{id: id, pid: pid})
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.providers.MQTT(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
}

func (state *MasterOfPuppetsActor) startNetworkActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	networkProps := actor.PropsFromProducer(func() actor.Actor {
		return state.providers.Network()
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(networkProps, domain.ACTOR_ID_NETWORK)
}

func (state *MasterOfPuppetsActor) startNetworkPollActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	pollProps := actor.PropsFromProducer(func() actor.Actor {
		return NewNetworkPollActor(&state.config, state.networkActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(pollProps, domain.ACTOR_ID_NETWORK_POLL)
}

func (state *MasterOfPuppetsActor) startApplianceActor(ctx actor.Context, cfg config.ApplianceConfig) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	client := state.providers.ApplianceClient(cfg.SAID)
	applianceProps := actor.PropsFromProducer(func() actor.Actor {
		return NewApplianceActor(cfg, client, state.store, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(applianceProps, domain.ApplianceActorId(cfg.SAID))
}

func (state *MasterOfPuppetsActor) startStateCacheActor(ctx actor.Context) (*actor.PID, error) {
	stateCacheProps := actor.PropsFromProducer(func() actor.Actor {
		return NewStateCacheActor(state.stateCache, state.eventStream, state.logger)
	})
	return ctx.SpawnNamed(stateCacheProps, domain.ACTOR_ID_STATE_CACHE)
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.networkActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
}

func (state *healthCheckResult) reset(ids []string) {
	state.ids = ids
	state.healthy = make(map[string]bool, len(ids))
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= len(state.ids)
}

func (state *healthCheckResult) allHealthy() bool {
	return len(state.unhealthyIds()) == 0
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   "healthy",
	}
	if !resp.Healthy {
		resp.State = fmt.Sprintf("unhealthy: %s", strings.Join(state.unhealthyIds(), ","))
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}

func (state *healthCheckResult) unhealthyIds() []string {
	var ids []string
	for _, id := range state.ids {
		if !state.healthy[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
