package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/appliance"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/events"
	"github.com/berfenger/laundrynet2mqtt/internal/core/port"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"
	"github.com/berfenger/laundrynet2mqtt/pkg/washerdryer"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const (
	APPLIANCE_CONNECT_TIMEOUT = 10 * time.Second
)

// ApplianceActor hosts the sensors of one washer/dryer. Every client push is
// turned into an attrsUpdated message so updates are applied one at a time.
type ApplianceActor struct {
	actorutil.ActorWithStates
	config      config.ApplianceConfig
	stash       *actorutil.Stash
	client      port.WasherDryer
	store       port.SensorStateStore
	eventStream *eventstream.EventStream
	readySub    *eventstream.Subscription

	deviceId       string
	tracker        appliance.EndTimeTracker
	callbackId     washerdryer.CallbackId
	registered     bool
	connectTimeout time.Duration
	now            func() time.Time

	logger *zap.Logger
}

type applianceConnected struct {
	Error error
}

type attrsUpdated struct {
}

func NewApplianceActor(cfg config.ApplianceConfig, client port.WasherDryer, store port.SensorStateStore,
	eventStream *eventstream.EventStream, logger *zap.Logger) *ApplianceActor {
	act := &ApplianceActor{
		ActorWithStates: actorutil.NewActorWithStates(),
		config:          cfg,
		stash:           &actorutil.Stash{},
		client:          client,
		store:           store,
		eventStream:     eventStream,
		deviceId:        events.DeviceIdOf(cfg.SAID),
		connectTimeout:  APPLIANCE_CONNECT_TIMEOUT,
		now:             time.Now,
		logger:          actorutil.ActorLogger(domain.ApplianceActorId(cfg.SAID), logger),
	}
	act.Become(applianceConnectingState{actor: act})
	return act
}

func (state *ApplianceActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Connecting state

type applianceConnectingState struct {
	actor *ApplianceActor
}

func (state applianceConnectingState) Name() string {
	return "connecting"
}

func (state applianceConnectingState) Receive(ctx actor.Context) {
	act := state.actor
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		act.logger.Debug("appliance@connecting started")
		act.subscribePublisherReady(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTaskErr(ctx, act.connect), func(_ *any) *applianceConnected {
			return &applianceConnected{}
		}).Recover(func(err error) applianceConnected {
			return applianceConnected{Error: err}
		}).WithTimeout(act.connectTimeout).PipeTo(ctx.Self())
	case applianceConnected:
		if msg.Error != nil {
			// let the supervisor restart the actor
			act.logger.Error("appliance@connecting could not connect", zap.Error(msg.Error))
			panic(msg.Error)
		}
		act.logger.Info("appliance@connecting connected")

		act.restoreEndTime()

		self := ctx.Self()
		root := ctx.ActorSystem().Root
		act.callbackId = act.client.RegisterAttrCallback(func() {
			root.Send(self, attrsUpdated{})
		})
		act.registered = true

		act.publishState()
		act.publishEndTime()

		act.Become(applianceConnectedState{actor: act})
		act.stash.UnstashAll(ctx)
	case domain.PublisherReadyEvent:
		// the state is published once connected
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ApplianceActorId(act.config.SAID),
			Healthy: false,
			State:   state.Name(),
		})
	case *actor.Stopping:
		act.stop()
	case *actor.Restarting:
		act.stop()
	default:
		act.logger.Debug("appliance@connecting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		act.stash.Stash(ctx, msg)
	}
}

// Connected state

type applianceConnectedState struct {
	actor *ApplianceActor
}

func (state applianceConnectedState) Name() string {
	return "connected"
}

func (state applianceConnectedState) Receive(ctx actor.Context) {
	act := state.actor
	switch msg := ctx.Message().(type) {
	case attrsUpdated:
		act.logger.Debug("appliance@connected attrsUpdated")
		act.publishState()
		act.updateEndTime()
	case domain.PublisherReadyEvent:
		act.logger.Debug("appliance@connected PublisherReadyEvent")
		act.publishState()
		act.publishEndTime()
	case domain.ActorHealthRequest:
		act.logger.Debug("appliance@connected: ActorHealthRequest")
		status := "offline"
		if act.client.GetOnline() {
			status = "online"
		}
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ApplianceActorId(act.config.SAID),
			Healthy: true,
			State:   status,
		})
	case *actor.Stopping:
		act.stop()
	case *actor.Restarting:
		act.stop()
	default:
		act.logger.Debug("appliance@connected unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ApplianceActor) subscribePublisherReady(ctx actor.Context) {
	if state.readySub != nil {
		return
	}
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	state.readySub = state.eventStream.Subscribe(func(evt any) {
		if ev, ok := evt.(domain.PublisherReadyEvent); ok {
			root.Send(self, ev)
		}
	})
}

func (state *ApplianceActor) connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), state.connectTimeout)
	defer cancel()
	return state.client.Connect(ctx)
}

// publishState publishes the status, the fill level and the availability of every sensor.
func (state *ApplianceActor) publishState() {
	state.eventStream.Publish(events.TextUpdateEvent(state.deviceId, appliance.SENSOR_KEY_STATE, appliance.WasherState(state.client)))

	level, err := appliance.DispenseLevel(state.client)
	if err != nil {
		// keep the last published level
		state.logger.Warn("appliance@connected dispense level", zap.Error(err))
	} else {
		state.eventStream.Publish(events.TextUpdateEvent(state.deviceId, appliance.SENSOR_KEY_DISPENSE_LEVEL, level))
	}

	actorutil.PublishAll(state.eventStream, events.AvailabilityUpdateEvents(state.deviceId, []string{
		appliance.SENSOR_KEY_STATE,
		appliance.SENSOR_KEY_DISPENSE_LEVEL,
		appliance.SENSOR_KEY_END_TIME,
	}, state.client.GetOnline()))
}

func (state *ApplianceActor) updateEndTime() {
	now := state.now()
	changed, err := state.tracker.Update(state.client.GetMachineState(),
		state.client.GetAttribute(washerdryer.ATTR_TIME_REMAINING), now)
	if err != nil {
		state.logger.Warn("appliance@connected end time", zap.Error(err))
	}
	if !changed {
		return
	}

	state.publishEndTime()

	value := state.tracker.Value()
	err = state.store.SaveSensorData(appliance.UniqueId(state.config.SAID, appliance.SENSOR_KEY_END_TIME), domain.SensorData{
		NativeValue: value.UTC().Format(time.RFC3339),
		UpdatedAt:   now,
	})
	if err != nil {
		state.logger.Error("appliance@connected could not save end time", zap.Error(err))
	}
}

func (state *ApplianceActor) publishEndTime() {
	state.eventStream.Publish(events.TimestampUpdateEvent(state.deviceId, appliance.SENSOR_KEY_END_TIME, state.tracker.Value()))
}

func (state *ApplianceActor) restoreEndTime() {
	data, err := state.store.LastSensorData(appliance.UniqueId(state.config.SAID, appliance.SENSOR_KEY_END_TIME))
	if errors.Is(err, port.ErrSensorDataNotFound) {
		return
	}
	if err != nil {
		state.logger.Warn("appliance@connecting could not load end time", zap.Error(err))
		return
	}
	value, err := time.Parse(time.RFC3339, data.NativeValue)
	if err != nil {
		state.logger.Warn("appliance@connecting stored end time", zap.String("value", data.NativeValue), zap.Error(err))
		return
	}
	state.tracker.Restore(value)
}

func (state *ApplianceActor) stop() {
	if state.readySub != nil {
		state.eventStream.Unsubscribe(state.readySub)
		state.readySub = nil
	}
	if state.registered {
		state.client.UnregisterAttrCallback(state.callbackId)
		state.registered = false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := state.client.Disconnect(ctx); err != nil {
		state.logger.Warn("appliance: disconnect", zap.Error(err))
	}
}
