package actor

import (
	"fmt"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/statecache"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// StateCacheActor mirrors the event stream into a StateCache and serves it.
type StateCacheActor struct {
	cache        *statecache.StateCache
	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription
	logger       *zap.Logger
}

type cachedSensorUpdate struct {
	event any
}

func NewStateCacheActor(cache *statecache.StateCache, eventStream *eventstream.EventStream, logger *zap.Logger) *StateCacheActor {
	return &StateCacheActor{
		cache:       cache,
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_STATE_CACHE, logger),
	}
}

func (state *StateCacheActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("statecache@default started")
		self := ctx.Self()
		root := ctx.ActorSystem().Root
		state.subscription = state.eventStream.Subscribe(func(evt any) {
			if _, ok := evt.(domain.SensorUpdateEvent); ok {
				root.Send(self, cachedSensorUpdate{event: evt})
			}
		})
	case cachedSensorUpdate:
		state.cache.Apply(msg.event)
	case domain.GetSensorStatesRequest:
		state.logger.Debug("statecache@default GetSensorStatesRequest")
		actorutil.ForRequest(msg).Respond(ctx, domain.GetSensorStatesResponse{
			States: state.cache.States(),
		})
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_STATE_CACHE,
			Healthy: true,
			State:   fmt.Sprintf("%d sensors", state.cache.Len()),
		})
	case *actor.Stopping:
		state.unsubscribe()
	case *actor.Restarting:
		state.unsubscribe()
	}
}

func (state *StateCacheActor) unsubscribe() {
	if state.subscription != nil {
		state.eventStream.Unsubscribe(state.subscription)
		state.subscription = nil
	}
}
