package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/core/events"
	"github.com/berfenger/laundrynet2mqtt/internal/core/network"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// NetworkPollActor refreshes the network device metrics every poll interval.
type NetworkPollActor struct {
	behavior  actor.Behavior
	stash     *actorutil.Stash
	scheduler *scheduler.TimerScheduler

	networkActor *actor.PID
	config       *config.Config
	eventStream  *eventstream.EventStream
	readySub     *eventstream.Subscription

	deviceId   string
	metrics    []network.MetricDescription
	categories []network.Category
	snapshot   network.Snapshot
	polled     map[network.Category]bool
	pending    int

	logger *zap.Logger
}

type networkPollTick struct {
}

func NewNetworkPollActor(config *config.Config, networkActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *NetworkPollActor {
	act := &NetworkPollActor{
		config:       config,
		networkActor: networkActor,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		eventStream:  eventStream,
		polled:       make(map[network.Category]bool),
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_NETWORK_POLL, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *NetworkPollActor) Receive(context actor.Context) {
	switch context.Message().(type) {
	case *actor.Stopping, *actor.Restarting:
		state.unsubscribe()
	}
	state.behavior.Receive(context)
}

func (state *NetworkPollActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("networkpoll@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.subscribePublisherReady(ctx)
		state.requestDeviceInfo(ctx)
		state.behavior.Become(state.WaitingInfoReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("networkpoll@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *NetworkPollActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetNetworkDeviceInfoResponse:
		if msg.HasResponseError() || msg.Info == nil {
			// device unreachable, try again on next tick
			state.logger.Error("networkpoll@waitingInfo GetNetworkDeviceInfoResponse", zap.Error(msg.GetResponseError()))
			state.scheduleTick(ctx)
			return
		}
		state.logger.Debug("networkpoll@waitingInfo GetNetworkDeviceInfoResponse", zap.String("serial", msg.Info.Serial))
		state.deviceId = events.DeviceIdOf(msg.Info.Serial)
		state.metrics = network.SupportedMetrics(msg.Info)
		state.categories = network.SupportedCategories(state.metrics)
		if len(state.categories) == 0 {
			state.logger.Warn("networkpoll@waitingInfo device reports no supported metrics")
		} else {
			ctx.Send(ctx.Self(), networkPollTick{})
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case networkPollTick:
		state.requestDeviceInfo(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_NETWORK_POLL,
			Healthy: false,
			State:   "waiting_info",
		})
	default:
		state.logger.Debug("networkpoll@waitingInfo: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *NetworkPollActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("networkpoll@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_NETWORK_POLL,
			Healthy: true,
			State:   "idle",
		})
	case networkPollTick:
		state.logger.Debug("networkpoll@default tick")
		state.pending = 0
		for _, c := range state.categories {
			state.requestCategory(ctx, c)
			state.pending++
		}
		state.scheduleTick(ctx)
		state.behavior.BecomeStacked(state.WaitingPollReceive)
	case domain.PublisherReadyEvent:
		state.logger.Debug("networkpoll@default PublisherReadyEvent")
		for _, c := range state.categories {
			state.publishCategory(c)
		}
	case domain.GetLogicalNetworkResponse, domain.GetConnectedStationsResponse, domain.GetNeighborAPsResponse:
		// answer of an expired poll
		state.logger.Debug("networkpoll@default late response", zap.String("type", fmt.Sprintf("%T", msg)))
	default:
		state.logger.Debug("networkpoll@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *NetworkPollActor) WaitingPollReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetLogicalNetworkResponse:
		if !msg.HasResponseError() {
			state.snapshot.Network = msg.Network
		}
		state.categoryDone(ctx, network.CategoryLogicalNetwork, msg.GetResponseError())
	case domain.GetConnectedStationsResponse:
		if !msg.HasResponseError() {
			state.snapshot.Stations = msg.Stations
		}
		state.categoryDone(ctx, network.CategoryConnectedStations, msg.GetResponseError())
	case domain.GetNeighborAPsResponse:
		if !msg.HasResponseError() {
			state.snapshot.Neighbors = msg.Neighbors
		}
		state.categoryDone(ctx, network.CategoryNeighborAPs, msg.GetResponseError())
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_NETWORK_POLL,
			Healthy: true,
			State:   "polling",
		})
	default:
		state.logger.Debug("networkpoll@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// categoryDone records the result of a category poll and publishes it.
func (state *NetworkPollActor) categoryDone(ctx actor.Context, category network.Category, err error) {
	if err != nil {
		state.logger.Warn("networkpoll@waiting update failed", zap.String("category", network.CategoryToString(category)), zap.Error(err))
	}
	state.polled[category] = err == nil
	state.publishCategory(category)

	state.pending--
	if state.pending <= 0 {
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	}
}

// publishCategory publishes the metrics of the last poll of a category, or marks them
// unavailable if it failed. Categories not polled yet publish nothing.
func (state *NetworkPollActor) publishCategory(category network.Category) {
	ok, polled := state.polled[category]
	if !polled {
		return
	}
	if !ok {
		actorutil.PublishAll(state.eventStream, events.NetworkAvailabilityUpdateEvents(state.deviceId, state.metrics, category, false))
		return
	}
	evs, err := events.NetworkMetricUpdateEvents(state.deviceId, state.snapshot, state.metrics, category)
	if err != nil {
		state.logger.Error("networkpoll@waiting metric error", zap.Error(err))
		return
	}
	actorutil.PublishAll(state.eventStream, evs)
	actorutil.PublishAll(state.eventStream, events.NetworkAvailabilityUpdateEvents(state.deviceId, state.metrics, category, true))
}

func (state *NetworkPollActor) subscribePublisherReady(ctx actor.Context) {
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

func (state *NetworkPollActor) unsubscribe() {
	if state.readySub != nil {
		state.eventStream.Unsubscribe(state.readySub)
		state.readySub = nil
	}
}

func (state *NetworkPollActor) requestDeviceInfo(ctx actor.Context) {
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.networkActor, domain.GetNetworkDeviceInfoRequest{}, state.requestTimeout()), func(err error) any {
		return domain.GetNetworkDeviceInfoResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}

func (state *NetworkPollActor) requestCategory(ctx actor.Context, category network.Category) {
	errResponse := func(err error) domain.ActorResponseMixIn {
		return domain.ActorResponseMixIn{ResponseError: err}
	}
	switch category {
	case network.CategoryLogicalNetwork:
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.networkActor, domain.GetLogicalNetworkRequest{}, state.requestTimeout()), func(err error) any {
			return domain.GetLogicalNetworkResponse{ActorResponseMixIn: errResponse(err)}
		})
	case network.CategoryConnectedStations:
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.networkActor, domain.GetConnectedStationsRequest{}, state.requestTimeout()), func(err error) any {
			return domain.GetConnectedStationsResponse{ActorResponseMixIn: errResponse(err)}
		})
	case network.CategoryNeighborAPs:
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.networkActor, domain.GetNeighborAPsRequest{}, state.requestTimeout()), func(err error) any {
			return domain.GetNeighborAPsResponse{ActorResponseMixIn: errResponse(err)}
		})
	}
}

func (state *NetworkPollActor) scheduleTick(ctx actor.Context) {
	state.scheduler.RequestOnce(time.Duration(state.config.Network.PollIntervalMillis)*time.Millisecond, ctx.Self(), networkPollTick{})
}

// requestTimeout leaves room for every category request queued ahead in the network actor.
func (state *NetworkPollActor) requestTimeout() time.Duration {
	return time.Duration(len(state.categories)+1) * (time.Duration(state.config.Network.TimeoutMillis)*time.Millisecond + 500*time.Millisecond)
}
