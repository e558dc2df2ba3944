package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"
	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type NetworkActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	reader   plcnet.Reader
	timeout  time.Duration
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewNetworkActor(reader plcnet.Reader, timeout time.Duration, logger *zap.Logger) *NetworkActor {
	act := &NetworkActor{
		reader:   reader,
		timeout:  timeout,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_NETWORK, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *NetworkActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *NetworkActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("network@starting started")
		err := state.reader.Open()
		if err != nil {
			state.logger.Error("network@starting could not open reader", zap.Error(err))
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.close()
	default:
		state.logger.Debug("network@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *NetworkActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("network@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_NETWORK,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetNetworkDeviceInfoRequest:
		state.logger.Debug("network@default: GetNetworkDeviceInfoRequest")
		readerTask(state, ctx, actorutil.ForRequest(msg).ReplyTo(ctx), state.getDeviceInfo, func(err error) domain.GetNetworkDeviceInfoResponse {
			return domain.GetNetworkDeviceInfoResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	case domain.GetLogicalNetworkRequest:
		state.logger.Debug("network@default: GetLogicalNetworkRequest")
		readerTask(state, ctx, actorutil.ForRequest(msg).ReplyTo(ctx), state.getLogicalNetwork, func(err error) domain.GetLogicalNetworkResponse {
			return domain.GetLogicalNetworkResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	case domain.GetConnectedStationsRequest:
		state.logger.Debug("network@default: GetConnectedStationsRequest")
		readerTask(state, ctx, actorutil.ForRequest(msg).ReplyTo(ctx), state.getConnectedStations, func(err error) domain.GetConnectedStationsResponse {
			return domain.GetConnectedStationsResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	case domain.GetNeighborAPsRequest:
		state.logger.Debug("network@default: GetNeighborAPsRequest")
		readerTask(state, ctx, actorutil.ForRequest(msg).ReplyTo(ctx), state.getNeighborAPs, func(err error) domain.GetNeighborAPsResponse {
			return domain.GetNeighborAPsResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	case *actor.Stopping:
		state.close()
	case *actor.Restarting:
		state.close()
	default:
		state.logger.Debug("network@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// WaitingReader serializes reader access: one request in flight at a time.
func (state *NetworkActor) WaitingReader(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("network@WaitingReader backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.close()
	case *actor.Restarting:
		state.close()
	default:
		state.logger.Debug("network@WaitingReader stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *NetworkActor) close() {
	if err := state.reader.Close(); err != nil {
		state.logger.Warn("network: close reader", zap.Error(err))
	}
}

func (state *NetworkActor) getDeviceInfo() (*domain.GetNetworkDeviceInfoResponse, error) {
	info, err := state.reader.GetInfo()
	if err != nil {
		state.logger.Error("network: get device info", zap.Error(err))
		return nil, err
	}
	return &domain.GetNetworkDeviceInfoResponse{
		Info: info,
	}, nil
}

func (state *NetworkActor) getLogicalNetwork() (*domain.GetLogicalNetworkResponse, error) {
	network, err := state.reader.GetLogicalNetwork()
	if err != nil {
		state.logger.Error("network: get logical network", zap.Error(err))
		return nil, err
	}
	return &domain.GetLogicalNetworkResponse{
		Network: network,
	}, nil
}

func (state *NetworkActor) getConnectedStations() (*domain.GetConnectedStationsResponse, error) {
	stations, err := state.reader.GetConnectedStations()
	if err != nil {
		state.logger.Error("network: get connected stations", zap.Error(err))
		return nil, err
	}
	return &domain.GetConnectedStationsResponse{
		Stations: stations,
	}, nil
}

func (state *NetworkActor) getNeighborAPs() (*domain.GetNeighborAPsResponse, error) {
	aps, err := state.reader.GetNeighborAPs()
	if err != nil {
		state.logger.Error("network: get neighbor aps", zap.Error(err))
		return nil, err
	}
	return &domain.GetNeighborAPsResponse{
		Neighbors: aps,
	}, nil
}

// readerTask runs fn with a timeout and pipes its response, or onError(err), back to replyTo.
func readerTask[T any](state *NetworkActor, ctx actor.Context, replyTo *actor.PID, fn func() (*T, error), onError func(error) T) {
	actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, fn),
		mapTaskResult[T](replyTo)).Recover(func(err error) backgroundTaskResult {
		return backgroundTaskResult{
			message: onError(err),
			replyTo: replyTo,
		}
	}).WithTimeout(state.timeout).PipeTo(ctx.Self())
	state.behavior.BecomeStacked(state.WaitingReader)
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
