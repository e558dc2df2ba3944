package actorutil

import (
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
)

// ExtendedRequest resolves where the response of a request goes: the explicit
// ReplyToRef when set, the sender otherwise.
type ExtendedRequest interface {
	Respond(ctx actor.Context, resp domain.ActorResponse)
	ReplyTo(ctx actor.Context) *actor.PID
}

type request struct {
	domain.ActorRequest
}

func ForRequest(r domain.ActorRequest) ExtendedRequest {
	return request{r}
}

func (r request) Respond(ctx actor.Context, resp domain.ActorResponse) {
	if ref := r.ActorRequest.ReplyTo(); ref != nil {
		ctx.Send(ref.PID(), resp)
		return
	}
	ctx.Respond(resp)
}

func (r request) ReplyTo(ctx actor.Context) *actor.PID {
	if ref := r.ActorRequest.ReplyTo(); ref != nil {
		return ref.PID()
	}
	return ctx.Sender()
}
