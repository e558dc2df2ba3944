package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorRef is the address a response is sent to.
type ActorRef actor.PID

func RefOf(pid *actor.PID) *ActorRef {
	return (*ActorRef)(pid)
}

func (r *ActorRef) PID() *actor.PID {
	return (*actor.PID)(r)
}

// ActorRequest is implemented by every request message.
// A nil ReplyTo means the response goes to the sender.
type ActorRequest interface {
	ReplyTo() *ActorRef
}

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

// ActorResponse is implemented by every response message.
type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

// ensure interface compliance
var _ ActorRequest = ActorRequestMixIn{}
var _ ActorResponse = ActorResponseMixIn{}
