package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorWithStates drives a behavior with named states.
type ActorWithStates struct {
	Behavior actor.Behavior
	current  string
}

type ActorState interface {
	Name() string
	Receive(actor.Context)
}

func NewActorWithStates() ActorWithStates {
	return ActorWithStates{Behavior: actor.NewBehavior()}
}

func (s *ActorWithStates) Become(state ActorState) {
	s.current = state.Name()
	s.Behavior.Become(state.Receive)
}

// StateName is the name of the last state entered.
func (s *ActorWithStates) StateName() string {
	return s.current
}
