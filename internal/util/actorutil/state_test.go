package actorutil

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type namedState struct {
	name  string
	owner *switchingActor
}

func (s namedState) Name() string {
	return s.name
}

func (s namedState) Receive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case string:
		ctx.Respond(s.owner.StateName())
		if s.name == "first" {
			s.owner.Become(namedState{name: "second", owner: s.owner})
		}
	}
}

type switchingActor struct {
	ActorWithStates
}

func (a *switchingActor) Receive(ctx actor.Context) {
	a.Behavior.Receive(ctx)
}

func TestActorWithStates(t *testing.T) {

	as := NewActorSystemWithZapLogger(zap.Must(zap.NewDevelopment()))
	defer as.Shutdown()

	act := &switchingActor{ActorWithStates: NewActorWithStates()}
	act.Become(namedState{name: "first", owner: act})
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return act }))

	res, err := as.Root.RequestFuture(pid, "state", time.Second).Result()
	assert.NoError(t, err)
	assert.Equal(t, "first", res)

	res, err = as.Root.RequestFuture(pid, "state", time.Second).Result()
	assert.NoError(t, err)
	assert.Equal(t, "second", res)
}
