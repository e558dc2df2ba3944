package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

// Stash defers messages an actor cannot handle in its current behavior.
// Replayed messages keep their original sender so responses reach the requester.
type Stash struct {
	pending []stashed
}

type stashed struct {
	msg    any
	sender *actor.PID
}

func (s *Stash) Stash(ctx actor.Context, msg any) {
	s.pending = append(s.pending, stashed{msg: msg, sender: ctx.Sender()})
}

// UnstashAll replays every stashed message in arrival order.
func (s *Stash) UnstashAll(ctx actor.Context) {
	pending := s.pending
	s.pending = nil
	for _, p := range pending {
		p.replay(ctx)
	}
}

// UnstashOldest replays only the first stashed message.
func (s *Stash) UnstashOldest(ctx actor.Context) {
	if len(s.pending) == 0 {
		return
	}
	oldest := s.pending[0]
	s.pending = s.pending[1:]
	oldest.replay(ctx)
}

func (s *Stash) Len() int {
	return len(s.pending)
}

func (p stashed) replay(ctx actor.Context) {
	ctx.RequestWithCustomSender(ctx.Self(), p.msg, p.sender)
}
