package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

// Stash buffers messages received in a state that cannot handle them yet.
type Stash struct {
	stash []stashElem
}

type stashElem struct {
	msg    any
	sender *actor.PID
}

func (stash *Stash) Stash(ctx actor.Context, msg any) {
	stash.stash = append(stash.stash, stashElem{
		msg:    msg,
		sender: ctx.Sender(),
	})
}

func (stash *Stash) Len() int {
	return len(stash.stash)
}

func (stash *Stash) UnstashAll(ctx actor.Context) {
	for _, elem := range stash.stash {
		ctx.RequestWithCustomSender(ctx.Self(), elem.msg, elem.sender)
	}
	stash.stash = nil
}

func (stash *Stash) UnstashOldest(ctx actor.Context) {
	if len(stash.stash) > 0 {
		first := stash.stash[0]
		ctx.RequestWithCustomSender(ctx.Self(), first.msg, first.sender)
		stash.stash = stash.stash[1:]
	}
}
