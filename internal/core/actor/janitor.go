package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/taspromto/internal/config"
	"github.com/berfenger/taspromto/internal/core/domain"
	"github.com/berfenger/taspromto/internal/core/port"
	"github.com/berfenger/taspromto/internal/core/service"
	. "github.com/berfenger/taspromto/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// JanitorActor periodically evicts stale devices from the registry and asks
// devices that went quiet (or never told their name) to identify themselves.
type JanitorActor struct {
	config    *config.Config
	sweeper   port.DeviceSweeper
	mqttActor *actor.PID

	scheduler  *scheduler.TimerScheduler
	cancelTick scheduler.CancelFunc
	lastSweep  time.Time

	logger *zap.Logger
}

type sweepTick struct {
}

func NewJanitorActor(config *config.Config, sweeper port.DeviceSweeper, mqttActor *actor.PID, logger *zap.Logger) *JanitorActor {
	return &JanitorActor{
		config:    config,
		sweeper:   sweeper,
		mqttActor: mqttActor,
		logger:    ActorLogger(domain.ACTOR_ID_JANITOR, logger),
	}
}

func (state *JanitorActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("janitor@default started")
		if state.config.Sweep.Interval() > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduleTick(ctx)
		} else {
			state.logger.Warn("janitor@default periodic sweep disabled")
		}
	case sweepTick:
		state.logger.Debug("janitor@default tick")
		state.sweep(ctx)
		state.scheduleTick(ctx)
	case domain.SweepRequest:
		state.logger.Debug("janitor@default SweepRequest")
		probed := state.sweep(ctx)
		ForRequest(msg).Respond(ctx, domain.SweepResponse{Probed: probed})
	case domain.ActorHealthRequest:
		state.logger.Debug("janitor@default ActorHealthRequest")
		st := "idle"
		if !state.lastSweep.IsZero() {
			st = fmt.Sprintf("last sweep at %s", state.lastSweep.Format(time.RFC3339))
		}
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_JANITOR,
			Healthy: true,
			State:   st,
		})
	case *actor.Stopping:
		state.stopTick()
	case *actor.Restarting:
		state.stopTick()
	case *actor.Stopped:
	default:
		state.logger.Debug("janitor@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// sweep runs one pass over the registry. Probes are published once the
// registry is released.
func (state *JanitorActor) sweep(ctx actor.Context) []domain.TasmotaId {
	now := state.sweeper.Now()
	probes := state.sweeper.Sweep(now, state.config.Sweep.PingAfter(), state.config.Sweep.RemoveAfter())
	state.lastSweep = now
	for _, id := range probes {
		cmd := service.ProbeCommand(id)
		ctx.Send(state.mqttActor, domain.PublishMessageRequest{
			Topic:   cmd.Topic,
			Payload: cmd.Payload,
		})
	}
	return probes
}

func (state *JanitorActor) scheduleTick(ctx actor.Context) {
	if state.scheduler != nil {
		state.cancelTick = state.scheduler.RequestOnce(state.config.Sweep.Interval(), ctx.Self(), sweepTick{})
	}
}

func (state *JanitorActor) stopTick() {
	if state.cancelTick != nil {
		state.cancelTick()
		state.cancelTick = nil
	}
}
