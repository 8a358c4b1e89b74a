package actor

import (
	"fmt"

	"github.com/berfenger/taspromto/internal/core/domain"
	"github.com/berfenger/taspromto/internal/core/service"
	. "github.com/berfenger/taspromto/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// TelemetryActor is the single consumer of inbound messages. Running the
// ingest service inside one actor keeps the rtl_433 reassembly state in
// delivery order.
type TelemetryActor struct {
	service   *service.TelemetryService
	mqttActor *actor.PID
	handled   uint64
	logger    *zap.Logger
}

func NewTelemetryActor(svc *service.TelemetryService, mqttActor *actor.PID, logger *zap.Logger) *TelemetryActor {
	return &TelemetryActor{
		service:   svc,
		mqttActor: mqttActor,
		logger:    ActorLogger(domain.ACTOR_ID_TELEMETRY, logger),
	}
}

func (state *TelemetryActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("telemetry@default started")
	case domain.TelemetryMessage:
		state.handled++
		for _, cmd := range state.service.Handle(msg.Topic, msg.Payload) {
			state.logger.Debug("telemetry@default command", zap.String("topic", cmd.Topic), zap.String("payload", cmd.Payload))
			ctx.Send(state.mqttActor, domain.PublishMessageRequest{
				Topic:   cmd.Topic,
				Payload: cmd.Payload,
			})
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("telemetry@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_TELEMETRY,
			Healthy: true,
			State:   fmt.Sprintf("handled %d messages", state.handled),
		})
	case *actor.Stopping, *actor.Stopped, *actor.Restarting:
	default:
		state.logger.Debug("telemetry@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}
