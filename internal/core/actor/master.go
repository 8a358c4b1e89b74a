package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/taspromto/internal/config"
	"github.com/berfenger/taspromto/internal/core/domain"
	"github.com/berfenger/taspromto/internal/core/service"
	. "github.com/berfenger/taspromto/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/carlmjohnson/versioninfo"
	"go.uber.org/zap"
)

type MQTTActorProvider func() actor.Actor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	registry           *service.Registry
	mqttActor          *actor.PID
	telemetryActor     *actor.PID
	janitorActor       *actor.PID
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	expected       []string
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

// MasterProps spawns the master with the strategy used for its children: a
// failed child is restarted after an exponential backoff. The mqtt actor fails
// on connection loss, so this is also the reconnect loop.
func MasterProps(config config.Config, registry *service.Registry, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *actor.Props {
	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)
	return actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(config, registry, mqttActorProvider, logger)
	}, actor.WithSupervisor(supervisor))
}

func NewMasterOfPuppetsActor(config config.Config, registry *service.Registry, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		logger:            ActorLogger(domain.ACTOR_ID_MASTER, logger),
		registry:          registry,
		mqttActorProvider: mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{
			expected: []string{domain.ACTOR_ID_MQTT, domain.ACTOR_ID_TELEMETRY, domain.ACTOR_ID_JANITOR},
		}
		state.currentHealthCheck.reset()

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start Telemetry child
		telemetryActorPID, err := state.startTelemetryActor(ctx)
		if err != nil {
			panic(err)
		}
		state.telemetryActor = telemetryActorPID

		// start Janitor child
		janitorActorPID, err := state.startJanitorActor(ctx)
		if err != nil {
			panic(err)
		}
		state.janitorActor = janitorActorPID

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.TelemetryMessage:
		// inbound mqtt message, route to ingest
		ctx.Send(state.telemetryActor, msg)
	case domain.SweepRequest:
		ctx.Forward(state.janitorActor)
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		for _, child := range []struct {
			id  string
			pid *actor.PID
		}{
			{domain.ACTOR_ID_MQTT, state.mqttActor},
			{domain.ACTOR_ID_TELEMETRY, state.telemetryActor},
			{domain.ACTOR_ID_JANITOR, state.janitorActor},
		} {
			id := child.id
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(child.pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case *actor.Terminated:
		state.logger.Error("master@default child terminated", zap.String("child", msg.Who.Id))
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		ctx.CancelReceiveTimeout()
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthy[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			ctx.CancelReceiveTimeout()
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	case domain.TelemetryMessage:
		// never hold back ingest while a health check is running
		ctx.Send(state.telemetryActor, msg)
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider()
	})
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startTelemetryActor(ctx actor.Context) (*actor.PID, error) {

	telemetryProps := actor.PropsFromProducer(func() actor.Actor {
		return NewTelemetryActor(service.NewTelemetryService(state.registry, state.logger), state.mqttActor, state.logger)
	})
	telemetryActorPID, err := ctx.SpawnNamed(telemetryProps, domain.ACTOR_ID_TELEMETRY)
	if err != nil {
		return nil, err
	}

	return telemetryActorPID, nil
}

func (state *MasterOfPuppetsActor) startJanitorActor(ctx actor.Context) (*actor.PID, error) {

	janitorProps := actor.PropsFromProducer(func() actor.Actor {
		return NewJanitorActor(&state.config, state.registry, state.mqttActor, state.logger)
	})
	janitorActorPID, err := ctx.SpawnNamed(janitorProps, domain.ACTOR_ID_JANITOR)
	if err != nil {
		return nil, err
	}

	return janitorActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.healthy = make(map[string]bool, len(state.expected))
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= len(state.expected)
}

func (state *healthCheckResult) allHealthy() bool {
	for _, id := range state.expected {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   versioninfo.Short(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
		state.respondTo = nil
	}
}
