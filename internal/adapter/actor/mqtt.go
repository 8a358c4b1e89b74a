package actor

import (
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/taspromto/internal/config"
	"github.com/berfenger/taspromto/internal/core/domain"
	"github.com/berfenger/taspromto/internal/mqtt"
	"github.com/berfenger/taspromto/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	MQTT_CONNECT_TIMEOUT   = 10 * time.Second
	MQTT_SUBSCRIBE_TIMEOUT = 5 * time.Second
	MQTT_PUBLISH_TIMEOUT   = 5 * time.Second
)

// MQTTActor owns the broker connection. Inbound publishes are forwarded to the
// parent as domain.TelemetryMessage; a lost connection makes the actor fail so
// its supervisor restarts it, which reconnects and resubscribes.
type MQTTActor struct {
	config   *config.Config
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   *mqtt.MQTTClient
	logger   *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Error   error
}

func NewMQTTActor(config *config.Config, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:   config,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		root := ctx.ActorSystem().Root
		self := ctx.Self()
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client, err error) {
			root.Send(self, MQTTConnectionLost{Error: err})
		})

		client := state.client
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTaskErr(ctx, func() error {
			return client.Connect(MQTT_CONNECT_TIMEOUT)
		}), func(struct{}) MQTTConnected {
			return MQTTConnected{}
		}).OnError(connectionLost).PipeTo(self)

	case MQTTConnected:
		state.logger.Info("mqtt@starting connected", zap.String("host", state.config.MQTT.Host),
			zap.Int("port", state.config.MQTT.Port))

		root := ctx.ActorSystem().Root
		parent := ctx.Parent()
		client := state.client
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTaskErr(ctx, func() error {
			return client.SubscribeAll(func(_ pahomqtt.Client, m pahomqtt.Message) {
				root.Send(parent, domain.TelemetryMessage{Topic: m.Topic(), Payload: m.Payload()})
			}, MQTT_SUBSCRIBE_TIMEOUT)
		}), func(struct{}) MQTTSubscribed {
			return MQTTSubscribed{}
		}).OnError(connectionLost).PipeTo(ctx.Self())
	case MQTTSubscribed:
		state.logger.Debug("mqtt@starting subscribed")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// let the supervisor back off and restart
		state.logger.Error("mqtt@starting connection failed", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: false,
			State:   "connecting",
		})
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		resp := domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: state.client.IsConnected(),
			State:   "connected",
		}
		if !resp.Healthy {
			resp.State = "disconnected"
		}
		ctx.Respond(resp)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.String("topic", msg.Topic), zap.String("payload", msg.Payload))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case MQTTConnectionLost:
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	client := state.client
	actorutil.MapBackgroundTask(actorutil.NewBackgroundTaskErr(ctx, func() error {
		return client.Publish(topic, payload, retain, MQTT_PUBLISH_TIMEOUT)
	}), func(struct{}) publishResult {
		return publishResult{ReplyTo: replyTo}
	}).OnError(func(err error) any {
		return publishResult{ReplyTo: replyTo, Error: fmt.Errorf("%s: %w", topic, err)}
	}).PipeTo(ctx.Self())
	state.behavior.BecomeStacked(state.PublishResultReceive)
}

// PublishResultReceive waits for the outcome of one publish, keeping outbound
// messages in order.
func (state *MQTTActor) PublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case MQTTConnectionLost:
		state.logger.Error("mqtt@publishing connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) stop() {
	if state.client != nil {
		state.logger.Debug("mqtt: disconnect")
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func connectionLost(err error) any {
	return MQTTConnectionLost{Error: err}
}

// PublishRecorder collects the messages published by a test actor.
type PublishRecorder struct {
	mu       sync.Mutex
	messages []domain.PublishMessageRequest
}

func (r *PublishRecorder) record(msg domain.PublishMessageRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *PublishRecorder) Messages() []domain.PublishMessageRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PublishMessageRequest(nil), r.messages...)
}

// Dummy actor, never touches the network. Publishes go to the recorder and a
// TelemetryMessage sent to it is delivered to the parent as if it came from
// the broker.
func NewTestMQTTActor(config *config.Config, recorder *PublishRecorder, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:   config,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(func(ctx actor.Context) {
		act.DummyReceive(ctx, recorder)
	})
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context, recorder *PublishRecorder) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@dummy ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "connected",
		})
	case domain.TelemetryMessage:
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		if recorder != nil {
			recorder.record(msg)
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishMessageResponse{})
	}
}
