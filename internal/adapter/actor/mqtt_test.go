package actor

import (
	"testing"
	"time"

	"github.com/berfenger/taspromto/internal/core/domain"
	"github.com/berfenger/taspromto/internal/util"
	"github.com/berfenger/taspromto/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	require := require.New(t)

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	recorder := &PublishRecorder{}
	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, recorder, logger) })
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(err)
	resp, ok := result.(domain.ActorHealthResponse)
	require.True(ok)
	require.True(resp.Healthy)
	require.Equal(domain.ACTOR_ID_MQTT, resp.Id)

	result, err = context.RequestFuture(pid, domain.PublishMessageRequest{Topic: "cmnd/plug1/POWER"}, 2*time.Second).Result()
	require.NoError(err)
	_, ok = result.(domain.PublishMessageResponse)
	require.True(ok)

	context.Send(pid, domain.PublishMessageRequest{Topic: "cmnd/plug1/Status", Payload: "2"})

	time.Sleep(100 * time.Millisecond)

	require.Equal([]domain.PublishMessageRequest{
		{Topic: "cmnd/plug1/POWER"},
		{Topic: "cmnd/plug1/Status", Payload: "2"},
	}, recorder.Messages())

	context.Stop(pid)
}

func TestMQTTActorForwardsToParent(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	received := make(chan domain.TelemetryMessage, 1)
	children := make(chan *actor.PID, 1)
	parent := actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case *actor.Started:
			children <- ctx.Spawn(actor.PropsFromProducer(func() actor.Actor {
				return NewTestMQTTActor(&cfg, nil, logger)
			}))
		case domain.TelemetryMessage:
			received <- msg
		}
	})
	as.Root.Spawn(parent)

	child := <-children
	as.Root.Send(child, domain.TelemetryMessage{Topic: "tele/plug1/LWT", Payload: []byte("Online")})

	select {
	case msg := <-received:
		assert.Equal("tele/plug1/LWT", msg.Topic)
		assert.Equal([]byte("Online"), msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("message not forwarded")
	}
}
