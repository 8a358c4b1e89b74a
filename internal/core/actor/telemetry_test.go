package actor

import (
	"testing"
	"time"

	adactor "github.com/berfenger/taspromto/internal/adapter/actor"
	"github.com/berfenger/taspromto/internal/core/domain"
	"github.com/berfenger/taspromto/internal/core/service"
	"github.com/berfenger/taspromto/internal/util"
	"github.com/berfenger/taspromto/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTelemetryActorKeepsOrder(t *testing.T) {

	require := require.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()
	context := as.Root

	mqttPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewTestMQTTActor(&cfg, nil, logger)
	}))
	registry := service.NewRegistry(logger)
	pid := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewTelemetryActor(service.NewTelemetryService(registry, logger), mqttPID, logger)
	}))

	for _, m := range []domain.TelemetryMessage{
		{Topic: "rtl_433/Bresser-3CH/id", Payload: []byte("7")},
		{Topic: "rtl_433/Bresser-3CH/channel", Payload: []byte("2")},
		{Topic: "rtl_433/Bresser-3CH/humidity", Payload: []byte("40")},
	} {
		context.Send(pid, m)
	}

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(err)
	require.Equal("handled 3 messages", res.(domain.ActorHealthResponse).State)

	state, ok := registry.Snapshot().Rf[domain.RfId{Name: "Bresser-3CH", Id: 7, Channel: 2}]
	require.True(ok)
	require.Equal(float32(40), state.Humidity)
}
