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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	recorder := &adactor.PublishRecorder{}
	registry := service.NewRegistry(logger)
	props := MasterProps(cfg, registry, func() actor.Actor {
		return adactor.NewTestMQTTActor(&cfg, recorder, logger)
	}, logger)
	pid, err := context.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(500 * time.Millisecond)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.Equal(t, domain.ACTOR_ID_MASTER, healthResp.Id)
	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorRouting(t *testing.T) {

	require := require.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()
	context := as.Root

	recorder := &adactor.PublishRecorder{}
	registry := service.NewRegistry(logger)
	pid, err := context.SpawnNamed(MasterProps(cfg, registry, func() actor.Actor {
		return adactor.NewTestMQTTActor(&cfg, recorder, logger)
	}, logger), domain.ACTOR_ID_MASTER)
	require.NoError(err)

	// discovery
	context.Send(pid, domain.TelemetryMessage{Topic: "tele/plug1/LWT", Payload: []byte("Online")})
	require.Eventually(func() bool {
		return len(recorder.Messages()) == 3
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal([]domain.PublishMessageRequest{
		{Topic: "cmnd/plug1/POWER"},
		{Topic: "cmnd/plug1/DeviceName"},
		{Topic: "cmnd/plug1/Status", Payload: "2"},
	}, recorder.Messages())

	// ingest
	context.Send(pid, domain.TelemetryMessage{Topic: "stat/plug1/RESULT", Payload: []byte(`{"POWER":"ON"}`)})
	require.Eventually(func() bool {
		_, ok := registry.Snapshot().Tasmota[domain.TasmotaId{Hostname: "plug1"}]
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	// the device has no name yet, a sweep probes it
	res, err := context.RequestFuture(pid, domain.SweepRequest{}, 2*time.Second).Result()
	require.NoError(err)
	sweep, ok := res.(domain.SweepResponse)
	require.True(ok)
	require.Equal([]domain.TasmotaId{{Hostname: "plug1"}}, sweep.Probed)
	require.Eventually(func() bool {
		return len(recorder.Messages()) == 4
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(domain.PublishMessageRequest{Topic: "cmnd/plug1/DeviceName"}, recorder.Messages()[3])

	context.Stop(pid)
}
