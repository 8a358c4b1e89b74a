package mqtt

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/berfenger/taspromto/internal/util"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/reugn/go-quartz/logger"
	"github.com/stretchr/testify/assert"
)

func TestSubscriptionTopics(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	topics := SubscriptionTopics(cfg.MQTT)

	assert.Len(topics, 9)
	for _, topic := range []string{"stat/+/+", "tele/+/+", "rflink/msg", "rtl_433/#", "+/water",
		"+/gas_delivered", "+/energy_delivered_tariff1", "+/energy_delivered_tariff2", "+/power_delivered_l1"} {
		qos, ok := topics[topic]
		assert.True(ok, topic)
		assert.Equal(byte(0), qos)
	}

	cfg.MQTT.RfMessageTopic = "rf/gateway/msg"
	topics = SubscriptionTopics(cfg.MQTT)
	assert.Contains(topics, "rf/gateway/msg")
	assert.NotContains(topics, "rflink/msg")
}

func TestOptsFromConfig(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	cfg.MQTT.Username = "user"
	cfg.MQTT.Password = "secret"
	opts := OptsFromConfig(&cfg)

	assert.Equal("taspromto-test", opts.ClientID)
	assert.Equal("user", opts.Username)
	assert.Equal("secret", opts.Password)
	assert.Equal(int64(5), opts.KeepAlive)
	assert.False(opts.AutoReconnect)
	assert.Len(opts.Servers, 1)
	assert.Equal("tcp://localhost:1883", opts.Servers[0].String())
}

func TestOptsFromConfigDefaults(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	cfg.MQTT.ClientId = ""
	cfg.MQTT.KeepAliveSeconds = 0
	opts := OptsFromConfig(&cfg)

	assert.True(strings.HasPrefix(opts.ClientID, CLIENT_ID_PREFIX))
	assert.Equal(int64(DEFAULT_KEEP_ALIVE/time.Second), opts.KeepAlive)
	assert.Empty(opts.Username)
}

type stubToken struct {
	done bool
	err  error
}

func (t stubToken) Wait() bool                     { return t.done }
func (t stubToken) WaitTimeout(time.Duration) bool { return t.done }
func (t stubToken) Done() <-chan struct{}          { return make(chan struct{}) }
func (t stubToken) Error() error                   { return t.err }

var _ mqtt.Token = stubToken{}

func TestAwaitToken(t *testing.T) {

	assert := assert.New(t)

	var buf bytes.Buffer
	prev := logger.Default()
	logger.SetDefault(logger.NewSimpleLogger(log.New(&buf, "", 0), logger.LevelError))
	defer logger.SetDefault(prev)

	assert.NoError(awaitToken(stubToken{done: true}, "publish", time.Second))
	assert.Empty(buf.String())

	err := awaitToken(stubToken{}, "connect", time.Millisecond)
	assert.ErrorIs(err, ErrTimeout)
	assert.Contains(buf.String(), "connect")

	brokerErr := errors.New("not authorized")
	err = awaitToken(stubToken{done: true, err: brokerErr}, "subscribe", time.Second)
	assert.ErrorIs(err, brokerErr)
	assert.Contains(buf.String(), "subscribe: not authorized")
}
