package mqtt

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/berfenger/taspromto/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/reugn/go-quartz/logger"
)

const (
	CLIENT_ID_PREFIX   = "taspromto-"
	DEFAULT_KEEP_ALIVE = 5 * time.Second
	SUBSCRIPTION_QOS   = 0
	PUBLISH_QOS        = 0
)

var ErrTimeout = errors.New("mqtt operation timed out")

// fixed topics a device can publish on, besides the configurable rflink topic
var subscriptionTopics = []string{
	"stat/+/+",
	"tele/+/+",
	"rtl_433/#",
	"+/water",
	"+/gas_delivered",
	"+/energy_delivered_tariff1",
	"+/energy_delivered_tariff2",
	"+/power_delivered_l1",
}

// SubscriptionTopics lists every topic filter the exporter listens on.
func SubscriptionTopics(cfg config.MQTTConfig) map[string]byte {
	filters := make(map[string]byte, len(subscriptionTopics)+1)
	for _, topic := range subscriptionTopics {
		filters[topic] = SUBSCRIPTION_QOS
	}
	filters[cfg.RfMessageTopic] = SUBSCRIPTION_QOS
	return filters
}

func DefaultClientId() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}
	return CLIENT_ID_PREFIX + hostname
}

// OptsFromConfig builds the paho options. Reconnecting is left to the owner
// of the client, so auto reconnect is disabled.
func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	clientId := cfg.MQTT.ClientId
	if clientId == "" {
		clientId = DefaultClientId()
	}
	opts.SetClientID(clientId)
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	keepAlive := DEFAULT_KEEP_ALIVE
	if cfg.MQTT.KeepAliveSeconds > 0 {
		keepAlive = time.Duration(cfg.MQTT.KeepAliveSeconds) * time.Second
	}
	opts.SetKeepAlive(keepAlive)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetCleanSession(true)
	return opts
}

type MQTTClient struct {
	client mqtt.Client
	cfg    config.MQTTConfig
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectionLostHandler != nil {
		opts.SetConnectionLostHandler(onConnectionLostHandler)
	}
	return &MQTTClient{
		client: mqtt.NewClient(opts),
		cfg:    cfg.MQTT,
	}
}

func (c *MQTTClient) Connect(timeout time.Duration) error {
	return awaitToken(c.client.Connect(), "connect", timeout)
}

// SubscribeAll subscribes to the whole subscription set with a single handler.
func (c *MQTTClient) SubscribeAll(handler mqtt.MessageHandler, timeout time.Duration) error {
	return awaitToken(c.client.SubscribeMultiple(SubscriptionTopics(c.cfg), handler), "subscribe", timeout)
}

func (c *MQTTClient) Publish(topic string, payload string, retain bool, timeout time.Duration) error {
	return awaitToken(c.client.Publish(topic, PUBLISH_QOS, retain, payload), "publish", timeout)
}

func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func awaitToken(token mqtt.Token, op string, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		err := fmt.Errorf("%s: %w", op, ErrTimeout)
		logger.Error(err)
		return err
	}
	if err := token.Error(); err != nil {
		err = fmt.Errorf("%s: %w", op, err)
		logger.Error(err)
		return err
	}
	return nil
}
