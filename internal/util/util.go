package util

import (
	"github.com/berfenger/taspromto/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			ClientId:         "taspromto-test",
			KeepAliveSeconds: 5,
			RfMessageTopic:   "rflink/msg",
		},
		Sweep: config.SweepConfig{
			IntervalSeconds:    60,
			PingAfterSeconds:   600,
			RemoveAfterSeconds: 900,
		},
		MiTempNames: "391D5B=Living Room",
		RfTempNames: "Bresser-3CH:49:1=Garden",
		Port:        8080,
	}
}
