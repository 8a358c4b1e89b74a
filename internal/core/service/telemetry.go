package service

import (
	"github.com/berfenger/taspromto/internal/core/domain"
	"github.com/berfenger/taspromto/internal/core/port"

	"go.uber.org/zap"
)

const (
	TASMOTA_COMMAND_PREFIX = "cmnd"
	TASMOTA_CMD_POWER      = "POWER"
	TASMOTA_CMD_DEVICENAME = "DeviceName"
	TASMOTA_CMD_STATUS     = "Status"
	// STATUS2 carries StatusFWR with the firmware version
	TASMOTA_STATUS_FIRMWARE = "2"
)

// TelemetryService classifies inbound messages, decodes them and applies the
// result to the store. It owns the rtl_433 reassembly state and must be fed
// from a single goroutine, in delivery order.
type TelemetryService struct {
	store  port.TelemetryStore
	rtl    *Rtl433Decoder
	logger *zap.Logger
}

func NewTelemetryService(store port.TelemetryStore, logger *zap.Logger) *TelemetryService {
	return &TelemetryService{
		store:  store,
		rtl:    NewRtl433Decoder(),
		logger: logger,
	}
}

// Handle processes one message and returns the commands to publish in response.
func (s *TelemetryService) Handle(topic string, payload []byte) []domain.Command {
	s.logger.Debug("telemetry: message", zap.String("topic", topic), zap.ByteString("payload", payload))

	switch t := ClassifyTopic(topic).(type) {
	case domain.LwtTopic:
		// on discovery, ask the device for its power state, name and firmware
		return DiscoveryCommands(t.Device)
	case domain.PowerTopic, domain.StateTopic:
	case domain.SensorTopic:
		s.handleTasmota(t.Device, payload)
	case domain.ResultTopic:
		s.handleTasmota(t.Device, payload)
	case domain.StatusTopic:
		s.handleTasmota(t.Device, payload)
	case domain.RfMessageTopic:
		s.handleRfMessage(payload)
	case domain.RtlTopic:
		if id, update, ok := s.rtl.Decode(t.Device, t.Field, string(payload)); ok {
			s.store.ApplyRfUpdate(id, update)
		}
	case domain.DsmrTopic:
		update, err := DecodeDsmr(t.Field, payload)
		if err != nil {
			s.logger.Warn("telemetry: invalid dsmr value", zap.String("topic", topic),
				zap.ByteString("payload", payload), zap.Error(err))
			return nil
		}
		s.store.ApplyDsmrUpdate(t.Device, update)
	case domain.OtherTopic:
	}
	return nil
}

func (s *TelemetryService) handleTasmota(device domain.TasmotaId, payload []byte) {
	report, skipped, err := DecodeTasmota(payload)
	if err != nil {
		s.logger.Warn("telemetry: invalid tasmota payload", zap.String("device", device.Hostname),
			zap.ByteString("payload", payload), zap.Error(err))
		return
	}
	for _, e := range skipped {
		s.logger.Warn("telemetry: failed to parse mitemp mac", zap.String("device", device.Hostname), zap.Error(e))
	}
	s.store.ApplyTasmotaReport(device, report)
}

func (s *TelemetryService) handleRfMessage(payload []byte) {
	msg, err := DecodeRfMessage(string(payload))
	if err != nil {
		s.logger.Warn("telemetry: invalid rf message", zap.ByteString("payload", payload), zap.Error(err))
		return
	}
	s.store.ApplyRfUpdate(msg.Id, domain.RfUpdate{
		Temperature: &msg.Temperature,
		Humidity:    &msg.Humidity,
	})
}

func DiscoveryCommands(device domain.TasmotaId) []domain.Command {
	return []domain.Command{
		{Topic: device.Topic(TASMOTA_COMMAND_PREFIX, TASMOTA_CMD_POWER)},
		{Topic: device.Topic(TASMOTA_COMMAND_PREFIX, TASMOTA_CMD_DEVICENAME)},
		{Topic: device.Topic(TASMOTA_COMMAND_PREFIX, TASMOTA_CMD_STATUS), Payload: TASMOTA_STATUS_FIRMWARE},
	}
}

func ProbeCommand(device domain.TasmotaId) domain.Command {
	return domain.Command{Topic: device.Topic(TASMOTA_COMMAND_PREFIX, TASMOTA_CMD_DEVICENAME)}
}

// MetricsExporter renders the registry with the configured sensor names.
type MetricsExporter struct {
	registry *Registry
	bleNames domain.BleNames
	rfNames  domain.RfNames
}

func NewMetricsExporter(registry *Registry, bleNames domain.BleNames, rfNames domain.RfNames) *MetricsExporter {
	return &MetricsExporter{
		registry: registry,
		bleNames: bleNames,
		rfNames:  rfNames,
	}
}

func (e *MetricsExporter) RenderMetrics() string {
	return RenderMetrics(e.registry.Snapshot(), e.bleNames, e.rfNames)
}
