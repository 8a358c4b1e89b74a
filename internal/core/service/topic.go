package service

import (
	"strings"

	"github.com/berfenger/taspromto/internal/core/domain"
)

const (
	RF_MESSAGE_SUFFIX = "/msg"
	RTL_433_PREFIX    = "rtl_433/"
)

var dsmrSuffixes = []struct {
	suffix string
	field  domain.DsmrField
}{
	{"/water", domain.DSMR_FIELD_WATER},
	{"/gas_delivered", domain.DSMR_FIELD_GAS},
	{"/energy_delivered_tariff1", domain.DSMR_FIELD_ENERGY_TARIFF1},
	{"/energy_delivered_tariff2", domain.DSMR_FIELD_ENERGY_TARIFF2},
	{"/power_delivered_l1", domain.DSMR_FIELD_POWER},
}

// ClassifyTopic maps a raw topic to its event kind. The first matching rule wins:
// rf message, rtl_433 field, dsmr feed, tasmota command. Everything else is OtherTopic.
func ClassifyTopic(raw string) domain.Topic {
	if prefix, ok := strings.CutSuffix(raw, RF_MESSAGE_SUFFIX); ok {
		return domain.RfMessageTopic{Prefix: prefix}
	}

	if rest, ok := strings.CutPrefix(raw, RTL_433_PREFIX); ok {
		if i := strings.LastIndexByte(rest, '/'); i > 0 && i < len(rest)-1 {
			return domain.RtlTopic{Device: rest[:i], Field: rest[i+1:]}
		}
	}

	for _, s := range dsmrSuffixes {
		if prefix, ok := strings.CutSuffix(raw, s.suffix); ok {
			return domain.DsmrTopic{Device: domain.DsmrId{Hostname: prefix}, Field: s.field}
		}
	}

	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return domain.OtherTopic{Raw: raw}
	}
	device := domain.TasmotaId{Hostname: parts[1]}
	switch parts[0] + "/" + parts[2] {
	case "tele/LWT":
		return domain.LwtTopic{Device: device}
	case "tele/STATE":
		return domain.StateTopic{Device: device}
	case "stat/POWER":
		return domain.PowerTopic{Device: device}
	case "tele/SENSOR":
		return domain.SensorTopic{Device: device}
	case "stat/RESULT":
		return domain.ResultTopic{Device: device}
	case "stat/STATUS", "stat/STATUS2":
		return domain.StatusTopic{Device: device}
	default:
		return domain.OtherTopic{Raw: raw}
	}
}
