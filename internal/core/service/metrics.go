package service

import (
	"slices"
	"strconv"
	"strings"

	"github.com/berfenger/taspromto/internal/core/domain"

	"github.com/samber/lo"
)

const METRICS_CONTENT_TYPE = "text/plain; version=0.0.4; charset=utf-8"

type label struct {
	name  string
	value string
}

type metricWriter struct {
	sb *strings.Builder
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// line writes `name{a="1", b="2"} value`.
func (w metricWriter) line(name string, labels []label, value string) {
	w.sb.WriteString(name)
	w.sb.WriteByte('{')
	for i, l := range labels {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		w.sb.WriteString(l.name)
		w.sb.WriteString(`="`)
		w.sb.WriteString(labelEscaper.Replace(l.value))
		w.sb.WriteByte('"')
	}
	w.sb.WriteString("} ")
	w.sb.WriteString(value)
	w.sb.WriteByte('\n')
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

func formatUint[T uint8 | uint16](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

// RenderMetrics turns a snapshot into the text exposition format. MiTemp and
// rf sensors missing from their name table are left out.
func RenderMetrics(snap Snapshot, bleNames domain.BleNames, rfNames domain.RfNames) string {
	sb := &strings.Builder{}
	w := metricWriter{sb: sb}

	tasmotaIds := lo.Keys(snap.Tasmota)
	slices.SortFunc(tasmotaIds, func(a, b domain.TasmotaId) int { return strings.Compare(a.Hostname, b.Hostname) })
	for _, id := range tasmotaIds {
		writeTasmotaState(w, id, snap.Tasmota[id])
	}

	dsmrIds := lo.Keys(snap.Dsmr)
	slices.SortFunc(dsmrIds, func(a, b domain.DsmrId) int { return strings.Compare(a.Hostname, b.Hostname) })
	for _, id := range dsmrIds {
		writeDsmrState(w, id, snap.Dsmr[id])
	}

	bleIds := lo.Keys(snap.Ble)
	slices.SortFunc(bleIds, domain.BleMacId.Compare)
	for _, addr := range bleIds {
		if name, ok := bleNames[addr]; ok {
			writeBleState(w, addr, name, snap.Ble[addr])
		}
	}

	rfIds := lo.Keys(snap.Rf)
	slices.SortFunc(rfIds, domain.RfId.Compare)
	for _, id := range rfIds {
		if name, ok := rfNames[id]; ok {
			writeRfState(w, id, name, snap.Rf[id])
		}
	}

	return sb.String()
}

func writeTasmotaState(w metricWriter, id domain.TasmotaId, state domain.TasmotaState) {
	if state.Name == "" {
		return
	}
	labels := []label{{"tasmota_id", id.Hostname}, {"name", state.Name}}

	w.line("tasmota_online", labels, "1")
	if state.Switch != nil {
		w.line("switch_state", labels, lo.Ternary(*state.Switch, "1", "0"))
	}

	optional := []struct {
		name  string
		value *float32
	}{
		{"power_watts", state.PowerWatts},
		{"power_yesterday_kwh", state.PowerYesterday},
		{"power_today_kwh", state.PowerToday},
		{"power_total_kwh", state.PowerTotal},
		{"power_total_high_kwh", state.PowerTotalHigh},
		{"power_total_low_kwh", state.PowerTotalLow},
		{"gas_total_m3", state.GasTotal},
		{"sensor_co2", state.CO2},
	}
	for _, m := range optional {
		if m.value != nil {
			w.line(m.name, labels, formatFloat(*m.value))
		}
	}

	if pms := state.Pms; pms != nil {
		w.line("cf1", labels, formatUint(pms.CF1))
		w.line("cf2_5", labels, formatUint(pms.CF2_5))
		w.line("cf10", labels, formatUint(pms.CF10))
		w.line("pm1", labels, formatUint(pms.PM1))
		w.line("pm2_5", labels, formatUint(pms.PM2_5))
		w.line("pm10", labels, formatUint(pms.PM10))
		w.line("pb0_3", labels, formatUint(pms.PB0_3))
		w.line("pb0_5", labels, formatUint(pms.PB0_5))
		w.line("pb1", labels, formatUint(pms.PB1))
		w.line("pb2_5", labels, formatUint(pms.PB2_5))
		w.line("pb5", labels, formatUint(pms.PB5))
		w.line("pb10", labels, formatUint(pms.PB10))
	}

	if state.Firmware != "" {
		w.line("tasmota_version", append(labels,
			label{"firmware", state.Firmware},
			label{"version", formatFloat(state.Version)},
		), "1")
	}
}

// dsmr meters have no name of their own, the hostname is used for both labels.
func writeDsmrState(w metricWriter, id domain.DsmrId, state domain.DsmrState) {
	labels := []label{{"tasmota_id", id.Hostname}, {"name", id.Hostname}}

	total := lo.FromPtr(state.Energy1) + lo.FromPtr(state.Energy2)
	if total != 0 {
		w.line("power_total_kwh", labels, formatFloat(total))
	}
	if state.Energy1 != nil {
		w.line("power_total_low_kwh", labels, formatFloat(*state.Energy1))
	}
	if state.Energy2 != nil {
		w.line("power_total_high_kwh", labels, formatFloat(*state.Energy2))
	}
	if state.Power != nil {
		w.line("power_watts", labels, formatFloat(*state.Power*1000))
	}
	if state.GasTotal != nil {
		w.line("gas_total_m3", labels, formatFloat(*state.GasTotal))
	}
	if state.Water != nil {
		w.line("water_total_m3", labels, formatFloat(*state.Water))
	}
}

func writeBleState(w metricWriter, addr domain.BleMacId, name string, state domain.BleTempState) {
	labels := []label{{"mac", addr.String()}, {"name", name}}

	if state.Battery != 0 {
		w.line("sensor_battery", labels, formatUint(state.Battery))
	}
	if state.Temperature != 0 {
		w.line("sensor_temperature", labels, formatFloat(state.Temperature))
	}
	if state.Humidity != 0 {
		w.line("sensor_humidity", labels, formatFloat(state.Humidity))
	}
}

func writeRfState(w metricWriter, id domain.RfId, name string, state domain.RfTempState) {
	labels := []label{
		{"rf_model", id.Name},
		{"rf_id", strconv.FormatUint(uint64(id.Id), 10)},
		{"rf_channel", formatUint(id.Channel)},
		{"name", name},
	}

	if state.Temperature != 0 {
		w.line("sensor_temperature", labels, formatFloat(state.Temperature))
	}
	if state.Humidity != 0 {
		w.line("sensor_humidity", labels, formatFloat(state.Humidity))
	}
}
