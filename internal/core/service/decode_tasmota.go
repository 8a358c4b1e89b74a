package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/berfenger/taspromto/internal/core/domain"

	"github.com/tidwall/gjson"
)

var ErrInvalidPayload = errors.New("invalid payload")

const MITEMP_KEY_PREFIX = "MJ_HT_V1"

// co2 sensors report 1 or 0 while warming up
const MIN_VALID_CO2 = 1.0

// DecodeTasmota decodes a SENSOR, RESULT or STATUS payload. MiTemp sub objects
// with an unparseable mac are returned in skipped and left out of the report.
func DecodeTasmota(payload []byte) (report domain.TasmotaReport, skipped []error, err error) {
	if !gjson.ValidBytes(payload) {
		return report, nil, fmt.Errorf("%w: malformed json", ErrInvalidPayload)
	}
	json := gjson.ParseBytes(payload)
	if !json.IsObject() {
		return report, nil, fmt.Errorf("%w: not a json object", ErrInvalidPayload)
	}

	report.Update = decodeTasmotaFields(json)

	json.ForEach(func(key, value gjson.Result) bool {
		suffix, ok := strings.CutPrefix(key.String(), MITEMP_KEY_PREFIX)
		if !ok {
			return true
		}
		addr, err := domain.ParseMiTempMac(strings.TrimLeft(suffix, "-"))
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%s: %w", key.String(), err))
			return true
		}
		report.Ble = append(report.Ble, domain.BleReading{
			Addr:   addr,
			Update: DecodeBleFields(value),
		})
		return true
	})

	return report, skipped, nil
}

func decodeTasmotaFields(json gjson.Result) domain.TasmotaUpdate {
	update := domain.TasmotaUpdate{
		Name:           optionalNonEmptyString(json, "DeviceName"),
		PowerWatts:     optionalFloat(json, "ENERGY.Power"),
		PowerYesterday: optionalFloat(json, "ENERGY.Yesterday"),
		PowerToday:     optionalFloat(json, "ENERGY.Today"),
		PowerTotal:     optionalFloat(json, "OBIS.Total"),
		PowerTotalHigh: optionalFloat(json, "OBIS.Total_high"),
		PowerTotalLow:  optionalFloat(json, "OBIS.Total_low"),
		GasTotal:       optionalFloat(json, "OBIS.Gas_total"),
	}

	if power := optionalNonEmptyString(json, "POWER"); power != nil {
		on := *power == "ON"
		update.Switch = &on
	}

	// the OBIS meter firmware reports power in place of ENERGY
	if power := optionalFloat(json, "OBIS.Power"); power != nil {
		update.PowerWatts = power
	}

	if co2 := optionalFloat(json, "MHZ19B.CarbonDioxide"); co2 != nil && *co2 > MIN_VALID_CO2 {
		update.CO2 = co2
	}

	if firmware := optionalString(json, "StatusFWR.Version"); firmware != nil {
		update.Firmware = firmware
		update.Version = parseFirmwareVersion(*firmware)
	}

	if pms := json.Get("PMS5003"); pms.IsObject() {
		update.Pms = &domain.PmsUpdate{
			CF1:   optionalUint16(pms, "CF1"),
			CF2_5: optionalUint16(pms, `CF2\.5`),
			CF10:  optionalUint16(pms, "CF10"),
			PM1:   optionalUint16(pms, "PM1"),
			PM2_5: optionalUint16(pms, `PM2\.5`),
			PM10:  optionalUint16(pms, "PM10"),
			PB0_3: optionalUint16(pms, `PB0\.3`),
			PB0_5: optionalUint16(pms, `PB0\.5`),
			PB1:   optionalUint16(pms, "PB1"),
			PB2_5: optionalUint16(pms, `PB2\.5`),
			PB5:   optionalUint16(pms, "PB5"),
			PB10:  optionalUint16(pms, "PB10"),
		}
	}

	return update
}

// parseFirmwareVersion keeps everything before the last dot, "9.1.0(tasmota)" => 9.1
func parseFirmwareVersion(firmware string) *float32 {
	i := strings.LastIndexByte(firmware, '.')
	if i < 0 {
		return nil
	}
	v, err := strconv.ParseFloat(firmware[:i], 32)
	if err != nil {
		return nil
	}
	f := float32(v)
	return &f
}

// DecodeBleFields reads a MiTemp sub object.
func DecodeBleFields(json gjson.Result) domain.BleUpdate {
	return domain.BleUpdate{
		Temperature: optionalFloat(json, "Temperature"),
		Humidity:    optionalFloat(json, "Humidity"),
		DewPoint:    optionalFloat(json, "DewPoint"),
		Battery:     optionalUint8(json, "Battery"),
	}
}
