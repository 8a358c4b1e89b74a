package domain

// TasmotaUpdate is the sparse result of decoding one tasmota json payload.
// Only non-nil fields are applied.
type TasmotaUpdate struct {
	Name           *string
	Switch         *bool
	PowerWatts     *float32
	PowerYesterday *float32
	PowerToday     *float32
	PowerTotal     *float32
	PowerTotalLow  *float32
	PowerTotalHigh *float32
	GasTotal       *float32
	CO2            *float32
	Firmware       *string
	Version        *float32
	Pms            *PmsUpdate
}

type PmsUpdate struct {
	CF1   *uint16
	CF2_5 *uint16
	CF10  *uint16
	PM1   *uint16
	PM2_5 *uint16
	PM10  *uint16
	PB0_3 *uint16
	PB0_5 *uint16
	PB1   *uint16
	PB2_5 *uint16
	PB5   *uint16
	PB10  *uint16
}

type BleUpdate struct {
	Temperature *float32
	Humidity    *float32
	DewPoint    *float32
	Battery     *uint8
}

// BleReading is a MiTemp sub-object found inside a tasmota payload.
type BleReading struct {
	Addr   BleMacId
	Update BleUpdate
}

// TasmotaReport bundles everything found in one tasmota payload.
type TasmotaReport struct {
	Update TasmotaUpdate
	Ble    []BleReading
}

type RfUpdate struct {
	Temperature *float32
	Humidity    *float32
}

// RfMessage is a fully decoded rflink record.
type RfMessage struct {
	Id          RfId
	BatteryOk   bool
	Temperature float32
	Humidity    float32
}

type DsmrField int

const (
	DSMR_FIELD_WATER DsmrField = iota
	DSMR_FIELD_GAS
	DSMR_FIELD_ENERGY_TARIFF1
	DSMR_FIELD_ENERGY_TARIFF2
	DSMR_FIELD_POWER
)

func (f DsmrField) String() string {
	switch f {
	case DSMR_FIELD_WATER:
		return "water"
	case DSMR_FIELD_GAS:
		return "gas_delivered"
	case DSMR_FIELD_ENERGY_TARIFF1:
		return "energy_delivered_tariff1"
	case DSMR_FIELD_ENERGY_TARIFF2:
		return "energy_delivered_tariff2"
	case DSMR_FIELD_POWER:
		return "power_delivered_l1"
	default:
		return "unknown"
	}
}

type DsmrUpdate struct {
	Field DsmrField
	Value float32
}

// Command is an outbound publish towards a device.
type Command struct {
	Topic   string
	Payload string
}
