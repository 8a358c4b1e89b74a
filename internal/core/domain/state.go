package domain

import "time"

// TasmotaState holds everything learned about a tasmota device.
// Nil pointers were never reported.
type TasmotaState struct {
	Switch         *bool
	Name           string
	PowerWatts     *float32
	PowerYesterday *float32
	PowerToday     *float32
	PowerTotal     *float32
	PowerTotalLow  *float32
	PowerTotalHigh *float32
	GasTotal       *float32
	CO2            *float32
	Pms            *PmsState
	Firmware       string
	Version        float32
	LastSeen       time.Time
}

// PmsState mirrors the PMS5003 particulate matter payload.
type PmsState struct {
	CF1   uint16
	CF2_5 uint16
	CF10  uint16
	PM1   uint16
	PM2_5 uint16
	PM10  uint16
	PB0_3 uint16
	PB0_5 uint16
	PB1   uint16
	PB2_5 uint16
	PB5   uint16
	PB10  uint16
}

// Clone returns a copy that shares no pointers with s.
func (s TasmotaState) Clone() TasmotaState {
	c := s
	c.Switch = clonePtr(s.Switch)
	c.PowerWatts = clonePtr(s.PowerWatts)
	c.PowerYesterday = clonePtr(s.PowerYesterday)
	c.PowerToday = clonePtr(s.PowerToday)
	c.PowerTotal = clonePtr(s.PowerTotal)
	c.PowerTotalLow = clonePtr(s.PowerTotalLow)
	c.PowerTotalHigh = clonePtr(s.PowerTotalHigh)
	c.GasTotal = clonePtr(s.GasTotal)
	c.CO2 = clonePtr(s.CO2)
	c.Pms = clonePtr(s.Pms)
	return c
}

// BleTempState is a MiTemp reading. Zero values are indistinguishable from unset.
type BleTempState struct {
	Temperature float32
	Humidity    float32
	DewPoint    float32
	Battery     uint8
	LastSeen    time.Time
}

// RfTempState has no LastSeen, rf sensors are never swept.
type RfTempState struct {
	Temperature float32
	Humidity    float32
}

// DsmrState holds smart meter counters; Power is in kW.
type DsmrState struct {
	Power    *float32
	Energy1  *float32
	Energy2  *float32
	GasTotal *float32
	Water    *float32
	LastSeen time.Time
}

func (s DsmrState) Clone() DsmrState {
	c := s
	c.Power = clonePtr(s.Power)
	c.Energy1 = clonePtr(s.Energy1)
	c.Energy2 = clonePtr(s.Energy2)
	c.GasTotal = clonePtr(s.GasTotal)
	c.Water = clonePtr(s.Water)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
