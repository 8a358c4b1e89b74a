package service

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/berfenger/taspromto/internal/core/domain"

	"go.uber.org/zap"
)

const (
	DEFAULT_SWEEP_INTERVAL = 60 * time.Second
	DEFAULT_PING_AFTER     = 10 * time.Minute
	DEFAULT_REMOVE_AFTER   = 15 * time.Minute
)

// Registry keeps the latest known state of every device. A single mutex
// guards all maps; it is only held for in-memory work.
type Registry struct {
	mu      sync.Mutex
	tasmota map[domain.TasmotaId]*domain.TasmotaState
	ble     map[domain.BleMacId]*domain.BleTempState
	rf      map[domain.RfId]*domain.RfTempState
	dsmr    map[domain.DsmrId]*domain.DsmrState

	now    func() time.Time
	logger *zap.Logger
}

// Snapshot is a point in time copy of the registry.
type Snapshot struct {
	Tasmota map[domain.TasmotaId]domain.TasmotaState
	Ble     map[domain.BleMacId]domain.BleTempState
	Rf      map[domain.RfId]domain.RfTempState
	Dsmr    map[domain.DsmrId]domain.DsmrState
}

func NewRegistry(logger *zap.Logger) *Registry {
	return NewRegistryWithClock(logger, time.Now)
}

func NewRegistryWithClock(logger *zap.Logger, now func() time.Time) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tasmota: map[domain.TasmotaId]*domain.TasmotaState{},
		ble:     map[domain.BleMacId]*domain.BleTempState{},
		rf:      map[domain.RfId]*domain.RfTempState{},
		dsmr:    map[domain.DsmrId]*domain.DsmrState{},
		now:     now,
		logger:  logger,
	}
}

// ApplyTasmotaUpdate merges a single update. Ingest goes through
// ApplyTasmotaReport; this entry point is used by tests and tooling.
func (r *Registry) ApplyTasmotaUpdate(id domain.TasmotaId, update domain.TasmotaUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyTasmota(id, update)
}

// ApplyTasmotaReport applies a tasmota update and the MiTemp readings found
// in the same payload as one step.
func (r *Registry) ApplyTasmotaReport(id domain.TasmotaId, report domain.TasmotaReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reading := range report.Ble {
		r.applyBle(reading.Addr, reading.Update)
	}
	r.applyTasmota(id, report.Update)
}

// ApplyBleUpdate merges a MiTemp reading outside of a tasmota report, for tests and tooling.
func (r *Registry) ApplyBleUpdate(addr domain.BleMacId, update domain.BleUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyBle(addr, update)
}

func (r *Registry) ApplyRfUpdate(id domain.RfId, update domain.RfUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.rf[id]
	if !ok {
		state = &domain.RfTempState{}
		r.rf[id] = state
	}
	setIfPresent(&state.Temperature, update.Temperature)
	setIfPresent(&state.Humidity, update.Humidity)
}

func (r *Registry) ApplyDsmrUpdate(id domain.DsmrId, update domain.DsmrUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.dsmr[id]
	if !ok {
		state = &domain.DsmrState{}
		r.dsmr[id] = state
	}
	state.LastSeen = r.now()
	value := update.Value
	switch update.Field {
	case domain.DSMR_FIELD_WATER:
		state.Water = &value
	case domain.DSMR_FIELD_GAS:
		state.GasTotal = &value
	case domain.DSMR_FIELD_ENERGY_TARIFF1:
		state.Energy1 = &value
	case domain.DSMR_FIELD_ENERGY_TARIFF2:
		state.Energy2 = &value
	case domain.DSMR_FIELD_POWER:
		state.Power = &value
	}
}

func (r *Registry) applyTasmota(id domain.TasmotaId, update domain.TasmotaUpdate) {
	state, ok := r.tasmota[id]
	if !ok {
		state = &domain.TasmotaState{}
		r.tasmota[id] = state
	}
	state.LastSeen = r.now()

	setIfPresent(&state.Name, update.Name)
	setPtrIfPresent(&state.Switch, update.Switch)
	setPtrIfPresent(&state.PowerWatts, update.PowerWatts)
	setPtrIfPresent(&state.PowerYesterday, update.PowerYesterday)
	setPtrIfPresent(&state.PowerToday, update.PowerToday)
	setPtrIfPresent(&state.PowerTotal, update.PowerTotal)
	setPtrIfPresent(&state.PowerTotalLow, update.PowerTotalLow)
	setPtrIfPresent(&state.PowerTotalHigh, update.PowerTotalHigh)
	setPtrIfPresent(&state.GasTotal, update.GasTotal)
	setPtrIfPresent(&state.CO2, update.CO2)
	setIfPresent(&state.Firmware, update.Firmware)
	setIfPresent(&state.Version, update.Version)

	if update.Pms != nil {
		if state.Pms == nil {
			state.Pms = &domain.PmsState{}
		}
		pms, u := state.Pms, update.Pms
		setIfPresent(&pms.CF1, u.CF1)
		setIfPresent(&pms.CF2_5, u.CF2_5)
		setIfPresent(&pms.CF10, u.CF10)
		setIfPresent(&pms.PM1, u.PM1)
		setIfPresent(&pms.PM2_5, u.PM2_5)
		setIfPresent(&pms.PM10, u.PM10)
		setIfPresent(&pms.PB0_3, u.PB0_3)
		setIfPresent(&pms.PB0_5, u.PB0_5)
		setIfPresent(&pms.PB1, u.PB1)
		setIfPresent(&pms.PB2_5, u.PB2_5)
		setIfPresent(&pms.PB5, u.PB5)
		setIfPresent(&pms.PB10, u.PB10)
	}
}

func (r *Registry) applyBle(addr domain.BleMacId, update domain.BleUpdate) {
	state, ok := r.ble[addr]
	if !ok {
		state = &domain.BleTempState{}
		r.ble[addr] = state
	}
	state.LastSeen = r.now()
	setIfPresent(&state.Temperature, update.Temperature)
	setIfPresent(&state.Humidity, update.Humidity)
	setIfPresent(&state.DewPoint, update.DewPoint)
	setIfPresent(&state.Battery, update.Battery)
}

// Now reads the registry clock.
func (r *Registry) Now() time.Time {
	return r.now()
}

// Snapshot copies the registry under the lock.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Tasmota: make(map[domain.TasmotaId]domain.TasmotaState, len(r.tasmota)),
		Ble:     make(map[domain.BleMacId]domain.BleTempState, len(r.ble)),
		Rf:      make(map[domain.RfId]domain.RfTempState, len(r.rf)),
		Dsmr:    make(map[domain.DsmrId]domain.DsmrState, len(r.dsmr)),
	}
	for id, state := range r.tasmota {
		snap.Tasmota[id] = state.Clone()
	}
	for addr, state := range r.ble {
		snap.Ble[addr] = *state
	}
	for id, state := range r.rf {
		snap.Rf[id] = *state
	}
	for id, state := range r.dsmr {
		snap.Dsmr[id] = state.Clone()
	}
	return snap
}

// Sweep drops tasmota and MiTemp devices not seen for removeAfter and returns
// the tasmota devices that should be asked for their name: those not seen for
// pingAfter and those that never reported one. Rf and dsmr devices are kept
// forever. No I/O happens here, the caller publishes the probes.
func (r *Registry) Sweep(now time.Time, pingAfter, removeAfter time.Duration) []domain.TasmotaId {
	pingTime := now.Add(-pingAfter)
	removeTime := now.Add(-removeAfter)

	r.mu.Lock()
	defer r.mu.Unlock()

	var probes []domain.TasmotaId
	for id, state := range r.tasmota {
		if state.LastSeen.Before(removeTime) {
			r.logger.Info("device hasn't been seen, removing", zap.String("device", id.Hostname),
				zap.Duration("after", removeAfter))
			delete(r.tasmota, id)
		} else if state.LastSeen.Before(pingTime) || state.Name == "" {
			r.logger.Info("device hasn't been seen or has no name set, pinging", zap.String("device", id.Hostname))
			probes = append(probes, id)
		}
	}

	for addr, state := range r.ble {
		if state.LastSeen.Before(removeTime) {
			r.logger.Info("mitemp sensor hasn't been seen, removing", zap.Stringer("mac", addr),
				zap.Duration("after", removeAfter))
			delete(r.ble, addr)
		}
	}

	slices.SortFunc(probes, func(a, b domain.TasmotaId) int {
		return strings.Compare(a.Hostname, b.Hostname)
	})
	return probes
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setPtrIfPresent[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
