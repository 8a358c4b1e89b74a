package port

import (
	"time"

	"github.com/berfenger/taspromto/internal/core/domain"
)

// TelemetryStore is the write side of the device registry used by ingest.
type TelemetryStore interface {
	ApplyTasmotaReport(id domain.TasmotaId, report domain.TasmotaReport)
	ApplyRfUpdate(id domain.RfId, update domain.RfUpdate)
	ApplyDsmrUpdate(id domain.DsmrId, update domain.DsmrUpdate)
}

// DeviceSweeper is the maintenance side of the device registry.
type DeviceSweeper interface {
	Now() time.Time
	Sweep(now time.Time, pingAfter, removeAfter time.Duration) []domain.TasmotaId
}

// MetricsSource renders the current state as exposition text.
type MetricsSource interface {
	RenderMetrics() string
}
