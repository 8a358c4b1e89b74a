package service

import (
	"strconv"
	"strings"

	"github.com/berfenger/taspromto/internal/core/domain"
)

// Rtl433Decoder reassembles rtl_433 readings that arrive as one message per
// field. It remembers the identity of the device currently reporting; id and
// channel have to arrive before temperature and humidity to be attributed to
// the right sensor. Fields of one device arriving out of order end up on the
// wrong (id, channel) key, there is no grouping in the protocol to avoid that.
//
// Not safe for concurrent use.
type Rtl433Decoder struct {
	active domain.RfId
}

func NewRtl433Decoder() *Rtl433Decoder {
	return &Rtl433Decoder{}
}

// Active returns the identity readings are currently attributed to.
func (d *Rtl433Decoder) Active() domain.RfId {
	return d.active
}

// Decode feeds one field message. It returns the identity and update to apply
// when the field carries a reading; ok is false for identity and unknown fields.
func (d *Rtl433Decoder) Decode(device, field, payload string) (id domain.RfId, update domain.RfUpdate, ok bool) {
	if device != d.active.Name {
		d.active = domain.RfId{Name: device}
	}

	value := strings.TrimSpace(payload)
	switch field {
	case "id":
		d.active.Id = uint16(parseUintOrZero(value, 16))
		return d.active, update, false
	case "channel":
		d.active.Channel = uint8(parseUintOrZero(value, 8))
		return d.active, update, false
	case "temperature_F":
		f := parseFloat32OrZero(value)
		celsius := (f - 32) * 5 / 9
		update.Temperature = &celsius
		return d.active, update, true
	case "humidity":
		h := parseFloat32OrZero(value)
		update.Humidity = &h
		return d.active, update, true
	default:
		return d.active, update, false
	}
}

// parseUintOrZero also maps out of range values to 0, ParseUint would clamp them.
func parseUintOrZero(s string, bitSize int) uint64 {
	v, err := strconv.ParseUint(s, 10, bitSize)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat32OrZero(s string) float32 {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0
	}
	return float32(v)
}
