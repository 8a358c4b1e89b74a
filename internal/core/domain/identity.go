package domain

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidMac = errors.New("invalid mac address")

// MiTemp sensors all share this vendor prefix, only the last three bytes
// are announced by the gateway.
const MITEMP_MAC_PREFIX = "582D34"

// DeviceId identifies a device within one protocol family.
// The set of implementations is closed.
type DeviceId interface {
	fmt.Stringer
	isDeviceId()
}

type TasmotaId struct {
	Hostname string
}

func (TasmotaId) isDeviceId() {}

func (d TasmotaId) String() string {
	return d.Hostname
}

// Topic builds "<prefix>/<hostname>/<command>", e.g. cmnd/plug1/POWER.
func (d TasmotaId) Topic(prefix, command string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, d.Hostname, command)
}

// BleMacId is a 6 byte bluetooth address stored least significant byte first.
type BleMacId [6]byte

func (BleMacId) isDeviceId() {}

// String renders the address most significant byte first, e.g. 58:2D:34:39:1D:5B.
func (a BleMacId) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[5], a[4], a[3], a[2], a[1], a[0])
}

// MacSuffix returns the vendor specific part of the address as announced by the gateway.
func (a BleMacId) MacSuffix() string {
	return fmt.Sprintf("%02X%02X%02X", a[2], a[1], a[0])
}

func (a BleMacId) Compare(b BleMacId) int {
	return bytes.Compare(a[:], b[:])
}

// ParseMiTempMac rebuilds the full address from the last 6 hex digits of the mac.
func ParseMiTempMac(part string) (BleMacId, error) {
	var addr BleMacId
	if len(part) != 6 {
		return addr, fmt.Errorf("%w: invalid digit count in %q", ErrInvalidMac, part)
	}
	raw, err := hex.DecodeString(MITEMP_MAC_PREFIX + part)
	if err != nil {
		return addr, fmt.Errorf("%w: invalid digit in %q", ErrInvalidMac, part)
	}
	// wire order is big-endian
	for i := range raw {
		addr[len(addr)-1-i] = raw[i]
	}
	return addr, nil
}

// RfId identifies a 433MHz sensor by model name, transmitted id and channel.
type RfId struct {
	Name    string
	Id      uint16
	Channel uint8
}

func (RfId) isDeviceId() {}

func (r RfId) String() string {
	return fmt.Sprintf("%s:%d:%d", r.Name, r.Id, r.Channel)
}

func (r RfId) Compare(o RfId) int {
	if c := strings.Compare(r.Name, o.Name); c != 0 {
		return c
	}
	if c := cmp.Compare(r.Id, o.Id); c != 0 {
		return c
	}
	return cmp.Compare(r.Channel, o.Channel)
}

type DsmrId struct {
	Hostname string
}

func (DsmrId) isDeviceId() {}

func (d DsmrId) String() string {
	return d.Hostname
}

// BleNames maps bluetooth sensors to display names.
type BleNames map[BleMacId]string

// RfNames maps 433MHz sensors to display names.
type RfNames map[RfId]string
