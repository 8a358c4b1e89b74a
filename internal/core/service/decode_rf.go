package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/berfenger/taspromto/internal/core/domain"
)

var ErrInvalidRfMessage = errors.New("invalid rf message")

// DecodeRfMessage decodes an rflink record:
//
//	20;1E;Bresser-3CH;ID=49;CHN=0001;BAT=OK;TEMP=00a1;HUM=58;
//
// Every field is required. TEMP is unsigned hex in tenths of a degree, so
// readings below zero can not be represented.
func DecodeRfMessage(payload string) (domain.RfMessage, error) {
	var msg domain.RfMessage

	fields := strings.Split(payload, ";")
	if len(fields) < 8 {
		return msg, fmt.Errorf("%w: expected 8 fields, got %d", ErrInvalidRfMessage, len(fields))
	}
	// fields[0] and fields[1] are the record type markers
	msg.Id.Name = fields[2]

	id, err := rfField(fields[3], "ID=")
	if err == nil {
		var v uint64
		v, err = strconv.ParseUint(id, 10, 16)
		msg.Id.Id = uint16(v)
	}
	if err != nil {
		return msg, rfError("ID", err)
	}

	channel, err := rfField(fields[4], "CHN=")
	if err == nil {
		var v uint64
		v, err = strconv.ParseUint(channel, 10, 8)
		msg.Id.Channel = uint8(v)
	}
	if err != nil {
		return msg, rfError("CHN", err)
	}

	battery, err := rfField(fields[5], "BAT=")
	if err != nil {
		return msg, rfError("BAT", err)
	}
	msg.BatteryOk = battery == "OK"

	temp, err := rfField(fields[6], "TEMP=")
	if err == nil {
		var v uint64
		v, err = strconv.ParseUint(temp, 16, 16)
		msg.Temperature = float32(v) / 10
	}
	if err != nil {
		return msg, rfError("TEMP", err)
	}

	humidity, err := rfField(fields[7], "HUM=")
	if err == nil {
		var v float64
		v, err = strconv.ParseFloat(humidity, 32)
		msg.Humidity = float32(v)
	}
	if err != nil {
		return msg, rfError("HUM", err)
	}

	return msg, nil
}

func rfField(field, prefix string) (string, error) {
	value, ok := strings.CutPrefix(field, prefix)
	if !ok {
		return "", fmt.Errorf("missing %q prefix in %q", prefix, field)
	}
	return value, nil
}

func rfError(field string, err error) error {
	return fmt.Errorf("%w: field %s: %s", ErrInvalidRfMessage, field, err)
}
