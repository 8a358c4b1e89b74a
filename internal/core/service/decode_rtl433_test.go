package service

import (
	"testing"

	"github.com/berfenger/taspromto/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRtl433Reassembly(t *testing.T) {

	require := require.New(t)

	d := NewRtl433Decoder()

	_, _, ok := d.Decode("deviceA", "id", "7")
	require.False(ok)
	_, _, ok = d.Decode("deviceA", "channel", "2")
	require.False(ok)

	id, update, ok := d.Decode("deviceA", "temperature_F", "98.6")
	require.True(ok)
	require.Equal(domain.RfId{Name: "deviceA", Id: 7, Channel: 2}, id)
	require.NotNil(update.Temperature)
	require.InDelta(37.0, *update.Temperature, 0.01)
	require.Nil(update.Humidity)

	id, update, ok = d.Decode("deviceA", "humidity", "45")
	require.True(ok)
	require.Equal(domain.RfId{Name: "deviceA", Id: 7, Channel: 2}, id)
	require.Equal(float32(45), *update.Humidity)
	require.Nil(update.Temperature)
}

func TestRtl433ReadingBeforeIdentity(t *testing.T) {

	require := require.New(t)

	d := NewRtl433Decoder()

	id, _, ok := d.Decode("deviceA", "temperature_F", "50")
	require.True(ok)
	require.Equal(domain.RfId{Name: "deviceA"}, id)
}

func TestRtl433DeviceChangeResetsIdentity(t *testing.T) {

	assert := assert.New(t)

	d := NewRtl433Decoder()
	d.Decode("deviceA", "id", "7")
	d.Decode("deviceA", "channel", "2")
	assert.Equal(domain.RfId{Name: "deviceA", Id: 7, Channel: 2}, d.Active())

	id, _, ok := d.Decode("deviceB", "humidity", "30")
	assert.True(ok)
	assert.Equal(domain.RfId{Name: "deviceB"}, id)
	assert.Equal(domain.RfId{Name: "deviceB"}, d.Active())
}

func TestRtl433InvalidValues(t *testing.T) {

	assert := assert.New(t)

	d := NewRtl433Decoder()
	d.Decode("deviceA", "id", "seven")
	d.Decode("deviceA", "channel", "999")
	assert.Equal(domain.RfId{Name: "deviceA"}, d.Active())

	d.Decode("deviceA", "id", "7")
	d.Decode("deviceA", "channel", "2")
	d.Decode("deviceA", "channel", "-1")
	assert.Equal(domain.RfId{Name: "deviceA", Id: 7}, d.Active())

	_, update, ok := d.Decode("deviceA", "humidity", "wet")
	assert.True(ok)
	assert.Equal(float32(0), *update.Humidity)

	_, _, ok = d.Decode("deviceA", "battery_ok", "1")
	assert.False(ok)
}

func TestRtl433IdOutOfRange(t *testing.T) {

	assert := assert.New(t)

	for _, value := range []string{"65536", "70000", "-3"} {
		d := NewRtl433Decoder()
		d.Decode("deviceA", "id", "7")
		d.Decode("deviceA", "id", value)
		assert.Equal(domain.RfId{Name: "deviceA"}, d.Active(), value)
	}

	d := NewRtl433Decoder()
	d.Decode("deviceA", "id", "65535")
	d.Decode("deviceA", "channel", "255")
	assert.Equal(domain.RfId{Name: "deviceA", Id: 65535, Channel: 255}, d.Active())
}
