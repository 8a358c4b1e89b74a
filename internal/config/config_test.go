package config

import (
	"testing"

	"github.com/berfenger/taspromto/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBleNames(t *testing.T) {

	require := require.New(t)

	names, err := ParseBleNames("391D5B=Living Room, AABBCC=Kitchen")
	require.NoError(err)
	require.Len(names, 2)

	living, _ := domain.ParseMiTempMac("391D5B")
	kitchen, _ := domain.ParseMiTempMac("AABBCC")
	require.Equal("Living Room", names[living])
	require.Equal("Kitchen", names[kitchen])
	require.Equal("391D5B", living.MacSuffix())
}

func TestParseBleNamesEmpty(t *testing.T) {

	assert := assert.New(t)

	names, err := ParseBleNames("")
	assert.NoError(err)
	assert.Empty(names)
}

func TestParseBleNamesInvalid(t *testing.T) {

	assert := assert.New(t)

	for _, raw := range []string{"391D5B", "391D5B=", "391D5=Living", "ZZZZZZ=Living"} {
		_, err := ParseBleNames(raw)
		assert.ErrorIs(err, ErrInvalidNames, raw)
	}
}

func TestParseRfNames(t *testing.T) {

	require := require.New(t)

	names, err := ParseRfNames("Bresser-3CH:49:1=Garden,Bresser-3CH:50:2=Shed")
	require.NoError(err)
	require.Equal(domain.RfNames{
		{Name: "Bresser-3CH", Id: 49, Channel: 1}: "Garden",
		{Name: "Bresser-3CH", Id: 50, Channel: 2}: "Shed",
	}, names)
}

func TestParseRfNamesInvalid(t *testing.T) {

	assert := assert.New(t)

	for _, raw := range []string{"Bresser:49=Garden", ":49:1=Garden", "Bresser:x:1=Garden", "Bresser:49:300=Garden", "Bresser:49:1"} {
		_, err := ParseRfNames(raw)
		assert.ErrorIs(err, ErrInvalidNames, raw)
	}
}

func TestCheckRfMessageTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := CheckRfMessageTopic("rflink/msg")
	assert.NoError(err)
	assert.Equal("rflink/msg", topic)

	_, err = CheckRfMessageTopic("home/rf-gw_1/msg")
	assert.NoError(err)

	for _, raw := range []string{"", "msg", "rflink/+/msg", "rflink/#", "rflink/out"} {
		_, err := CheckRfMessageTopic(raw)
		assert.Error(err, raw)
	}
}

func TestSweepConfigDurations(t *testing.T) {

	assert := assert.New(t)

	cfg := SweepConfig{IntervalSeconds: 60, PingAfterSeconds: 600, RemoveAfterSeconds: 900}
	assert.Equal(float64(60), cfg.Interval().Seconds())
	assert.Equal(float64(10), cfg.PingAfter().Minutes())
	assert.Equal(float64(15), cfg.RemoveAfter().Minutes())
}
