package domain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMiTempMac(t *testing.T) {

	require := require.New(t)

	addr, err := ParseMiTempMac("391D5B")
	require.NoError(err)
	require.Equal(BleMacId{0x5B, 0x1D, 0x39, 0x34, 0x2D, 0x58}, addr)
	require.Equal("58:2D:34:39:1D:5B", addr.String())
	require.Equal("391D5B", addr.MacSuffix())

	lower, err := ParseMiTempMac("391d5b")
	require.NoError(err)
	require.Equal(addr, lower)
}

func TestMiTempMacRoundTrip(t *testing.T) {

	require := require.New(t)

	for i := 0; i < 1<<24; i += 0x10101 {
		addr := BleMacId{byte(i), byte(i >> 8), byte(i >> 16), 0x34, 0x2D, 0x58}
		parsed, err := ParseMiTempMac(addr.MacSuffix())
		require.NoError(err, addr.String())
		require.Equal(addr, parsed)
	}
}

func TestParseMiTempMacInvalid(t *testing.T) {

	assert := assert.New(t)

	for _, part := range []string{"", "391D5", "391D5B0", "ZZZZZZ", "39 D5B"} {
		_, err := ParseMiTempMac(part)
		assert.ErrorIs(err, ErrInvalidMac, part)
	}
}

func TestRfIdOrdering(t *testing.T) {

	assert := assert.New(t)

	ids := []RfId{
		{Name: "b", Id: 1},
		{Name: "a", Id: 2, Channel: 1},
		{Name: "a", Id: 2},
		{Name: "a", Id: 1, Channel: 3},
	}
	slices.SortFunc(ids, RfId.Compare)
	assert.Equal([]RfId{
		{Name: "a", Id: 1, Channel: 3},
		{Name: "a", Id: 2},
		{Name: "a", Id: 2, Channel: 1},
		{Name: "b", Id: 1},
	}, ids)
	assert.Equal("a:2:1", ids[2].String())
}

func TestTasmotaTopic(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("cmnd/plug1/POWER", TasmotaId{Hostname: "plug1"}.Topic("cmnd", "POWER"))
}
