package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSCFloatRoundTrip(t *testing.T) {
	cases := []struct {
		address string
		value   float32
	}{
		{"/track/0/volume", 0.85},
		{"/track/12/pan", -1.0},
		{"/tempo", 140.0},
		{"/a", 0},                       // shortest legal address
		{"/track/3/volume", 0.1},        // value with no exact binary form
		{"/some/longer/address/x", 1e9}, // large magnitude
	}
	for _, tc := range cases {
		data, err := EncodeOSCFloat(tc.address, tc.value)
		require.NoError(t, err, tc.address)
		assert.Zero(t, len(data)%4, "%s: datagram must be 4-byte aligned", tc.address)

		update, err := DecodeOSC(data)
		require.NoError(t, err, tc.address)
		assert.Equal(t, tc.address, update.Address)
		assert.True(t, update.IsFloat)
		assert.Equal(t, tc.value, update.Float, "%s: float argument must round-trip exactly", tc.address)
	}
}

func TestOSCIntRoundTrip(t *testing.T) {
	for _, value := range []int32{0, 1, -1, 127, -2147483648, 2147483647} {
		data, err := EncodeOSCInt("/clip/fire", value)
		require.NoError(t, err)

		update, err := DecodeOSC(data)
		require.NoError(t, err)
		assert.Equal(t, "/clip/fire", update.Address)
		assert.False(t, update.IsFloat)
		assert.Equal(t, value, update.Int)
		assert.Equal(t, float64(value), update.Value())
	}
}

func TestOSCAddressPadding(t *testing.T) {
	// "/abc" is 4 bytes: the terminator forces a full extra padding word.
	data, err := EncodeOSCFloat("/abc", 1.0)
	require.NoError(t, err)
	assert.Equal(t, []byte{'/', 'a', 'b', 'c', 0, 0, 0, 0}, data[:8])
	assert.Equal(t, []byte{',', 'f', 0, 0}, data[8:12])
	assert.Len(t, data, 16)
}

func TestOSCEncodeRejectsBadAddress(t *testing.T) {
	_, err := EncodeOSCFloat("no-leading-slash", 1.0)
	assert.Error(t, err)

	_, err = EncodeOSCFloat("/has\x00nul", 1.0)
	assert.Error(t, err)
}

func TestOSCDecodeRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":              {},
		"unterminated":       {'/', 'a', 'b', 'c'},
		"missing argument":   {'/', 'a', 0, 0, ',', 'f', 0, 0},
		"truncated argument": {'/', 'a', 0, 0, ',', 'f', 0, 0, 1, 2},
		"unsupported type":   {'/', 'a', 0, 0, ',', 's', 0, 0, 1, 2, 3, 4},
		"no slash":           {'a', 'b', 'c', 0, ',', 'f', 0, 0, 1, 2, 3, 4},
	}
	for name, data := range cases {
		_, err := DecodeOSC(data)
		assert.Error(t, err, name)
	}
}
