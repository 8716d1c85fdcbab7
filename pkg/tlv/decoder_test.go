package tlv

import (
	"bytes"
	"testing"

	"github.com/rawbytedev/wirechain"
	"github.com/rawbytedev/wirechain/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHelper(t *testing.T) {
	c, err := Parse([]byte{0x05, 0x02, 0x01, 0x00}, wirechain.Options{})
	require.NoError(t, err)
	el, err := c.Get(5)
	require.NoError(t, err)
	v, err := NonNegativeInteger(el)
	require.NoError(t, err)
	assert.Equal(t, uint64(256), v)

	_, err = Parse([]byte{0x05, 0x09}, wirechain.Options{})
	assert.ErrorIs(t, err, wirechain.ErrFraming)
}

func TestNonNegativeIntegerInvalidWidth(t *testing.T) {
	for _, width := range []int{0, 3, 5, 9} {
		wire := append([]byte{0x01, byte(width)}, make([]byte, width)...)
		c, err := Parse(wire, wirechain.Options{})
		require.NoError(t, err)
		_, err = NonNegativeInteger(c.Elements()[0])
		assert.ErrorIs(t, err, ErrInvalidLength, "width %d", width)
	}
}

func TestValueIsZeroCopy(t *testing.T) {
	wire := []byte{0x01, 0x03, 'a', 'b', 'c'}
	c, err := Parse(wire, wirechain.Options{})
	require.NoError(t, err)
	v := Value(c.Elements()[0])
	require.Equal(t, []byte("abc"), v)
	assert.Same(t, &wire[2], &v[0])
}

func TestReadVarNumberIncomplete(t *testing.T) {
	_, err := ReadVarNumber(bytes.NewReader([]byte{0xFE, 0x01}))
	assert.ErrorIs(t, err, common.ErrIncomplete)
	_, err = ReadVarNumber(bytes.NewReader(nil))
	assert.ErrorIs(t, err, common.ErrIncomplete)
}
