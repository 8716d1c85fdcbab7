package wirechain

import (
	"bytes"
	"testing"

	"github.com/rawbytedev/wirechain/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tlv(typ uint64, value []byte) []byte {
	b := common.AppendVarNumber(nil, typ)
	b = common.AppendVarNumber(b, uint64(len(value)))
	return append(b, value...)
}

// threeElements builds a chain whose 32-byte value of type 300 starts in the
// first 20-byte segment and ends in the second.
func threeElements(t *testing.T, opts Options) (*Chain, []byte) {
	t.Helper()
	value := bytes.Repeat([]byte{0xAB}, 32)
	wire := append(tlv(1, []byte("a")), tlv(2, nil)...)
	wire = append(wire, tlv(300, value)...)
	c := NewWithCapacity(20, opts)
	_, err := c.Write(wire)
	require.NoError(t, err)
	require.Equal(t, 2, c.SegmentCount())
	return c, wire
}

func TestParseThreeElements(t *testing.T) {
	m := &countingMetrics{}
	c, wire := threeElements(t, Options{Metrics: m})
	require.NoError(t, c.Parse())
	require.Equal(t, 3, c.ElementCount())
	assert.Equal(t, 3, m.parsed)

	els := c.Elements()
	assert.Equal(t, uint64(1), els[0].Type())
	assert.Equal(t, 1, els[0].ValueSize())
	assert.Equal(t, []byte{0x01, 0x01, 'a'}, els[0].Linearize())

	assert.Equal(t, uint64(2), els[1].Type())
	assert.Equal(t, 0, els[1].ValueSize())
	assert.Equal(t, 2, els[1].ValueOffset())
	assert.Equal(t, []byte{0x02, 0x00}, els[1].Linearize())

	big := els[2]
	assert.Equal(t, uint64(300), big.Type())
	assert.Equal(t, 4, big.ValueOffset())
	assert.Equal(t, 32, big.ValueSize())
	assert.Equal(t, 2, big.SegmentCount())
	assert.Equal(t, wire[5:], big.Linearize())

	// element bytes alias the parent storage
	parent := c.Segments()[0]
	view := big.Segments()[0]
	assert.Same(t, parent.Store(), view.Store())

	var joined []byte
	for _, e := range els {
		joined = append(joined, e.Linearize()...)
	}
	assert.Equal(t, wire, joined)
}

func TestParseIsIdempotent(t *testing.T) {
	c, _ := threeElements(t, Options{})
	require.NoError(t, c.Parse())
	first := c.Elements()
	require.NoError(t, c.Parse())
	assert.Equal(t, first, c.Elements())
}

func TestElementsIsACopy(t *testing.T) {
	c, _ := threeElements(t, Options{})
	require.NoError(t, c.Parse())
	els := c.Elements()
	els[0] = nil
	assert.NotNil(t, c.Elements()[0])
}

func TestGetAndFind(t *testing.T) {
	c, _ := threeElements(t, Options{})
	require.NoError(t, c.Parse())

	e, err := c.Get(300)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), e.Type())

	i, ok := c.Find(2)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, err = c.Get(7)
	assert.ErrorIs(t, err, ErrNotFound)
	i, ok = c.Find(7)
	assert.False(t, ok)
	assert.Equal(t, -1, i)
}

func TestParseFramingError(t *testing.T) {
	m := &countingMetrics{}
	b := []byte{0x01, 0x05, 'a', 0x02, 0x00}
	c := FromBytes(b, Options{Metrics: m})

	err := c.Parse()
	require.ErrorIs(t, err, ErrFraming)
	assert.Zero(t, c.ElementCount())
	assert.Equal(t, 1, m.failed)

	b[1] = 0x01
	require.NoError(t, c.Parse())
	require.Equal(t, 2, c.ElementCount())
	assert.Equal(t, uint64(2), c.Elements()[1].Type())
}

func TestParseFailureDropsEarlierElements(t *testing.T) {
	m := &countingMetrics{}
	c := FromBytes([]byte{0x01, 0x01, 'a', 0x02, 0x09, 'b'}, Options{Metrics: m})
	require.ErrorIs(t, c.Parse(), ErrFraming)
	assert.Zero(t, c.ElementCount())
	// the good element was sliced and released again
	assert.Equal(t, m.linked, m.released+1)
}

func TestParseTruncatedHeader(t *testing.T) {
	cases := map[string][]byte{
		"type":   {0xFD, 0x01},
		"length": {0x05},
		"wide":   {0x05, 0xFE, 0x00, 0x00},
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			c := FromBytes(b, Options{})
			err := c.Parse()
			require.ErrorIs(t, err, ErrFraming)
			assert.ErrorIs(t, err, common.ErrIncomplete)
			assert.Zero(t, c.ElementCount())
		})
	}
}

func TestParseReceivedSegments(t *testing.T) {
	wire := append(tlv(7, []byte("hello world")), tlv(8, []byte("xyz"))...)
	c := FromBytes(wire[:6], Options{})
	_, err := c.AppendSegment(NewSegment(NewStore(wire[6:10])))
	require.NoError(t, err)
	_, err = c.AppendSegment(NewSegment(NewStore(wire[10:])))
	require.NoError(t, err)

	require.NoError(t, c.Parse())
	require.Equal(t, 2, c.ElementCount())
	first, err := c.Get(7)
	require.NoError(t, err)
	assert.Equal(t, 3, first.SegmentCount())
	assert.Equal(t, tlv(7, []byte("hello world")), first.Linearize())
	second, err := c.Get(8)
	require.NoError(t, err)
	assert.Equal(t, tlv(8, []byte("xyz")), second.Linearize())
}

func TestParseRefcounts(t *testing.T) {
	c, _ := threeElements(t, Options{})
	require.NoError(t, c.Parse())

	segs := c.Segments()
	headStore, tailStore := segs[0].Store(), segs[1].Store()
	// parent plus one view per element touching the segment
	assert.Equal(t, 4, headStore.Refs())
	assert.Equal(t, 2, tailStore.Refs())

	c.Release()
	assert.Equal(t, 0, headStore.Refs())
	assert.Equal(t, 0, tailStore.Refs())
	assert.Nil(t, headStore.Bytes())
}

func TestElementOutlivesTruncation(t *testing.T) {
	c, wire := threeElements(t, Options{})
	require.NoError(t, c.Parse())
	big, err := c.Get(300)
	require.NoError(t, err)
	tailStore := c.Segments()[1].Store()

	require.NoError(t, c.SetPosition(0))
	require.NoError(t, c.Finalize())
	require.Equal(t, 1, c.SegmentCount())
	assert.Equal(t, 1, tailStore.Refs())
	assert.Equal(t, wire[5:], big.Linearize())

	c.Release()
	assert.Equal(t, 0, tailStore.Refs())
	assert.Nil(t, tailStore.Bytes())
}

func TestWriteAfterParseKeepsElements(t *testing.T) {
	c, _ := threeElements(t, Options{})
	require.NoError(t, c.Parse())
	e := c.Elements()[0]
	before := e.Linearize()

	_, err := c.Write([]byte{0x09, 0x00})
	require.NoError(t, err)
	assert.Equal(t, before, e.Linearize())
	// a populated parse is not redone
	require.NoError(t, c.Parse())
	assert.Equal(t, 3, c.ElementCount())
}

func TestOverwriteUnderParsedElementFails(t *testing.T) {
	c, _ := threeElements(t, Options{})
	require.NoError(t, c.Parse())
	first, err := c.Get(1)
	require.NoError(t, err)

	require.NoError(t, c.SetPosition(0))
	require.NoError(t, c.Finalize())
	_, err = c.Write([]byte{0x63, 0x01, 'Z'})
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, []byte{0x01, 0x01, 'a'}, first.Linearize())
	assert.Equal(t, uint64(1), first.Type())
}

func TestOverwriteAllowedAfterFailedParse(t *testing.T) {
	c := NewWithCapacity(16, Options{})
	_, err := c.Write([]byte{0x01, 0x01, 'a', 0x02, 0x09, 'b'})
	require.NoError(t, err)
	require.ErrorIs(t, c.Parse(), ErrFraming)

	// nothing holds views any more, so the bytes can be fixed in place
	require.NoError(t, c.SetPosition(0))
	require.NoError(t, c.WriteByte(0x05))
	require.NoError(t, c.SetPosition(4))
	require.NoError(t, c.WriteByte(0x01))

	require.NoError(t, c.Parse())
	require.Equal(t, 2, c.ElementCount())
	assert.Equal(t, uint64(5), c.Elements()[0].Type())
	assert.Equal(t, []byte{0x02, 0x01, 'b'}, c.Elements()[1].Linearize())
}

func TestParseManySegmentsSequentially(t *testing.T) {
	var wire []byte
	for i := range 300 {
		wire = append(wire, tlv(uint64(i%250+1), pattern(i%40))...)
	}
	c := NewWithCapacity(7, Options{Policy: Policy{SegmentSize: 16, Headroom: 9}})
	_, err := c.Write(wire)
	require.NoError(t, err)
	require.Greater(t, c.SegmentCount(), 100)

	require.NoError(t, c.Parse())
	require.Equal(t, 300, c.ElementCount())
	var joined []byte
	for i, e := range c.Elements() {
		assert.Equal(t, uint64(i%250+1), e.Type())
		assert.Equal(t, i%40, e.ValueSize())
		joined = append(joined, e.Linearize()...)
	}
	assert.Equal(t, wire, joined)
}

func FuzzParse(f *testing.F) {
	f.Add([]byte{0x01, 0x01, 'a', 0x02, 0x00})
	f.Add([]byte{0xFD, 0x01, 0x2C, 0x02, 0xAB, 0xCD})
	f.Add([]byte{0x01, 0x05, 'a'})
	f.Fuzz(func(t *testing.T, data []byte) {
		c := NewWithCapacity(7, Options{Policy: Policy{SegmentSize: 16, Headroom: 9}})
		_, err := c.Write(data)
		require.NoError(t, err)

		if err := c.Parse(); err != nil {
			require.ErrorIs(t, err, ErrFraming)
			require.Zero(t, c.ElementCount())
			return
		}
		var joined []byte
		for _, e := range c.Elements() {
			require.Equal(t, e.ValueSize()+e.ValueOffset(), len(e.Linearize()))
			joined = append(joined, e.Linearize()...)
		}
		require.Equal(t, len(data), len(joined))
		if len(data) > 0 {
			require.Equal(t, data, joined)
		}
	})
}
