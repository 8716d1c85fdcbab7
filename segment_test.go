package wirechain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySegment(t *testing.T) {
	s := NewSegment(nil)
	assert.False(t, s.HasStore())
	assert.False(t, s.IsEmpty())
	assert.False(t, s.InRange(0))

	_, err := s.Begin()
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = s.End()
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = s.Bytes()
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = s.Capacity()
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = s.Used()
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = s.Offset()
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = s.Next()
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.ErrorIs(t, s.SetUsed(0), ErrUninitialized)
	assert.ErrorIs(t, s.SetCapacity(0), ErrUninitialized)
	assert.ErrorIs(t, s.SetOffset(0), ErrUninitialized)
	assert.ErrorIs(t, s.SetRangeBegin(0), ErrUninitialized)
}

func TestSegmentConstructors(t *testing.T) {
	s := NewSegment(NewStore([]byte("hello")))
	used, err := s.Used()
	require.NoError(t, err)
	assert.Equal(t, 5, used)

	r, err := NewSegmentRange(NewStore([]byte("hello world")), 6, 11)
	require.NoError(t, err)
	b, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "world", string(b))
	begin, _ := r.Begin()
	end, _ := r.End()
	assert.Equal(t, 6, begin)
	assert.Equal(t, 11, end)

	_, err = NewSegmentRange(NewStore([]byte("abc")), 2, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = NewSegmentRange(NewStore([]byte("abc")), 2, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = NewSegmentRange(nil, 0, 0)
	assert.ErrorIs(t, err, ErrUninitialized)

	src := []byte("copy")
	c := SegmentFromBytes(src)
	src[0] = 'X'
	b, _ = c.Bytes()
	assert.Equal(t, "copy", string(b))
	assert.False(t, c.Store().ReadOnly())

	a := AllocSegment(32, nil)
	assert.True(t, a.IsEmpty())
	capacity, _ := a.Capacity()
	assert.Equal(t, 32, capacity)
}

func TestSegmentMutators(t *testing.T) {
	s := AllocSegment(10, nil)
	require.NoError(t, s.SetUsed(4))
	assert.ErrorIs(t, s.SetUsed(11), ErrOutOfRange)
	assert.ErrorIs(t, s.SetUsed(-1), ErrOutOfRange)

	assert.ErrorIs(t, s.SetCapacity(3), ErrOutOfRange)
	assert.ErrorIs(t, s.SetCapacity(11), ErrOutOfRange)
	require.NoError(t, s.SetCapacity(6))
	capacity, _ := s.Capacity()
	assert.Equal(t, 6, capacity)

	require.NoError(t, s.SetOffset(100))
	assert.ErrorIs(t, s.SetOffset(-1), ErrOutOfRange)
	assert.True(t, s.InRange(100))
	assert.True(t, s.InRange(103))
	assert.False(t, s.InRange(104))
	assert.False(t, s.InRange(99))

	require.NoError(t, s.SetRangeBegin(2))
	capacity, _ = s.Capacity()
	assert.Equal(t, 4, capacity)
	assert.ErrorIs(t, s.SetRangeBegin(3), ErrOutOfRange)
}

func TestSegmentEqual(t *testing.T) {
	a := SegmentFromBytes([]byte("abc"))
	b := NewSegment(NewStore([]byte("abc")))
	c := NewSegment(NewStore([]byte("abd")))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	require.NoError(t, b.SetUsed(2))
	assert.False(t, a.Equal(b))
	assert.True(t, NewSegment(nil).Equal(&Segment{}))
	assert.False(t, a.Equal(NewSegment(nil)))
}

func TestSegmentRelease(t *testing.T) {
	store := AllocStore(8, nil)
	s := NewSegment(store.Retain())
	require.NoError(t, s.Release())
	assert.False(t, s.HasStore())
	assert.Equal(t, 1, store.Refs())

	linked := AllocSegment(8, nil)
	_, err := Wrap(linked, Options{})
	require.NoError(t, err)
	assert.ErrorIs(t, linked.Release(), ErrPrecondition)
}
