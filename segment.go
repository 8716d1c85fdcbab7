package wirechain

import (
	"bytes"
	"fmt"

	"github.com/rawbytedev/wirechain/pkg/bufpool"
)

// Segment is a view [begin, end) into a Store. used bytes of the range hold
// data; offset places the first byte inside the owning chain.
//
// A segment without a store is empty: every accessor reports
// ErrUninitialized. Links between segments are managed by Chain only.
type Segment struct {
	store    *Store
	begin    int
	end      int
	used     int
	offset   int
	next     *Segment
	chained  bool
	readOnly bool
	// shared leading bytes are visible through views held elsewhere and
	// stay frozen while the store has other holders.
	shared   int
}

// NewSegment views the whole of store. All bytes count as used. The segment
// takes over the caller's reference to store.
func NewSegment(store *Store) *Segment {
	if store == nil {
		return &Segment{}
	}
	n := store.Len()
	return &Segment{store: store, end: n, used: n}
}

// NewSegmentRange views store[begin:end], all of it used. The segment takes
// over the caller's reference to store.
func NewSegmentRange(store *Store, begin, end int) (*Segment, error) {
	if store == nil {
		return nil, ErrUninitialized
	}
	if begin < 0 || begin > end || end > store.Len() {
		return nil, fmt.Errorf("%w: range [%d,%d) of %d-byte store", ErrOutOfRange, begin, end, store.Len())
	}
	return &Segment{store: store, begin: begin, end: end, used: end - begin}, nil
}

// SegmentFromBytes copies b into a fresh writable store.
func SegmentFromBytes(b []byte) *Segment {
	s := AllocStore(len(b), nil)
	copy(s.buf, b)
	return NewSegment(s)
}

// AllocSegment returns a writable segment of the given capacity with nothing
// used yet.
func AllocSegment(capacity int, pool *bufpool.Pool) *Segment {
	return &Segment{store: AllocStore(capacity, pool), end: capacity}
}

func (s *Segment) HasStore() bool { return s.store != nil }

// IsEmpty reports a segment that has a store but no used bytes.
func (s *Segment) IsEmpty() bool { return s.store != nil && s.used == 0 }

// Linked reports whether the segment already belongs to a chain.
func (s *Segment) Linked() bool { return s.chained || s.next != nil }

func (s *Segment) Store() *Store { return s.store }

func (s *Segment) Begin() (int, error) {
	if s.store == nil {
		return 0, ErrUninitialized
	}
	return s.begin, nil
}

func (s *Segment) End() (int, error) {
	if s.store == nil {
		return 0, ErrUninitialized
	}
	return s.end, nil
}

// Bytes returns the used bytes without copying.
func (s *Segment) Bytes() ([]byte, error) {
	if s.store == nil {
		return nil, ErrUninitialized
	}
	return s.bytes(), nil
}

func (s *Segment) Capacity() (int, error) {
	if s.store == nil {
		return 0, ErrUninitialized
	}
	return s.capacity(), nil
}

func (s *Segment) Used() (int, error) {
	if s.store == nil {
		return 0, ErrUninitialized
	}
	return s.used, nil
}

func (s *Segment) Offset() (int, error) {
	if s.store == nil {
		return 0, ErrUninitialized
	}
	return s.offset, nil
}

func (s *Segment) Next() (*Segment, error) {
	if s.store == nil {
		return nil, ErrUninitialized
	}
	return s.next, nil
}

func (s *Segment) SetUsed(used int) error {
	if s.store == nil {
		return ErrUninitialized
	}
	if used < 0 || used > s.capacity() {
		return fmt.Errorf("%w: used %d of capacity %d", ErrOutOfRange, used, s.capacity())
	}
	s.used = used
	return nil
}

// SetCapacity moves the end of the range to begin+capacity.
func (s *Segment) SetCapacity(capacity int) error {
	if s.store == nil {
		return ErrUninitialized
	}
	if capacity < s.used || s.begin+capacity > s.store.Len() {
		return fmt.Errorf("%w: capacity %d (used %d, store %d)", ErrOutOfRange, capacity, s.used, s.store.Len())
	}
	s.end = s.begin + capacity
	return nil
}

func (s *Segment) SetOffset(offset int) error {
	if s.store == nil {
		return ErrUninitialized
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset %d", ErrOutOfRange, offset)
	}
	s.offset = offset
	return nil
}

// SetRangeBegin moves the start of the range, keeping its end.
func (s *Segment) SetRangeBegin(begin int) error {
	if s.store == nil {
		return ErrUninitialized
	}
	if begin < 0 || begin > s.end || s.end-begin < s.used {
		return fmt.Errorf("%w: begin %d of range [%d,%d) with %d used", ErrOutOfRange, begin, s.begin, s.end, s.used)
	}
	s.begin = begin
	return nil
}

// InRange reports whether pos falls on a used byte of this segment.
func (s *Segment) InRange(pos int) bool {
	return s.store != nil && s.offset <= pos && pos < s.offset+s.used
}

// Equal compares used sizes and used bytes.
func (s *Segment) Equal(other *Segment) bool {
	if s.store == nil || other == nil || other.store == nil {
		return s.store == nil && (other == nil || other.store == nil)
	}
	return s.used == other.used && bytes.Equal(s.bytes(), other.bytes())
}

func (s *Segment) capacity() int { return s.end - s.begin }

func (s *Segment) bytes() []byte { return s.store.buf[s.begin : s.begin+s.used] }

func (s *Segment) writable() bool {
	return !s.readOnly && !s.store.readOnly
}

// frozen reports whether writing at rel would change bytes another holder
// of the store can see.
func (s *Segment) frozen(rel int) bool {
	return rel < s.shared && s.store.Refs() > 1
}

// release drops the store reference and resets s to the empty state. The
// successor is not touched; the chain unlinks before releasing.
func (s *Segment) release() {
	if s.store != nil {
		s.store.Release()
	}
	*s = Segment{}
}

// Release detaches an unlinked segment from its store. Segments that belong
// to a chain are released through Chain.Release or Chain.Finalize.
func (s *Segment) Release() error {
	if s.Linked() {
		return fmt.Errorf("%w: segment is linked into a chain", ErrPrecondition)
	}
	s.release()
	return nil
}
