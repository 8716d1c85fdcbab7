package wirechain

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Chain is one logical byte sequence stored in a singly linked list of
// segments. Writes go at the cursor and grow the chain a segment at a time;
// bytes already written are never moved.
//
// Segment offsets are contiguous: each segment starts where the previous
// one's used bytes end. Every segment except the tail has capacity equal to
// its used size.
//
// A Chain is not safe for concurrent use.
type Chain struct {
	head     *Segment
	tail     *Segment
	current  *Segment
	position int
	capacity int

	typ         uint64
	valueOffset int
	elements    []*Chain
	gather      GatherView

	opts Options
	log  zerolog.Logger
}

// New returns a chain with no segments.
func New(opts Options) *Chain {
	opts = opts.withDefaults()
	return &Chain{opts: opts, log: *opts.Logger}
}

// NewWithCapacity returns a chain holding one empty segment of capacity bytes.
func NewWithCapacity(capacity int, opts Options) *Chain {
	c := New(opts)
	seg := AllocSegment(max(capacity, 0), c.opts.Pool)
	c.adopt(seg)
	return c
}

// Wrap adopts seg as the only segment of a new chain, positioned after its
// used bytes. seg must not already belong to a chain.
func Wrap(seg *Segment, opts Options) (*Chain, error) {
	if seg == nil || !seg.HasStore() {
		return nil, ErrUninitialized
	}
	if seg.Linked() {
		return nil, fmt.Errorf("%w: segment is already linked", ErrPrecondition)
	}
	c := New(opts)
	c.adopt(seg)
	return c, nil
}

// FromBytes wraps received bytes without copying. The bytes are read-only
// through the chain; appends grow into fresh segments.
func FromBytes(b []byte, opts Options) *Chain {
	c := New(opts)
	c.adopt(NewSegment(NewStore(b)))
	return c
}

func (c *Chain) adopt(seg *Segment) {
	seg.offset = 0
	seg.chained = true
	c.head, c.tail, c.current = seg, seg, seg
	c.position = seg.used
	c.capacity = seg.capacity()
	c.gather = nil
	c.segmentLinked(seg)
}

// HasSegments reports whether the chain holds at least one segment.
func (c *Chain) HasSegments() bool { return c.head != nil }

func (c *Chain) Position() (int, error) {
	if c.head == nil {
		return 0, ErrUninitialized
	}
	return c.position, nil
}

func (c *Chain) Capacity() (int, error) {
	if c.head == nil {
		return 0, ErrUninitialized
	}
	return c.capacity, nil
}

// Size returns the number of valid bytes.
func (c *Chain) Size() (int, error) {
	if c.head == nil {
		return 0, ErrUninitialized
	}
	return c.size(), nil
}

func (c *Chain) size() int {
	if c.tail == nil {
		return 0
	}
	return c.tail.offset + c.tail.used
}

// Type returns the TLV type of a parsed sub-element, 0 otherwise.
func (c *Chain) Type() uint64 { return c.typ }

// ValueOffset returns where the value of a parsed sub-element starts, after
// its type and length.
func (c *Chain) ValueOffset() int { return c.valueOffset }

// ValueSize returns the value length of a parsed sub-element.
func (c *Chain) ValueSize() int { return c.size() - c.valueOffset }

// SegmentCount returns the number of linked segments.
func (c *Chain) SegmentCount() int {
	n := 0
	for s := c.head; s != nil; s = s.next {
		n++
	}
	return n
}

// Segments returns the linked segments in order. They remain owned by the
// chain.
func (c *Chain) Segments() []*Segment {
	out := make([]*Segment, 0, 4)
	for s := c.head; s != nil; s = s.next {
		out = append(out, s)
	}
	return out
}

// findSegment returns the segment holding pos and pos relative to it. pos may
// equal the size, in which case the tail is returned.
func (c *Chain) findSegment(pos int) (*Segment, int, error) {
	if c.head == nil {
		return nil, 0, ErrUninitialized
	}
	if pos < 0 || pos > c.size() {
		return nil, 0, fmt.Errorf("%w: position %d of size %d", ErrOutOfRange, pos, c.size())
	}
	if c.current != nil && c.current.InRange(pos) {
		return c.current, pos - c.current.offset, nil
	}
	for s := c.head; s != nil; s = s.next {
		if s.InRange(pos) {
			return s, pos - s.offset, nil
		}
	}
	return c.tail, pos - c.tail.offset, nil
}

// SetPosition moves the cursor to pos, which may not exceed the size.
func (c *Chain) SetPosition(pos int) error {
	seg, _, err := c.findSegment(pos)
	if err != nil {
		return err
	}
	c.current = seg
	c.position = pos
	return nil
}

// Finalize cuts the chain at the cursor: segments after the one holding the
// cursor are released and that segment keeps only the bytes before the
// cursor. Its unused capacity becomes writable again.
func (c *Chain) Finalize() error {
	if c.head == nil || c.position >= c.size() {
		return nil
	}
	seg, _, err := c.findSegment(c.position)
	if err != nil {
		return err
	}
	dropped := 0
	for s := seg.next; s != nil; {
		next := s.next
		s.next = nil
		c.capacity -= s.capacity()
		s.release()
		c.segmentReleased()
		dropped++
		s = next
	}
	seg.next = nil
	seg.used = c.position - seg.offset
	if !seg.writable() {
		// received bytes past the cut can never be rewritten
		c.capacity -= seg.capacity() - seg.used
		seg.end = seg.begin + seg.used
	}
	c.tail = seg
	c.current = seg
	c.gather = nil

	c.log.Debug().
		Int("position", c.position).
		Int("dropped", dropped).
		Int("capacity", c.capacity).
		Msg("chain finalized")
	return nil
}

// ByteAt returns the byte at pos without moving the cursor.
func (c *Chain) ByteAt(pos int) (byte, error) {
	if c.head == nil {
		return 0, ErrUninitialized
	}
	if pos < 0 || pos >= c.capacity {
		return 0, fmt.Errorf("%w: position %d of capacity %d", ErrOutOfRange, pos, c.capacity)
	}
	for s := c.head; s != nil; s = s.next {
		if s.InRange(pos) {
			return s.store.buf[s.begin+pos-s.offset], nil
		}
	}
	return 0, fmt.Errorf("%w: position %d holds no data", ErrOutOfRange, pos)
}

// Release gives back every segment and every parsed sub-element. The chain
// is empty afterwards and may be written again.
func (c *Chain) Release() {
	for s := c.head; s != nil; {
		next := s.next
		s.next = nil
		s.release()
		c.segmentReleased()
		s = next
	}
	c.releaseElements()
	c.head, c.tail, c.current = nil, nil, nil
	c.position, c.capacity, c.valueOffset = 0, 0, 0
	c.gather = nil
}

func (c *Chain) segmentLinked(seg *Segment) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.SegmentLinked(seg.capacity())
	}
}

func (c *Chain) segmentReleased() {
	if c.opts.Metrics != nil {
		c.opts.Metrics.SegmentReleased()
	}
}
