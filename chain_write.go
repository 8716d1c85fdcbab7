package wirechain

import (
	"fmt"
)

// Reserve prepares the chain for a write of length bytes at the cursor. When
// the current tail segment has less than the headroom left and cannot hold
// length, a new segment is started so that short fields such as TLV headers
// are not split. Otherwise the cursor only moves past a segment boundary.
func (c *Chain) Reserve(length int) error {
	if c.head == nil {
		c.grow()
		return nil
	}
	remaining, err := c.RemainingInCurrentSegment()
	if err != nil {
		return err
	}
	cur := c.current
	if remaining < length && remaining < c.opts.Policy.Headroom &&
		cur.next == nil && c.position == cur.offset+cur.used {
		c.grow()
		return nil
	}
	return c.advanceIfAtBoundary()
}

// RemainingInCurrentSegment returns the writable room left in the current
// segment.
func (c *Chain) RemainingInCurrentSegment() (int, error) {
	if c.head == nil {
		return 0, ErrUninitialized
	}
	n := c.current.offset + c.current.capacity() - c.position
	if n < 0 {
		return 0, fmt.Errorf("%w: position %d past segment end %d", ErrOutOfRange,
			c.position, c.current.offset+c.current.capacity())
	}
	return n, nil
}

func (c *Chain) advanceIfAtBoundary() error {
	if c.head == nil {
		c.grow()
		return nil
	}
	for c.position == c.current.offset+c.current.capacity() {
		if c.current.next != nil {
			c.current = c.current.next
			continue
		}
		c.grow()
	}
	if c.position > c.current.offset+c.current.capacity() {
		return fmt.Errorf("%w: position %d past segment end", ErrOutOfRange, c.position)
	}
	return nil
}

// grow links a fresh policy-sized segment after the tail and moves the
// cursor to its start. The superseded tail keeps only its used bytes.
func (c *Chain) grow() {
	seg := AllocSegment(c.opts.Policy.SegmentSize, c.opts.Pool)
	if c.head == nil {
		c.adopt(seg)
		c.log.Debug().Int("size", seg.capacity()).Msg("chain head allocated")
		return
	}
	old := c.tail
	c.capacity -= old.capacity() - old.used
	old.end = old.begin + old.used

	seg.offset = old.offset + old.used
	seg.chained = true
	old.next = seg
	c.tail, c.current = seg, seg
	c.position = seg.offset
	c.capacity += seg.capacity()
	c.gather = nil
	c.segmentLinked(seg)

	c.log.Debug().
		Int("offset", seg.offset).
		Int("size", seg.capacity()).
		Int("capacity", c.capacity).
		Msg("chain grown")
}

// writeAt stores p at the cursor inside the current segment and returns how
// many bytes fit.
func (c *Chain) writeAt(p []byte) (int, error) {
	seg := c.current
	if !seg.writable() {
		return 0, fmt.Errorf("%w: position %d is in read-only bytes", ErrPrecondition, c.position)
	}
	rel := c.position - seg.offset
	if seg.frozen(rel) {
		return 0, fmt.Errorf("%w: position %d is in bytes shared with parsed elements", ErrPrecondition, c.position)
	}
	n := copy(seg.store.buf[seg.begin+rel:seg.end], p)
	if rel+n > seg.used {
		seg.used = rel + n
	}
	c.position += n
	c.gather = nil
	return n, nil
}

// WriteByte writes v at the cursor.
func (c *Chain) WriteByte(v byte) error {
	if err := c.advanceIfAtBoundary(); err != nil {
		return err
	}
	_, err := c.writeAt([]byte{v})
	return err
}

// WriteUint8 writes v and returns 1.
func (c *Chain) WriteUint8(v uint8) (int, error) {
	if err := c.WriteByte(v); err != nil {
		return 0, err
	}
	return 1, nil
}

// WriteUint16 writes v big-endian and returns 2.
func (c *Chain) WriteUint16(v uint16) (int, error) {
	return c.writeUint(uint64(v), 2)
}

// WriteUint32 writes v big-endian and returns 4.
func (c *Chain) WriteUint32(v uint32) (int, error) {
	return c.writeUint(uint64(v), 4)
}

// WriteUint64 writes v big-endian and returns 8.
func (c *Chain) WriteUint64(v uint64) (int, error) {
	return c.writeUint(v, 8)
}

func (c *Chain) writeUint(v uint64, width int) (int, error) {
	if err := c.Reserve(width); err != nil {
		return 0, err
	}
	for shift := (width - 1) * 8; shift >= 0; shift -= 8 {
		if err := c.WriteByte(byte(v >> shift)); err != nil {
			return 0, err
		}
	}
	return width, nil
}

// AppendBytes copies p at the cursor, spilling into as many segments as it
// needs. It returns len(p) on success.
func (c *Chain) AppendBytes(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if err := c.advanceIfAtBoundary(); err != nil {
			return written, err
		}
		n, err := c.writeAt(p[written:])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Write implements io.Writer on top of AppendBytes.
func (c *Chain) Write(p []byte) (int, error) {
	return c.AppendBytes(p)
}

// AppendSegment links seg after the cursor without copying. The chain is
// finalized first, so anything past the cursor is dropped. seg must be a
// standalone segment; the chain takes ownership of it.
func (c *Chain) AppendSegment(seg *Segment) (int, error) {
	if seg == nil || !seg.HasStore() {
		return 0, ErrUninitialized
	}
	if seg.Linked() {
		return 0, fmt.Errorf("%w: segment is already linked", ErrPrecondition)
	}
	if seg.store.Refs() > 1 {
		seg.shared = seg.used
	}
	if c.head == nil {
		c.adopt(seg)
		return seg.used, nil
	}
	if err := c.Finalize(); err != nil {
		return 0, err
	}
	old := c.tail
	c.capacity -= old.capacity() - old.used
	old.end = old.begin + old.used

	seg.offset = c.position
	seg.chained = true
	old.next = seg
	c.tail, c.current = seg, seg
	c.position += seg.used
	c.capacity += seg.capacity()
	c.gather = nil
	c.segmentLinked(seg)
	return seg.used, nil
}
