package wirechain

import (
	"fmt"
	"slices"

	"github.com/rawbytedev/wirechain/internal/common"
)

// Parse splits the chain into its top-level TLV elements. Each element is a
// sub-chain covering type, length and value, made of read-only views that
// share storage with c.
//
// Parse runs once: when elements are already present, or the chain holds no
// bytes, it returns nil without doing anything. On a framing error nothing is
// kept, so Parse may be retried after the input is completed.
func (c *Chain) Parse() error {
	if len(c.elements) > 0 || c.size() == 0 {
		return nil
	}
	end := c.size()
	r := NewReader(c)
	for begin := 0; begin < end; begin = r.Pos() {
		seg, rel := r.seg, r.rel
		typ, _, err := common.ReadVarNumber(r)
		if err != nil {
			return c.parseFailed(fmt.Errorf("%w: type at offset %d: %w", ErrFraming, begin, err))
		}
		length, _, err := common.ReadVarNumber(r)
		if err != nil {
			return c.parseFailed(fmt.Errorf("%w: length of type %d at offset %d: %w", ErrFraming, typ, begin, err))
		}
		valueBegin := r.Pos()
		if length > uint64(end-valueBegin) {
			return c.parseFailed(fmt.Errorf("%w: type %d at offset %d declares %d bytes, %d left",
				ErrFraming, typ, begin, length, end-valueBegin))
		}
		elemEnd := valueBegin + int(length)
		sub, err := c.slice(seg, rel, begin, elemEnd)
		if err != nil {
			return c.parseFailed(err)
		}
		sub.typ = typ
		sub.valueOffset = valueBegin - begin
		c.elements = append(c.elements, sub)
		if _, err := r.Discard(int(length)); err != nil {
			return c.parseFailed(fmt.Errorf("%w: value of type %d: %w", ErrFraming, typ, err))
		}
	}

	if c.opts.Metrics != nil {
		c.opts.Metrics.Parsed(len(c.elements))
	}
	c.log.Debug().Int("elements", len(c.elements)).Int("size", end).Msg("chain parsed")
	return nil
}

// slice builds a sub-chain viewing [start, end) of c, where start lies at
// rel inside seg. Every segment the range touches contributes one read-only
// view holding its own reference to the store.
func (c *Chain) slice(seg *Segment, rel, start, end int) (*Chain, error) {
	sub := New(c.opts)
	for remaining := end - start; remaining > 0; seg, rel = seg.next, 0 {
		if seg == nil {
			sub.Release()
			return nil, fmt.Errorf("%w: range [%d,%d) runs past the last segment", ErrOutOfRange, start, end)
		}
		n := min(seg.used-rel, remaining)
		if n <= 0 {
			continue
		}
		seg.shared = max(seg.shared, rel+n)
		view := &Segment{
			store:    seg.store.Retain(),
			begin:    seg.begin + rel,
			end:      seg.begin + rel + n,
			used:     n,
			readOnly: true,
		}
		if _, err := sub.AppendSegment(view); err != nil {
			view.release()
			sub.Release()
			return nil, err
		}
		remaining -= n
	}
	return sub, nil
}

func (c *Chain) parseFailed(err error) error {
	c.releaseElements()
	if c.opts.Metrics != nil {
		c.opts.Metrics.ParseFailed()
	}
	c.log.Warn().Err(err).Int("size", c.size()).Msg("chain parse failed")
	return err
}

func (c *Chain) releaseElements() {
	for _, e := range c.elements {
		e.Release()
	}
	c.elements = nil
}

// Get returns the first element of the given type.
func (c *Chain) Get(typ uint64) (*Chain, error) {
	if i, ok := c.Find(typ); ok {
		return c.elements[i], nil
	}
	return nil, fmt.Errorf("%w: type %d", ErrNotFound, typ)
}

// Find returns the index of the first element of the given type.
func (c *Chain) Find(typ uint64) (int, bool) {
	i := slices.IndexFunc(c.elements, func(e *Chain) bool { return e.typ == typ })
	return i, i >= 0
}

// Elements returns the parsed elements in wire order. The slice is a copy;
// the elements remain owned by c.
func (c *Chain) Elements() []*Chain { return slices.Clone(c.elements) }

func (c *Chain) ElementCount() int { return len(c.elements) }
