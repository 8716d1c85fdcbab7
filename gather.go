package wirechain

import (
	"io"
	"net"
	"slices"
)

// GatherView is the used bytes of every segment of a chain, in order. The
// slices alias segment storage.
type GatherView [][]byte

// Len returns the total number of bytes in the view.
func (g GatherView) Len() int {
	n := 0
	for _, b := range g {
		n += len(b)
	}
	return n
}

// Linearize copies the view into one contiguous buffer.
func (g GatherView) Linearize() []byte {
	out := make([]byte, 0, g.Len())
	for _, b := range g {
		out = append(out, b...)
	}
	return out
}

// WriteTo writes the view with a single vectored write where w supports it.
func (g GatherView) WriteTo(w io.Writer) (int64, error) {
	// net.Buffers consumes its receiver, so hand it a copy of the headers.
	bufs := net.Buffers(slices.Clone(g))
	return bufs.WriteTo(w)
}

// BuildGatherView collects the used bytes of every segment without copying
// and returns them with their total size. The view stays valid until the
// chain is next modified.
func (c *Chain) BuildGatherView() (GatherView, int) {
	view := make(GatherView, 0, 4)
	total := 0
	for s := c.head; s != nil; s = s.next {
		view = append(view, s.bytes())
		total += s.used
	}
	c.gather = view
	return view, total
}

// HasGatherView reports whether a gather view was built since the last
// modification.
func (c *Chain) HasGatherView() bool { return c.gather != nil }

// GatherView returns the last built view, or nil.
func (c *Chain) GatherView() GatherView { return c.gather }

// LinearizeGatherView copies the last built view into one buffer.
func (c *Chain) LinearizeGatherView() ([]byte, error) {
	if c.gather == nil {
		return nil, ErrUninitialized
	}
	out := c.gather.Linearize()
	c.linearized(len(out))
	return out, nil
}

// Linearize copies every used byte of the chain into one new buffer.
func (c *Chain) Linearize() []byte {
	out := make([]byte, 0, c.size())
	for s := c.head; s != nil; s = s.next {
		out = append(out, s.bytes()...)
	}
	c.linearized(len(out))
	return out
}

// Bytes returns the chain contents as one slice. A single-segment chain
// returns its storage without copying; anything else is linearized.
func (c *Chain) Bytes() []byte {
	if c.head != nil && c.head.next == nil {
		return c.head.bytes()
	}
	return c.Linearize()
}

// WriteTo writes the chain to w through its gather view.
func (c *Chain) WriteTo(w io.Writer) (int64, error) {
	view := c.gather
	if view == nil {
		view, _ = c.BuildGatherView()
	}
	return view.WriteTo(w)
}

func (c *Chain) linearized(n int) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.Linearized(n)
	}
}
