package wirechain

import "io"

// Reader reads the used bytes of a chain from the start. It does not move
// the chain's own cursor. Modifying the chain while reading is undefined.
type Reader struct {
	seg  *Segment
	rel  int
	pos  int
	size int
}

// NewReader returns a Reader positioned at the first byte of c.
func NewReader(c *Chain) *Reader {
	return &Reader{seg: c.head, size: c.size()}
}

// skip moves to the next segment holding unread bytes.
func (r *Reader) skip() bool {
	for r.seg != nil && r.rel >= r.seg.used {
		r.seg = r.seg.next
		r.rel = 0
	}
	return r.seg != nil && r.pos < r.size
}

func (r *Reader) ReadByte() (byte, error) {
	if !r.skip() {
		return 0, io.EOF
	}
	b := r.seg.store.buf[r.seg.begin+r.rel]
	r.rel++
	r.pos++
	return b, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && r.skip() {
		k := copy(p[n:], r.seg.store.buf[r.seg.begin+r.rel:r.seg.begin+r.seg.used])
		r.rel += k
		r.pos += k
		n += k
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Discard skips the next n bytes. It returns io.ErrUnexpectedEOF if fewer
// remain.
func (r *Reader) Discard(n int) (int, error) {
	done := 0
	for done < n && r.skip() {
		k := min(n-done, r.seg.used-r.rel)
		r.rel += k
		r.pos += k
		done += k
	}
	if done < n {
		return done, io.ErrUnexpectedEOF
	}
	return done, nil
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return r.size - r.pos }
