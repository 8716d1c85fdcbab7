package wirechain

import (
	"sync/atomic"

	"github.com/rawbytedev/wirechain/pkg/bufpool"
)

// Store is byte storage shared by the segments that view it. It carries a
// reference count: every segment holding the store owns one reference, and
// the last Release hands pooled memory back to its pool.
type Store struct {
	buf      []byte
	refs     atomic.Int32
	readOnly bool
	pool     *bufpool.Pool
}

// NewStore wraps b without copying. The store is read-only and is never
// returned to a pool.
func NewStore(b []byte) *Store {
	s := &Store{buf: b, readOnly: true}
	s.refs.Store(1)
	return s
}

// AllocStore returns a writable store of size bytes, drawn from pool when
// pool is non-nil.
func AllocStore(size int, pool *bufpool.Pool) *Store {
	s := &Store{}
	if pool != nil {
		s.buf = pool.Get(size)
		if pool.Pooled(cap(s.buf)) {
			s.pool = pool
		}
	} else {
		s.buf = make([]byte, size)
	}
	s.refs.Store(1)
	return s
}

// Bytes returns the whole backing slice. It is nil once the last reference
// is released.
func (s *Store) Bytes() []byte { return s.buf }

func (s *Store) Len() int { return len(s.buf) }

func (s *Store) ReadOnly() bool { return s.readOnly }

// Refs returns the current reference count.
func (s *Store) Refs() int { return int(s.refs.Load()) }

// Retain adds a reference and returns s.
func (s *Store) Retain() *Store {
	s.refs.Add(1)
	return s
}

// Release drops a reference. At zero the buffer goes back to its pool.
func (s *Store) Release() {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return
		}
		if s.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				if s.pool != nil {
					s.pool.Put(s.buf)
				}
				s.buf = nil
			}
			return
		}
	}
}
