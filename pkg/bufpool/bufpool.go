// Package bufpool provides a tiered pool of byte slices used as fresh
// segment storage.
//
// Three size classes are kept. A request is served from the smallest class
// that fits; anything larger than the large class is allocated directly and
// never pooled. Buffers are recognised on Put by their capacity, so only
// slices obtained from Get should be returned.
package bufpool

import "sync"

// Default size classes.
const (
	// DefaultSmallSize matches the default chain growth segment (2KB).
	DefaultSmallSize = 2 << 10

	// DefaultMediumSize covers large single elements (64KB).
	DefaultMediumSize = 64 << 10

	// DefaultLargeSize covers bulk payloads (1MB).
	DefaultLargeSize = 1 << 20
)

// Pool manages byte slices organised by size class.
type Pool struct {
	small      sync.Pool
	medium     sync.Pool
	large      sync.Pool
	smallSize  int
	mediumSize int
	largeSize  int
}

// Config holds the size classes of a Pool. Zero fields take the defaults.
type Config struct {
	SmallSize  int
	MediumSize int
	LargeSize  int
}

// DefaultConfig returns the default size classes.
func DefaultConfig() Config {
	return Config{
		SmallSize:  DefaultSmallSize,
		MediumSize: DefaultMediumSize,
		LargeSize:  DefaultLargeSize,
	}
}

// NewPool creates a pool. A nil config uses DefaultConfig.
func NewPool(cfg *Config) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.SmallSize > 0 {
			c.SmallSize = cfg.SmallSize
		}
		if cfg.MediumSize > 0 {
			c.MediumSize = cfg.MediumSize
		}
		if cfg.LargeSize > 0 {
			c.LargeSize = cfg.LargeSize
		}
	}

	p := &Pool{
		smallSize:  c.SmallSize,
		mediumSize: c.MediumSize,
		largeSize:  c.LargeSize,
	}
	p.small.New = func() any {
		buf := make([]byte, p.smallSize)
		return &buf
	}
	p.medium.New = func() any {
		buf := make([]byte, p.mediumSize)
		return &buf
	}
	p.large.New = func() any {
		buf := make([]byte, p.largeSize)
		return &buf
	}
	return p
}

// Get returns a slice of length size. Its capacity may be larger when it
// comes from a pooled class.
//
// Pooled buffers are not zeroed.
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte
	switch {
	case size <= p.smallSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= p.mediumSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= p.largeSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}
	buf := *bufPtr
	return buf[:size]
}

// Put returns buf to its class. Slices whose capacity matches no class are
// left to the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	full := buf[:cap(buf)]
	switch cap(buf) {
	case p.smallSize:
		p.small.Put(&full)
	case p.mediumSize:
		p.medium.Put(&full)
	case p.largeSize:
		p.large.Put(&full)
	}
}

// Pooled reports whether a slice of the given capacity would be kept by Put.
func (p *Pool) Pooled(capacity int) bool {
	return capacity == p.smallSize || capacity == p.mediumSize || capacity == p.largeSize
}

var globalPool = NewPool(nil)

// Default returns the package-level pool.
func Default() *Pool {
	return globalPool
}
