package wirechain

import (
	"fmt"

	"github.com/rawbytedev/wirechain/internal/common"
	"github.com/rawbytedev/wirechain/pkg/bufpool"
	"github.com/rs/zerolog"
)

const (
	// DefaultSegmentSize is the size of a segment allocated by growth.
	DefaultSegmentSize = 2048
	// DefaultHeadroom is the remaining room under which Reserve abandons the
	// current segment instead of splitting a field across segments.
	DefaultHeadroom = 32
)

// Policy controls chain growth.
type Policy struct {
	SegmentSize int
	Headroom    int
}

// DefaultPolicy returns the 2048/32 growth policy.
func DefaultPolicy() Policy {
	return Policy{SegmentSize: DefaultSegmentSize, Headroom: DefaultHeadroom}
}

// Validate checks that a growth segment can always hold the widest
// VarNumber and that the headroom fits in a segment.
func (p Policy) Validate() error {
	if p.Headroom < common.MaxVarNumberSize {
		return fmt.Errorf("headroom %d below %d bytes", p.Headroom, common.MaxVarNumberSize)
	}
	if p.SegmentSize < p.Headroom {
		return fmt.Errorf("segment size %d below headroom %d", p.SegmentSize, p.Headroom)
	}
	return nil
}

// Metrics receives chain events. A nil Metrics disables collection.
//
// SegmentLinked fires whenever a chain takes ownership of a segment, whether
// freshly allocated, wrapped, appended or sliced by Parse; SegmentReleased
// fires when the chain gives it back.
type Metrics interface {
	SegmentLinked(capacity int)
	SegmentReleased()
	Linearized(bytes int)
	Parsed(elements int)
	ParseFailed()
}

// Options configure a Chain. The zero value is usable: default policy, no
// logging, no metrics, unpooled storage.
type Options struct {
	Policy  Policy
	Logger  *zerolog.Logger
	Metrics Metrics
	// Pool backs freshly allocated segments. Nil allocates with make.
	Pool *bufpool.Pool
}

func (o Options) withDefaults() Options {
	if o.Policy.Validate() != nil {
		def := DefaultPolicy()
		if o.Policy.SegmentSize <= 0 {
			o.Policy.SegmentSize = def.SegmentSize
		}
		if o.Policy.Headroom <= 0 {
			o.Policy.Headroom = def.Headroom
		}
		if o.Policy.Validate() != nil {
			o.Policy = def
		}
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}
