package tlv

import (
	"github.com/rawbytedev/wirechain"
	"github.com/rawbytedev/wirechain/internal/common"
)

// Encoder appends TLV fields to a chain it owns.
type Encoder struct {
	c *wirechain.Chain
}

// NewEncoder returns an encoder over a new chain whose first segment holds
// firstReserve bytes.
func NewEncoder(firstReserve int, opts wirechain.Options) *Encoder {
	return &Encoder{c: wirechain.NewWithCapacity(firstReserve, opts)}
}

// NewEncoderFor appends to an existing chain at its cursor.
func NewEncoderFor(c *wirechain.Chain) *Encoder {
	return &Encoder{c: c}
}

// Chain returns the chain being written.
func (e *Encoder) Chain() *wirechain.Chain { return e.c }

// Finish drops unwritten capacity past the cursor and returns the chain.
func (e *Encoder) Finish() (*wirechain.Chain, error) {
	if err := e.c.Finalize(); err != nil {
		return nil, err
	}
	return e.c, nil
}

func (e *Encoder) AppendByte(v byte) (int, error) {
	return e.c.WriteUint8(v)
}

// AppendByteArray copies p, keeping it in the current segment when the
// headroom allows.
func (e *Encoder) AppendByteArray(p []byte) (int, error) {
	if err := e.c.Reserve(len(p)); err != nil {
		return 0, err
	}
	return e.c.AppendBytes(p)
}

// AppendVarNumber writes v in 1, 3, 5 or 9 bytes.
func (e *Encoder) AppendVarNumber(v uint64) (int, error) {
	var buf [common.MaxVarNumberSize]byte
	enc := common.AppendVarNumber(buf[:0], v)
	if err := e.c.Reserve(len(enc)); err != nil {
		return 0, err
	}
	return e.c.AppendBytes(enc)
}

// AppendNonNegativeInteger writes v big-endian in the smallest of 1, 2, 4
// or 8 bytes. The width is carried by the enclosing length.
func (e *Encoder) AppendNonNegativeInteger(v uint64) (int, error) {
	switch common.NonNegativeIntegerSize(v) {
	case 1:
		return e.c.WriteUint8(uint8(v))
	case 2:
		return e.c.WriteUint16(uint16(v))
	case 4:
		return e.c.WriteUint32(uint32(v))
	default:
		return e.c.WriteUint64(v)
	}
}

// AppendByteArrayBlock writes a whole element with data as its value.
func (e *Encoder) AppendByteArrayBlock(typ uint64, data []byte) (int, error) {
	return e.appendBlock(typ, len(data), func() (int, error) {
		return e.AppendByteArray(data)
	})
}

// AppendNonNegativeIntegerBlock writes a whole element holding v.
func (e *Encoder) AppendNonNegativeIntegerBlock(typ, v uint64) (int, error) {
	return e.appendBlock(typ, common.NonNegativeIntegerSize(v), func() (int, error) {
		return e.AppendNonNegativeInteger(v)
	})
}

func (e *Encoder) appendBlock(typ uint64, length int, value func() (int, error)) (int, error) {
	total := 0
	n, err := e.AppendVarNumber(typ)
	total += n
	if err != nil {
		return total, err
	}
	n, err = e.AppendVarNumber(uint64(length))
	total += n
	if err != nil {
		return total, err
	}
	n, err = value()
	return total + n, err
}

// AppendChainElement links a prebuilt segment without copying it. The
// encoder's chain takes ownership of seg.
func (e *Encoder) AppendChainElement(seg *wirechain.Segment) (int, error) {
	return e.c.AppendSegment(seg)
}

// AppendChain links views of every segment of src, such as an element from
// a parsed packet, without copying bytes. src keeps its own references.
func (e *Encoder) AppendChain(src *wirechain.Chain) (int, error) {
	total := 0
	for _, seg := range src.Segments() {
		begin, err := seg.Begin()
		if err != nil {
			return total, err
		}
		used, err := seg.Used()
		if err != nil {
			return total, err
		}
		view, err := wirechain.NewSegmentRange(seg.Store().Retain(), begin, begin+used)
		if err != nil {
			seg.Store().Release()
			return total, err
		}
		n, err := e.c.AppendSegment(view)
		if err != nil {
			_ = view.Release()
			return total, err
		}
		total += n
	}
	return total, nil
}
