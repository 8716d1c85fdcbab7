package tlv

import (
	"errors"
	"fmt"
	"io"

	"github.com/rawbytedev/wirechain"
	"github.com/rawbytedev/wirechain/internal/common"
)

var ErrInvalidLength = errors.New("tlv: invalid length")

// Parse wraps received bytes and splits them into top-level elements.
func Parse(b []byte, opts wirechain.Options) (*wirechain.Chain, error) {
	c := wirechain.FromBytes(b, opts)
	if err := c.Parse(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadVarNumber reads one VarNumber from r.
func ReadVarNumber(r io.ByteReader) (uint64, error) {
	v, _, err := common.ReadVarNumber(r)
	return v, err
}

// Value returns the value bytes of a parsed element. A single-segment
// element is returned without copying.
func Value(el *wirechain.Chain) []byte {
	b := el.Bytes()
	if el.ValueOffset() > len(b) {
		return nil
	}
	return b[el.ValueOffset():]
}

// NonNegativeInteger decodes the value of a parsed element as a
// NonNegativeInteger, taking its width from the element length.
func NonNegativeInteger(el *wirechain.Chain) (uint64, error) {
	v, err := common.DecodeNonNegativeInteger(Value(el))
	if err != nil {
		return 0, fmt.Errorf("%w: type %d has %d value bytes", ErrInvalidLength, el.Type(), el.ValueSize())
	}
	return v, nil
}
