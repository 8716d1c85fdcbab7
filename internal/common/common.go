package common

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// VarNumber marker bytes.
const (
	Marker16 = 0xFD
	Marker32 = 0xFE
	Marker64 = 0xFF
)

// MaxVarNumberSize is the widest VarNumber encoding.
const MaxVarNumberSize = 9

var (
	ErrIncomplete   = errors.New("varnum: incomplete")
	ErrInvalidWidth = errors.New("nonneg: invalid width")
)

// VarNumberSize returns the encoded size of v: 1, 3, 5 or 9.
func VarNumberSize(v uint64) int {
	switch {
	case v < Marker16:
		return 1
	case v <= math.MaxUint16:
		return 3
	case v <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// AppendVarNumber appends the VarNumber encoding of v to dst.
func AppendVarNumber(dst []byte, v uint64) []byte {
	switch {
	case v < Marker16:
		return append(dst, byte(v))
	case v <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, Marker16), uint16(v))
	case v <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(dst, Marker32), uint32(v))
	default:
		return binary.BigEndian.AppendUint64(append(dst, Marker64), v)
	}
}

// DecodeVarNumber decodes a VarNumber from the start of b and returns the
// value and bytes consumed.
func DecodeVarNumber(b []byte) (uint64, int, error) {
	switch {
	case len(b) >= 1 && b[0] < Marker16:
		return uint64(b[0]), 1, nil
	case len(b) >= 3 && b[0] == Marker16:
		return uint64(binary.BigEndian.Uint16(b[1:])), 3, nil
	case len(b) >= 5 && b[0] == Marker32:
		return uint64(binary.BigEndian.Uint32(b[1:])), 5, nil
	case len(b) >= 9 && b[0] == Marker64:
		return binary.BigEndian.Uint64(b[1:]), 9, nil
	}
	return 0, 0, ErrIncomplete
}

// ReadVarNumber decodes a VarNumber from r. Running out of input inside the
// number reports ErrIncomplete; other reader errors are returned as is.
func ReadVarNumber(r io.ByteReader) (uint64, int, error) {
	first, err := r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, 0, ErrIncomplete
		}
		return 0, 0, err
	}
	var width int
	switch first {
	case Marker16:
		width = 2
	case Marker32:
		width = 4
	case Marker64:
		width = 8
	default:
		return uint64(first), 1, nil
	}
	var v uint64
	for i := 0; i < width; i++ {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, 1 + i, ErrIncomplete
			}
			return 0, 1 + i, err
		}
		v = v<<8 | uint64(c)
	}
	return v, 1 + width, nil
}

// NonNegativeIntegerSize returns the smallest of 1, 2, 4 or 8 bytes that can
// hold v.
func NonNegativeIntegerSize(v uint64) int {
	switch {
	case v <= math.MaxUint8:
		return 1
	case v <= math.MaxUint16:
		return 2
	case v <= math.MaxUint32:
		return 4
	default:
		return 8
	}
}

// AppendNonNegativeInteger appends v big-endian in its smallest width, with
// no marker.
func AppendNonNegativeInteger(dst []byte, v uint64) []byte {
	switch NonNegativeIntegerSize(v) {
	case 1:
		return append(dst, byte(v))
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(v))
	case 4:
		return binary.BigEndian.AppendUint32(dst, uint32(v))
	default:
		return binary.BigEndian.AppendUint64(dst, v)
	}
}

// DecodeNonNegativeInteger decodes b as a big-endian integer. The width is
// len(b), which must be 1, 2, 4 or 8.
func DecodeNonNegativeInteger(b []byte) (uint64, error) {
	switch len(b) {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	case 8:
		return binary.BigEndian.Uint64(b), nil
	default:
		return 0, ErrInvalidWidth
	}
}
