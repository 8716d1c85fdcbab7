package wirechain

import "errors"

var (
	// ErrUninitialized is returned by operations on a segment without a
	// store or a chain without segments.
	ErrUninitialized = errors.New("wirechain: uninitialized")
	// ErrOutOfRange is returned for positions or ranges outside the backed
	// bytes, and for corrupted cursor bookkeeping.
	ErrOutOfRange = errors.New("wirechain: out of range")
	// ErrFraming is returned by Parse when a TLV header is truncated or a
	// declared length runs past the end of the chain.
	ErrFraming = errors.New("wirechain: framing error")
	// ErrNotFound is returned by Get when no sub-element has the type.
	ErrNotFound = errors.New("wirechain: element not found")
	// ErrPrecondition is returned when a segment is already linked, or a
	// write would land in read-only bytes.
	ErrPrecondition = errors.New("wirechain: precondition failed")
)
