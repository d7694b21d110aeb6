package format

import "errors"

var (
	// ErrBadMagic indicates the bytes do not start with the GRIB signature.
	ErrBadMagic = errors.New("format: GRIB signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrLengthMismatch indicates the declared message length disagrees with the sections consumed.
	ErrLengthMismatch = errors.New("format: declared length mismatch")
	// ErrEndMarkerNotFound indicates the 7777 terminator is absent where required.
	ErrEndMarkerNotFound = errors.New("format: 7777 end marker not found")
	// ErrUnsupportedEdition indicates an edition other than 1 or 2.
	ErrUnsupportedEdition = errors.New("format: unsupported edition")
	// ErrMalformed indicates a structurally inconsistent section layout.
	ErrMalformed = errors.New("format: malformed message")
)
