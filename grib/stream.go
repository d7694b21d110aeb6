package grib

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/meteokit/gribkit/internal/buf"
	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
)

// readMessage extracts the next complete message from r into a buffer from
// alloc. Bytes before the GRIB magic are skipped, matching how operational
// files interleave messages with padding and headers. The returned offset is
// the message's position when r is seekable, zero otherwise.
//
// A stream that ends before any magic is a clean end (io.EOF); one that ends
// after the magic fails with ErrPrematureEndOfFile.
func readMessage(r io.Reader, alloc Allocator) ([]byte, int64, error) {
	var base int64 = -1
	if s, ok := r.(io.Seeker); ok {
		if p, err := s.Seek(0, io.SeekCurrent); err == nil {
			base = p
		}
	}

	skipped, err := seekMagic(r)
	if err != nil {
		return nil, 0, err
	}

	head := make([]byte, format.IndicatorSize2)
	copy(head, format.Magic)
	if err := fill(r, head[4:format.IndicatorSize1]); err != nil {
		return nil, 0, err
	}
	var total int
	switch head[7] {
	case 1:
		total = int(buf.U24BE(head[4:]))
		if total < format.IndicatorSize1 {
			return nil, 0, fmt.Errorf("declared length %d: %w", total, types.ErrWrongLength)
		}
	case 2:
		if err := fill(r, head[format.IndicatorSize1:]); err != nil {
			return nil, 0, err
		}
		n := buf.U64BE(head[8:])
		if n < format.IndicatorSize2 || n > 1<<40 {
			return nil, 0, fmt.Errorf("declared length %d: %w", n, types.ErrWrongLength)
		}
		total = int(n)
	default:
		return nil, 0, fmt.Errorf("edition %d: %w", head[7], types.ErrUnsupportedEdition)
	}

	data := alloc.Alloc(total)
	headLen := format.IndicatorSize1
	if head[7] == 2 {
		headLen = format.IndicatorSize2
	}
	copy(data, head[:headLen])
	if err := fill(r, data[headLen:]); err != nil {
		alloc.Free(data)
		return nil, 0, err
	}

	offset := int64(0)
	if base >= 0 {
		offset = base + int64(skipped)
	}
	return data, offset, nil
}

// seekMagic consumes r up to and including the next GRIB magic, returning
// the number of bytes skipped before it. io.EOF means no further message.
func seekMagic(r io.Reader) (int, error) {
	var win [4]byte
	have := 0
	skipped := 0
	one := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, one); err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, types.IOError(err)
		}
		if have == 4 {
			copy(win[:], win[1:])
			win[3] = one[0]
			skipped++
		} else {
			win[have] = one[0]
			have++
		}
		if have == 4 && bytes.Equal(win[:], format.Magic) {
			return skipped, nil
		}
	}
}

// fill is ReadFull with the stream's truncation mapped to the public sentinel.
func fill(r io.Reader, b []byte) error {
	if _, err := io.ReadFull(r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return types.Wrap(types.ErrPrematureEndOfFile, err)
		}
		return types.IOError(err)
	}
	return nil
}
