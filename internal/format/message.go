package format

import (
	"bytes"
	"fmt"

	"github.com/meteokit/gribkit/internal/buf"
)

// Indicator captures the section-0 fields shared by both editions.
//
//	Edition 1                       Edition 2
//	------  ----------------        ------  ----------------
//	 0..3   'G' 'R' 'I' 'B'          0..3   'G' 'R' 'I' 'B'
//	 4..6   total length (u24)       4..5   reserved
//	 7      edition (=1)             6      discipline
//	                                 7      edition (=2)
//	                                 8..15  total length (u64)
type Indicator struct {
	Edition     int
	TotalLength int
	Discipline  int // edition 2 only, 0 otherwise
}

// ParseIndicator validates the GRIB signature and reads the edition-specific
// indicator layout at the start of b.
func ParseIndicator(b []byte) (Indicator, error) {
	if len(b) < IndicatorSize1 {
		return Indicator{}, fmt.Errorf("indicator: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:MagicSize], Magic) {
		return Indicator{}, fmt.Errorf("indicator: %w", ErrBadMagic)
	}
	switch b[7] {
	case 1:
		return Indicator{Edition: 1, TotalLength: int(buf.U24BE(b[4:]))}, nil
	case 2:
		if len(b) < IndicatorSize2 {
			return Indicator{}, fmt.Errorf("indicator: %w", ErrTruncated)
		}
		n := buf.U64BE(b[8:])
		if n > uint64(int(^uint(0)>>1)) {
			return Indicator{}, fmt.Errorf("indicator: message length %d: %w", n, ErrMalformed)
		}
		return Indicator{Edition: 2, TotalLength: int(n), Discipline: int(b[6])}, nil
	default:
		return Indicator{}, fmt.Errorf("indicator: edition %d: %w", b[7], ErrUnsupportedEdition)
	}
}

// Section is one structural unit of a message: its WMO section number and
// its byte range within Message.Data (header octets included).
type Section struct {
	Number int
	Offset int
	Length int
}

// Message is one split GRIB message. Data aliases the caller's buffer; the
// section table records where each section lives within it.
type Message struct {
	Edition  int
	Data     []byte
	Sections []Section
}

// Section returns the bytes of the first section with the given number.
func (m *Message) Section(num int) ([]byte, bool) {
	for _, s := range m.Sections {
		if s.Number == num {
			return m.Data[s.Offset : s.Offset+s.Length], true
		}
	}
	return nil, false
}

// SectionOffset returns the byte offset of the first section with the given
// number, or -1.
func (m *Message) SectionOffset(num int) int {
	for _, s := range m.Sections {
		if s.Number == num {
			return s.Offset
		}
	}
	return -1
}

// ParseMessage splits the message starting at b[0] into sections, validating
// that the declared total length matches the bytes consumed and that the
// terminator is present. b may extend past the message; only the declared
// length is touched.
func ParseMessage(b []byte) (*Message, error) {
	ind, err := ParseIndicator(b)
	if err != nil {
		return nil, err
	}
	if ind.TotalLength < IndicatorSize1+EndMarkerSize {
		return nil, fmt.Errorf("message: total length %d: %w", ind.TotalLength, ErrMalformed)
	}
	if len(b) < ind.TotalLength {
		return nil, fmt.Errorf("message: need %d bytes, have %d: %w", ind.TotalLength, len(b), ErrTruncated)
	}
	data := b[:ind.TotalLength]
	m := &Message{Edition: ind.Edition, Data: data}
	switch ind.Edition {
	case 1:
		err = m.split1()
	case 2:
		err = m.split2()
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// split1 walks the edition-1 layout: IS, PDS, optional GDS and BMS announced
// by PDS octet 8, BDS, then the end marker.
func (m *Message) split1() error {
	total := len(m.Data)
	m.Sections = append(m.Sections, Section{Number: SectionIndicator, Offset: 0, Length: IndicatorSize1})
	off := IndicatorSize1

	pds, off, err := m.take1(SectionPDS, off)
	if err != nil {
		return err
	}
	if len(pds) < PDSMinSize {
		return fmt.Errorf("section 1: length %d: %w", len(pds), ErrMalformed)
	}
	flags := pds[7]

	if flags&PDSFlagGDS != 0 {
		if _, off, err = m.take1(SectionGDS, off); err != nil {
			return err
		}
	}
	if flags&PDSFlagBMS != 0 {
		if _, off, err = m.take1(SectionBMS, off); err != nil {
			return err
		}
	}
	bds, off, err := m.take1(SectionBDS, off)
	if err != nil {
		return err
	}
	if len(bds) < BDSHeaderSize {
		return fmt.Errorf("section 4: length %d: %w", len(bds), ErrMalformed)
	}

	if off+EndMarkerSize != total {
		return fmt.Errorf("message: sections end at %d, declared %d: %w", off+EndMarkerSize, total, ErrLengthMismatch)
	}
	if !bytes.Equal(m.Data[off:off+EndMarkerSize], EndMarker) {
		return fmt.Errorf("message: %w", ErrEndMarkerNotFound)
	}
	m.Sections = append(m.Sections, Section{Number: SectionEnd1, Offset: off, Length: EndMarkerSize})
	return nil
}

// take1 reads one edition-1 section (24-bit length prefix) at off.
func (m *Message) take1(num, off int) ([]byte, int, error) {
	if !buf.Has(m.Data, off, SectionHeaderSize1) {
		return nil, 0, fmt.Errorf("section %d: %w", num, ErrTruncated)
	}
	length := int(buf.U24BE(m.Data[off:]))
	if length < SectionHeaderSize1 {
		return nil, 0, fmt.Errorf("section %d: length %d: %w", num, length, ErrMalformed)
	}
	body, ok := buf.Slice(m.Data, off, length)
	if !ok {
		return nil, 0, fmt.Errorf("section %d: %w", num, ErrTruncated)
	}
	m.Sections = append(m.Sections, Section{Number: num, Offset: off, Length: length})
	return body, off + length, nil
}

// split2 walks the edition-2 layout: numbered sections with a 32-bit length
// and section-number octet, closed by a bare 7777.
func (m *Message) split2() error {
	total := len(m.Data)
	m.Sections = append(m.Sections, Section{Number: SectionIndicator, Offset: 0, Length: IndicatorSize2})
	off := IndicatorSize2
	for {
		if buf.Has(m.Data, off, EndMarkerSize) && bytes.Equal(m.Data[off:off+EndMarkerSize], EndMarker) {
			if off+EndMarkerSize != total {
				return fmt.Errorf("message: end marker at %d, declared %d: %w", off, total, ErrLengthMismatch)
			}
			m.Sections = append(m.Sections, Section{Number: SectionEnd2, Offset: off, Length: EndMarkerSize})
			return nil
		}
		if !buf.Has(m.Data, off, SectionHeaderSize2) {
			return fmt.Errorf("message: %w", ErrEndMarkerNotFound)
		}
		length := int(buf.U32BE(m.Data[off:]))
		num := int(m.Data[off+4])
		if length < SectionHeaderSize2 || num < 1 || num > 7 {
			return fmt.Errorf("section %d at %d: length %d: %w", num, off, length, ErrMalformed)
		}
		if _, ok := buf.Slice(m.Data, off, length); !ok {
			return fmt.Errorf("section %d: %w", num, ErrTruncated)
		}
		m.Sections = append(m.Sections, Section{Number: num, Offset: off, Length: length})
		off += length
	}
}

// Scan locates the next message at or after off, tolerating junk between
// messages the way operational GRIB files require. It returns the message's
// byte range. ok=false means no further GRIB signature exists. A signature
// whose message runs past the buffer reports ErrTruncated so stream callers
// can distinguish a premature end from a clean one.
func Scan(b []byte, off int) (msgOff, msgLen int, ok bool, err error) {
	if off < 0 || off >= len(b) {
		return 0, 0, false, nil
	}
	i := bytes.Index(b[off:], Magic)
	if i < 0 {
		return 0, 0, false, nil
	}
	msgOff = off + i
	ind, err := ParseIndicator(b[msgOff:])
	if err != nil {
		return msgOff, 0, true, err
	}
	if msgOff+ind.TotalLength > len(b) {
		return msgOff, 0, true, fmt.Errorf("message at %d: %w", msgOff, ErrTruncated)
	}
	return msgOff, ind.TotalLength, true, nil
}
