package buf

import "encoding/binary"

// U16BE reads a big-endian uint16 at the start of b.
func U16BE(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// U24BE reads the 3-byte big-endian unsigned integer GRIB uses for section
// and edition-1 message lengths.
func U24BE(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// U32BE reads a big-endian uint32 at the start of b.
func U32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// U64BE reads a big-endian uint64 at the start of b.
func U64BE(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// PutU16BE writes a big-endian uint16 at the start of b.
func PutU16BE(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }

// PutU24BE writes a 3-byte big-endian unsigned integer at the start of b.
func PutU24BE(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// PutU32BE writes a big-endian uint32 at the start of b.
func PutU32BE(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

// PutU64BE writes a big-endian uint64 at the start of b.
func PutU64BE(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }

// S16BE reads GRIB1's 16-bit sign-and-magnitude integer: the top bit is the
// sign, the remaining 15 bits the magnitude. Two's complement is never used
// on the GRIB1 wire.
func S16BE(b []byte) int32 {
	v := U16BE(b)
	mag := int32(v & 0x7fff)
	if v&0x8000 != 0 {
		return -mag
	}
	return mag
}

// PutS16BE writes a 16-bit sign-and-magnitude integer.
func PutS16BE(b []byte, v int32) {
	var sign uint16
	if v < 0 {
		sign = 0x8000
		v = -v
	}
	PutU16BE(b, sign|uint16(v&0x7fff))
}

// S24BE reads GRIB1's 24-bit sign-and-magnitude integer (latitudes and
// longitudes in millidegrees).
func S24BE(b []byte) int32 {
	v := U24BE(b)
	mag := int32(v & 0x7fffff)
	if v&0x800000 != 0 {
		return -mag
	}
	return mag
}

// PutS24BE writes a 24-bit sign-and-magnitude integer.
func PutS24BE(b []byte, v int32) {
	var sign uint32
	if v < 0 {
		sign = 0x800000
		v = -v
	}
	PutU24BE(b, sign|uint32(v&0x7fffff))
}

// Uint reads an unsigned big-endian bit window of width bits starting at
// absolute bit offset bitOff. Width must be 1..64 and the window must lie
// within b; callers validate bounds with BitHas first.
func Uint(b []byte, bitOff, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		bit := bitOff + i
		v <<= 1
		if b[bit>>3]&(0x80>>(bit&7)) != 0 {
			v |= 1
		}
	}
	return v
}

// PutUint writes an unsigned big-endian bit window of width bits starting at
// absolute bit offset bitOff. Bits above width are ignored.
func PutUint(b []byte, bitOff, width int, v uint64) {
	for i := 0; i < width; i++ {
		bit := bitOff + i
		mask := byte(0x80 >> (bit & 7))
		if v&(1<<(width-1-i)) != 0 {
			b[bit>>3] |= mask
		} else {
			b[bit>>3] &^= mask
		}
	}
}

// BitHas reports whether width bits starting at bitOff fit within b.
func BitHas(b []byte, bitOff, width int) bool {
	if bitOff < 0 || width < 0 {
		return false
	}
	end, ok := AddOverflowSafe(bitOff, width)
	if !ok {
		return false
	}
	return end <= len(b)*8
}

// MaxUint returns the all-ones value for a width-bit field, which GRIB uses
// as the per-field missing sentinel.
func MaxUint(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}
