package format

import (
	"math"

	"github.com/meteokit/gribkit/internal/buf"
)

// IBMFloat decodes the 32-bit IBM System/360 hexadecimal float GRIB1 uses
// for reference values: sign bit, 7-bit excess-64 base-16 exponent, 24-bit
// fraction.
func IBMFloat(b []byte) float64 {
	raw := buf.U32BE(b)
	mant := raw & 0xffffff
	if mant == 0 {
		return 0
	}
	exp := int(raw>>24&0x7f) - 64
	v := float64(mant) * math.Pow(16, float64(exp)) / (1 << 24)
	if raw&0x80000000 != 0 {
		return -v
	}
	return v
}

// PutIBMFloat encodes v as a 32-bit IBM float, rounding to the nearest
// representable value. Magnitudes outside the IBM range saturate.
func PutIBMFloat(b []byte, v float64) {
	var sign uint32
	if v < 0 {
		sign = 0x80000000
		v = -v
	}
	if v == 0 || math.IsNaN(v) {
		buf.PutU32BE(b, 0)
		return
	}
	// Smallest base-16 exponent with v < 16^exp keeps the top fraction
	// digit non-zero.
	exp := int(math.Floor(math.Log(v)/(4*math.Ln2))) + 1
	mant := uint64(math.Round(v * math.Pow(16, float64(-exp)) * (1 << 24)))
	for mant >= 1<<24 {
		mant >>= 4
		exp++
	}
	for mant != 0 && mant < 1<<20 {
		mant <<= 4
		exp--
	}
	switch {
	case exp < -64:
		buf.PutU32BE(b, sign) // underflow to signed zero
		return
	case exp > 63:
		buf.PutU32BE(b, sign|0x7fffffff) // saturate
		return
	}
	buf.PutU32BE(b, sign|uint32(exp+64)<<24|uint32(mant))
}
