package format

import (
	"fmt"
	"math"

	"github.com/meteokit/gribkit/internal/buf"
)

// Simple packing, shared by the edition-1 binary data section and the
// edition-2 data representation template 5.0:
//
//	value = (reference + X * 2^binaryScale) / 10^decimalScale
//
// where X is an unsigned integer of bitsPerValue bits.

// UnpackSimple decodes count packed values starting at bitOff within data.
// bits == 0 encodes a constant field: every value equals the reference.
func UnpackSimple(data []byte, bitOff, count, bits int, ref float64, binScale, decScale int) ([]float64, error) {
	if count < 0 {
		return nil, fmt.Errorf("packing: negative count %d: %w", count, ErrMalformed)
	}
	dscale := math.Pow(10, float64(-decScale))
	out := make([]float64, count)
	if bits == 0 {
		for i := range out {
			out[i] = ref * dscale
		}
		return out, nil
	}
	if bits > 32 {
		return nil, fmt.Errorf("packing: %d bits per value: %w", bits, ErrMalformed)
	}
	need, ok := buf.MulOverflowSafe(count, bits)
	if !ok || !buf.BitHas(data, bitOff, need) {
		return nil, fmt.Errorf("packing: %d values of %d bits: %w", count, bits, ErrTruncated)
	}
	bscale := math.Pow(2, float64(binScale))
	for i := range out {
		x := buf.Uint(data, bitOff+i*bits, bits)
		out[i] = (ref + float64(x)*bscale) * dscale
	}
	return out, nil
}

// PackSimple encodes values with a fixed bits-per-value width and decimal
// scale, choosing the reference (the scaled minimum) and the smallest binary
// scale that makes every increment fit. This re-applies existing packing
// parameters; it deliberately does no packing-strategy selection.
func PackSimple(values []float64, bits, decScale int) (ref float64, binScale int, packed []byte, err error) {
	if bits <= 0 || bits > 32 {
		return 0, 0, nil, fmt.Errorf("packing: %d bits per value: %w", bits, ErrMalformed)
	}
	dscale := math.Pow(10, float64(decScale))
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		s := v * dscale
		min = math.Min(min, s)
		max = math.Max(max, s)
	}
	if len(values) == 0 {
		min, max = 0, 0
	}
	ref = min
	spread := max - min
	binScale = 0
	if spread > 0 {
		limit := float64(buf.MaxUint(bits))
		for spread/math.Pow(2, float64(binScale)) > limit {
			binScale++
		}
		for binScale > -16 && spread/math.Pow(2, float64(binScale-1)) <= limit {
			binScale--
		}
	}
	bscale := math.Pow(2, float64(binScale))
	nbits, _ := buf.MulOverflowSafe(len(values), bits)
	packed = make([]byte, (nbits+7)/8)
	limit := buf.MaxUint(bits)
	for i, v := range values {
		x := math.Round((v*dscale - ref) / bscale)
		if x < 0 || uint64(x) > limit {
			return 0, 0, nil, fmt.Errorf("packing: value %g does not fit %d bits: %w", v, bits, ErrMalformed)
		}
		buf.PutUint(packed, i*bits, bits, uint64(x))
	}
	return ref, binScale, packed, nil
}
