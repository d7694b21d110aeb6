package reader

import (
	"fmt"
	"math"

	"github.com/meteokit/gribkit/internal/buf"
	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
)

// packing1 captures the edition-1 binary data section parameters.
type packing1 struct {
	bds      []byte
	unused   int
	binScale int
	decScale int
	ref      float64
	bits     int
}

func readPacking1(m *format.Message) (packing1, error) {
	bds, ok := m.Section(format.SectionBDS)
	if !ok || len(bds) < format.BDSHeaderSize {
		return packing1{}, fmt.Errorf("binary data section: %w", types.ErrMessageMalformed)
	}
	if bds[3]&0xc0 != 0 {
		// spherical harmonics or complex packing
		return packing1{}, fmt.Errorf("packing flags %#x: %w", bds[3]>>4, types.ErrNotImplemented)
	}
	sec1, ok := m.Section(format.SectionPDS)
	if !ok || len(sec1) < format.PDSMinSize {
		return packing1{}, fmt.Errorf("product definition section: %w", types.ErrMessageMalformed)
	}
	return packing1{
		bds:      bds,
		unused:   int(bds[3] & 0x0f),
		binScale: int(buf.S16BE(bds[4:])),
		decScale: int(buf.S16BE(sec1[26:])),
		ref:      format.IBMFloat(bds[6:]),
		bits:     int(bds[10]),
	}, nil
}

// codedCount1 is the number of packed values in an edition-1 data section.
// Constant fields (bits == 0) carry no data bits, so the count comes from
// the bitmap or the grid shape.
func codedCount1(m *format.Message, p packing1) int {
	if p.bits > 0 {
		return ((len(p.bds)-format.BDSHeaderSize)*8 - p.unused) / p.bits
	}
	if bm, total, ok := bitmap1(m); ok {
		n := 0
		for i := 0; i < total; i++ {
			if buf.Uint(bm, i, 1) == 1 {
				n++
			}
		}
		return n
	}
	if gds, ok := m.Section(format.SectionGDS); ok && len(gds) >= 10 {
		return int(buf.U16BE(gds[6:])) * int(buf.U16BE(gds[8:]))
	}
	return 1
}

// bitmap1 returns the edition-1 bitmap bits and total point count.
func bitmap1(m *format.Message) (bits []byte, total int, ok bool) {
	bms, ok := m.Section(format.SectionBMS)
	if !ok || len(bms) < 6 {
		return nil, 0, false
	}
	unused := int(bms[3])
	return bms[6:], (len(bms)-6)*8 - unused, true
}

// packing2 captures the edition-2 data representation (template 5.0).
type packing2 struct {
	sec5     []byte
	sec7     []byte
	count    int
	ref      float64
	binScale int
	decScale int
	bits     int
}

func readPacking2(m *format.Message) (packing2, error) {
	sec5, ok := m.Section(5)
	if !ok || len(sec5) < 21 {
		return packing2{}, fmt.Errorf("data representation section: %w", types.ErrMessageMalformed)
	}
	if tmpl := buf.U16BE(sec5[9:]); tmpl != 0 {
		return packing2{}, fmt.Errorf("data representation template %d: %w", tmpl, types.ErrNotImplemented)
	}
	sec7, ok := m.Section(7)
	if !ok || len(sec7) < 5 {
		return packing2{}, fmt.Errorf("data section: %w", types.ErrMessageMalformed)
	}
	return packing2{
		sec5:     sec5,
		sec7:     sec7,
		count:    int(buf.U32BE(sec5[5:])),
		ref:      float64(math.Float32frombits(buf.U32BE(sec5[11:]))),
		binScale: int(buf.S16BE(sec5[15:])),
		decScale: int(buf.S16BE(sec5[17:])),
		bits:     int(sec5[19]),
	}, nil
}

// bitmap2 returns the edition-2 bitmap bits and total point count, or
// ok=false when section 6 declares no bitmap.
func bitmap2(m *format.Message) (bits []byte, total int, ok bool, err error) {
	sec6, found := m.Section(6)
	if !found || len(sec6) < 6 {
		return nil, 0, false, nil
	}
	switch sec6[5] {
	case 255:
		return nil, 0, false, nil
	case 0:
		sec3, found := m.Section(3)
		if !found || len(sec3) < 10 {
			return nil, 0, false, fmt.Errorf("bitmap without grid section: %w", types.ErrMessageMalformed)
		}
		return sec6[6:], int(buf.U32BE(sec3[6:])), true, nil
	default:
		return nil, 0, false, fmt.Errorf("bitmap indicator %d: %w", sec6[5], types.ErrNotImplemented)
	}
}

// unpackValues decodes the data section into one double per grid point,
// substituting the missing sentinel at bitmap gaps.
func unpackValues(m *format.Message) ([]float64, error) {
	switch m.Edition {
	case 1:
		p, err := readPacking1(m)
		if err != nil {
			return nil, err
		}
		coded, err := format.UnpackSimple(p.bds[format.BDSHeaderSize:], 0, codedCount1(m, p), p.bits, p.ref, p.binScale, p.decScale)
		if err != nil {
			return nil, err
		}
		bm, total, ok := bitmap1(m)
		if !ok {
			return coded, nil
		}
		return applyBitmap(coded, bm, total)
	default:
		p, err := readPacking2(m)
		if err != nil {
			return nil, err
		}
		coded, err := format.UnpackSimple(p.sec7[5:], 0, p.count, p.bits, p.ref, p.binScale, p.decScale)
		if err != nil {
			return nil, err
		}
		bm, total, ok, err := bitmap2(m)
		if err != nil {
			return nil, err
		}
		if !ok {
			return coded, nil
		}
		return applyBitmap(coded, bm, total)
	}
}

// applyBitmap expands coded values to the full grid, one value per set bit.
func applyBitmap(coded []float64, bm []byte, total int) ([]float64, error) {
	if !buf.BitHas(bm, 0, total) {
		return nil, fmt.Errorf("bitmap shorter than %d points: %w", total, types.ErrMessageMalformed)
	}
	out := make([]float64, total)
	next := 0
	for i := 0; i < total; i++ {
		if buf.Uint(bm, i, 1) == 1 {
			if next >= len(coded) {
				return nil, fmt.Errorf("bitmap wants more than %d coded values: %w", len(coded), types.ErrMessageMalformed)
			}
			out[i] = coded[next]
			next++
		} else {
			out[i] = types.MissingDouble
		}
	}
	return out, nil
}

// valuesCount is the grid point count of the values array without decoding it.
func valuesCount(m *format.Message) (int, error) {
	switch m.Edition {
	case 1:
		if _, total, ok := bitmap1(m); ok {
			return total, nil
		}
		p, err := readPacking1(m)
		if err != nil {
			return 0, err
		}
		return codedCount1(m, p), nil
	default:
		_, total, ok, err := bitmap2(m)
		if err != nil {
			return 0, err
		}
		if ok {
			return total, nil
		}
		p, err := readPacking2(m)
		if err != nil {
			return 0, err
		}
		return p.count, nil
	}
}
