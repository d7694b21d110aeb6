package grib

import (
	"fmt"

	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
)

// NewHandleFromSample returns a handle over a freshly synthesized message.
// Samples are starting points for building messages programmatically: decode
// one, set keys, and write Message() out. Supported names:
//
//	regular_ll_sfc_grib1 — edition 1, t/850 on a 16x8 regular lat/lon grid
//	regular_ll_sfc_grib2 — edition 2, t/500
func NewHandleFromSample(ctx *Context, name string) (*Handle, error) {
	raw, err := sampleMessage(name)
	if err != nil {
		return nil, err
	}
	return NewHandleFromMessageCopy(ctx.orDefault(), raw)
}

func sampleMessage(name string) ([]byte, error) {
	switch name {
	case "regular_ll_sfc_grib1", "GRIB1":
		return format.EncodeGrib1(format.Grib1Spec{
			Centre:    98,
			Parameter: 11,
			LevelType: 100,
			Level:     850,
			Year:      2000, Month: 1, Day: 1, Hour: 12,
			BitsPerValue: 16,
			Values:       sampleGrid(16 * 8),
			Ni:           16, Nj: 8,
			La1: 60, Lo1: 0, La2: 25, Lo2: 60,
			IIncrement: 4, JIncrement: 5,
		})
	case "regular_ll_sfc_grib2", "GRIB2":
		return format.EncodeGrib2(format.Grib2Spec{
			Centre: 98,
			Year:   2000, Month: 1, Day: 1, Hour: 12,
			ParameterCategory: 0, ParameterNumber: 0,
			LevelType: 100, LevelScaledValue: 50000,
			BitsPerValue: 16,
			Values:       sampleGrid(16 * 8),
		})
	default:
		return nil, fmt.Errorf("sample %q: %w", name, types.ErrNotFound)
	}
}

// sampleGrid is a smooth synthetic temperature field.
func sampleGrid(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = 273.15 + float64(i%17) - float64(i%5)
	}
	return vals
}
