package format

import (
	"fmt"
	"math"

	"github.com/meteokit/gribkit/internal/buf"
)

// Synthetic message encoders. These exist for test fixtures and for the
// gribctl sample command; they are not a general-purpose GRIB writer and do
// no packing-strategy selection.

// Grib1Spec describes one edition-1 message to synthesize.
type Grib1Spec struct {
	Table2Version     int
	Centre            int
	GeneratingProcess int
	GridDefinition    int

	Parameter int // indicatorOfParameter, WMO table 2
	LevelType int // indicatorOfTypeOfLevel, WMO table 3
	Level     int

	Year, Month, Day, Hour, Minute int

	UnitOfTime, P1, P2, TimeRange int

	DecimalScale int
	BitsPerValue int
	Values       []float64

	// Grid description (optional). When Ni/Nj are zero no GDS is written.
	Ni, Nj                 int
	La1, Lo1, La2, Lo2     float64 // degrees
	IIncrement, JIncrement float64 // degrees
}

// EncodeGrib1 assembles a complete edition-1 message: IS, PDS, optional GDS,
// BDS with simple packing, end marker.
func EncodeGrib1(s Grib1Spec) ([]byte, error) {
	if s.BitsPerValue == 0 {
		s.BitsPerValue = 16
	}
	if s.Year == 0 {
		s.Year = 2000
	}

	pds := make([]byte, PDSMinSize)
	pds[3] = byte(s.Table2Version)
	pds[4] = byte(s.Centre)
	pds[5] = byte(s.GeneratingProcess)
	pds[6] = byte(s.GridDefinition)
	if s.Ni > 0 {
		pds[7] |= PDSFlagGDS
	}
	pds[8] = byte(s.Parameter)
	pds[9] = byte(s.LevelType)
	buf.PutU16BE(pds[10:], uint16(s.Level))
	century := (s.Year-1)/100 + 1
	pds[12] = byte(s.Year - (century-1)*100)
	pds[13] = byte(s.Month)
	pds[14] = byte(s.Day)
	pds[15] = byte(s.Hour)
	pds[16] = byte(s.Minute)
	pds[17] = byte(s.UnitOfTime)
	pds[18] = byte(s.P1)
	pds[19] = byte(s.P2)
	pds[20] = byte(s.TimeRange)
	pds[24] = byte(century)
	buf.PutS16BE(pds[26:], int32(s.DecimalScale))
	buf.PutU24BE(pds, uint32(len(pds)))

	var gds []byte
	if s.Ni > 0 {
		gds = make([]byte, 32)
		gds[4] = 255 // no vertical coordinate list
		gds[5] = 0   // latitude/longitude grid
		buf.PutU16BE(gds[6:], uint16(s.Ni))
		buf.PutU16BE(gds[8:], uint16(s.Nj))
		buf.PutS24BE(gds[10:], int32(math.Round(s.La1*1000)))
		buf.PutS24BE(gds[13:], int32(math.Round(s.Lo1*1000)))
		gds[16] = 0x80 // increments given
		buf.PutS24BE(gds[17:], int32(math.Round(s.La2*1000)))
		buf.PutS24BE(gds[20:], int32(math.Round(s.Lo2*1000)))
		buf.PutU16BE(gds[23:], uint16(math.Round(s.IIncrement*1000)))
		buf.PutU16BE(gds[25:], uint16(math.Round(s.JIncrement*1000)))
		buf.PutU24BE(gds, uint32(len(gds)))
	}

	ref, binScale, packed, err := PackSimple(s.Values, s.BitsPerValue, s.DecimalScale)
	if err != nil {
		return nil, fmt.Errorf("encode grib1: %w", err)
	}
	dataBits := len(s.Values) * s.BitsPerValue
	bdsLen := BDSHeaderSize + (dataBits+7)/8
	if bdsLen%2 != 0 {
		bdsLen++ // edition 1 sections have even length
	}
	bds := make([]byte, bdsLen)
	unused := bdsLen*8 - BDSHeaderSize*8 - dataBits
	bds[3] = byte(unused) // simple grid-point packing: flag nibble zero
	buf.PutS16BE(bds[4:], int32(binScale))
	PutIBMFloat(bds[6:], ref)
	bds[10] = byte(s.BitsPerValue)
	copy(bds[BDSHeaderSize:], packed)
	buf.PutU24BE(bds, uint32(bdsLen))

	total := IndicatorSize1 + len(pds) + len(gds) + len(bds) + EndMarkerSize
	out := make([]byte, 0, total)
	is := make([]byte, IndicatorSize1)
	copy(is, Magic)
	buf.PutU24BE(is[4:], uint32(total))
	is[7] = 1
	out = append(out, is...)
	out = append(out, pds...)
	out = append(out, gds...)
	out = append(out, bds...)
	out = append(out, EndMarker...)
	return out, nil
}

// Grib2Spec describes one edition-2 message to synthesize (product
// definition template 4.0, data representation template 5.0).
type Grib2Spec struct {
	Discipline int
	Centre     int
	SubCentre  int

	Year, Month, Day, Hour, Minute, Second int

	ParameterCategory int
	ParameterNumber   int
	UnitOfTime        int
	ForecastTime      int

	LevelType        int // typeOfFirstFixedSurface
	LevelScaleFactor int
	LevelScaledValue int

	DecimalScale int
	BitsPerValue int
	Values       []float64
}

// EncodeGrib2 assembles a complete edition-2 message with sections 1, 3, 4,
// 5, 6 (no bitmap), 7 and the end marker.
func EncodeGrib2(s Grib2Spec) ([]byte, error) {
	if s.BitsPerValue == 0 {
		s.BitsPerValue = 16
	}
	if s.Year == 0 {
		s.Year = 2000
	}

	sec1 := make([]byte, 21)
	sec1[4] = 1
	buf.PutU16BE(sec1[5:], uint16(s.Centre))
	buf.PutU16BE(sec1[7:], uint16(s.SubCentre))
	sec1[9] = 2   // master tables version
	sec1[10] = 0  // local tables
	sec1[11] = 1  // reference time = start of forecast
	buf.PutU16BE(sec1[12:], uint16(s.Year))
	sec1[14] = byte(s.Month)
	sec1[15] = byte(s.Day)
	sec1[16] = byte(s.Hour)
	sec1[17] = byte(s.Minute)
	sec1[18] = byte(s.Second)
	sec1[20] = 1 // forecast products
	buf.PutU32BE(sec1, uint32(len(sec1)))

	sec3 := make([]byte, 72)
	sec3[4] = 3
	buf.PutU32BE(sec3[6:], uint32(len(s.Values))) // numberOfDataPoints
	buf.PutU16BE(sec3[12:], 0)                    // template 3.0
	buf.PutU32BE(sec3, uint32(len(sec3)))

	sec4 := make([]byte, 34)
	sec4[4] = 4
	buf.PutU16BE(sec4[7:], 0) // template 4.0
	sec4[9] = byte(s.ParameterCategory)
	sec4[10] = byte(s.ParameterNumber)
	sec4[11] = 2 // forecast
	sec4[17] = byte(s.UnitOfTime)
	buf.PutU32BE(sec4[18:], uint32(s.ForecastTime))
	sec4[22] = byte(s.LevelType)
	sec4[23] = byte(s.LevelScaleFactor)
	buf.PutU32BE(sec4[24:], uint32(s.LevelScaledValue))
	sec4[28] = 255 // no second fixed surface
	sec4[29] = 255
	buf.PutU32BE(sec4[30:], 0xffffffff)
	buf.PutU32BE(sec4, uint32(len(sec4)))

	ref, binScale, packed, err := PackSimple(s.Values, s.BitsPerValue, s.DecimalScale)
	if err != nil {
		return nil, fmt.Errorf("encode grib2: %w", err)
	}
	sec5 := make([]byte, 21)
	sec5[4] = 5
	buf.PutU32BE(sec5[5:], uint32(len(s.Values)))
	buf.PutU16BE(sec5[9:], 0) // template 5.0
	buf.PutU32BE(sec5[11:], math.Float32bits(float32(ref)))
	buf.PutS16BE(sec5[15:], int32(binScale))
	buf.PutS16BE(sec5[17:], int32(s.DecimalScale))
	sec5[19] = byte(s.BitsPerValue)
	buf.PutU32BE(sec5, uint32(len(sec5)))

	sec6 := make([]byte, 6)
	sec6[4] = 6
	sec6[5] = 255 // no bitmap
	buf.PutU32BE(sec6, uint32(len(sec6)))

	sec7 := make([]byte, 5+len(packed))
	sec7[4] = 7
	copy(sec7[5:], packed)
	buf.PutU32BE(sec7, uint32(len(sec7)))

	total := IndicatorSize2 + len(sec1) + len(sec3) + len(sec4) + len(sec5) + len(sec6) + len(sec7) + EndMarkerSize
	out := make([]byte, 0, total)
	is := make([]byte, IndicatorSize2)
	copy(is, Magic)
	is[6] = byte(s.Discipline)
	is[7] = 2
	buf.PutU64BE(is[8:], uint64(total))
	out = append(out, is...)
	out = append(out, sec1...)
	out = append(out, sec3...)
	out = append(out, sec4...)
	out = append(out, sec5...)
	out = append(out, sec6...)
	out = append(out, sec7...)
	out = append(out, EndMarker...)
	return out, nil
}
