package schema

import (
	"fmt"

	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
)

// grib1Params is the WMO GRIB1 parameter table (code table 2) subset carried
// by the builtin provider, keyed by indicatorOfParameter.
var grib1Params = map[int64]string{
	1:  "pres",
	2:  "msl",
	6:  "z",
	7:  "gh",
	11: "t",
	33: "u",
	34: "v",
	39: "w",
	51: "q",
	52: "r",
	61: "tp",
}

// grib1LevelTypes is the WMO GRIB1 level table (code table 3) subset.
var grib1LevelTypes = map[int64]string{
	1:   "surface",
	100: "isobaricInhPa",
	102: "meanSea",
	105: "heightAboveGround",
	109: "hybrid",
}

func param2Key(discipline, category, number int64) int64 {
	return discipline<<16 | category<<8 | number
}

// grib2Params maps (discipline, parameterCategory, parameterNumber) to the
// same short names as the edition-1 table, so indexes built on shortName are
// edition-agnostic.
var grib2Params = map[int64]string{
	param2Key(0, 0, 0): "t",
	param2Key(0, 1, 0): "q",
	param2Key(0, 1, 1): "r",
	param2Key(0, 1, 8): "tp",
	param2Key(0, 2, 2): "u",
	param2Key(0, 2, 3): "v",
	param2Key(0, 2, 8): "w",
	param2Key(0, 3, 0): "pres",
	param2Key(0, 3, 1): "prmsl",
	param2Key(0, 3, 4): "z",
	param2Key(0, 3, 5): "gh",
}

// grib2LevelTypes is the GRIB2 fixed surface type table (code table 4.5) subset.
var grib2LevelTypes = map[int64]string{
	1:   "surface",
	100: "isobaricInhPa",
	101: "meanSea",
	103: "heightAboveGround",
	105: "hybrid",
}

type builtin struct{}

// Builtin returns the built-in WMO-derived provider covering editions 1 and 2.
func Builtin() Provider { return builtin{} }

func (builtin) Fields(m *format.Message) ([]FieldDef, error) {
	switch m.Edition {
	case 1:
		return grib1Fields(m), nil
	case 2:
		return grib2Fields(), nil
	default:
		return nil, fmt.Errorf("schema: edition %d: %w", m.Edition, types.ErrUnsupportedEdition)
	}
}

const (
	roFlags   = types.FlagReadOnly | types.FlagCoded
	compFlags = types.FlagReadOnly | types.FlagComputed
)

// grib1Fields lists the edition-1 keys in decode order: structural keys
// first, then PDS, optional GDS, and BDS. Optional-section fields are listed
// unconditionally; the decode engine drops the ones whose section is absent.
func grib1Fields(m *format.Message) []FieldDef {
	fields := []FieldDef{
		{Name: "editionNumber", Kind: types.Long, Op: OpEdition, Namespace: "ls", Flags: compFlags},
		{Name: "totalLength", Kind: types.Long, Op: OpTotalLength, Flags: compFlags},

		{Name: "table2Version", Kind: types.Long, Section: 1, Octet: 3, Bits: 8, Namespace: "parameter", Flags: types.FlagCoded},
		{Name: "centre", Kind: types.Long, Section: 1, Octet: 4, Bits: 8, Namespace: "ls", Flags: types.FlagCoded},
		{Name: "generatingProcessIdentifier", Kind: types.Long, Section: 1, Octet: 5, Bits: 8, Flags: types.FlagCoded},
		{Name: "gridDefinition", Kind: types.Long, Section: 1, Octet: 6, Bits: 8, Flags: types.FlagCoded},
		{Name: "section1Flags", Kind: types.Long, Section: 1, Octet: 7, Bits: 8, Flags: roFlags},
		{Name: "indicatorOfParameter", Kind: types.Long, Section: 1, Octet: 8, Bits: 8, Namespace: "parameter", Flags: types.FlagCoded},
		{Name: "shortName", Kind: types.String, Op: OpCodeTable, Section: 1, Octet: 8, Bits: 8, Table: grib1Params, Namespace: "parameter", Flags: types.FlagComputed},
		{Name: "indicatorOfTypeOfLevel", Kind: types.Long, Section: 1, Octet: 9, Bits: 8, Namespace: "vertical", Flags: types.FlagCoded},
		{Name: "typeOfLevel", Kind: types.String, Op: OpCodeTable, Section: 1, Octet: 9, Bits: 8, Table: grib1LevelTypes, Namespace: "vertical", Flags: types.FlagComputed},
		{Name: "level", Kind: types.Long, Section: 1, Octet: 10, Bits: 16, Namespace: "vertical", Flags: types.FlagCoded},
		{Name: "yearOfCentury", Kind: types.Long, Section: 1, Octet: 12, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "month", Kind: types.Long, Section: 1, Octet: 13, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "day", Kind: types.Long, Section: 1, Octet: 14, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "hour", Kind: types.Long, Section: 1, Octet: 15, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "minute", Kind: types.Long, Section: 1, Octet: 16, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "unitOfTimeRange", Kind: types.Long, Section: 1, Octet: 17, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "P1", Kind: types.Long, Section: 1, Octet: 18, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "P2", Kind: types.Long, Section: 1, Octet: 19, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "timeRangeIndicator", Kind: types.Long, Section: 1, Octet: 20, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "centuryOfReferenceTimeOfData", Kind: types.Long, Section: 1, Octet: 24, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "subCentre", Kind: types.Long, Section: 1, Octet: 25, Bits: 8, CanBeMissing: true, Flags: types.FlagCoded},
		{Name: "decimalScaleFactor", Kind: types.Long, Section: 1, Octet: 26, Bits: 16, Signed: true, Flags: roFlags},
		{Name: "dataDate", Kind: types.Long, Op: OpDate, Namespace: "time", Flags: compFlags},
		{Name: "dataTime", Kind: types.Long, Op: OpTime, Namespace: "time", Flags: compFlags},
	}
	if _, ok := m.Section(format.SectionGDS); ok {
		fields = append(fields,
			FieldDef{Name: "dataRepresentationType", Kind: types.Long, Section: 2, Octet: 5, Bits: 8, Namespace: "geography", Flags: roFlags | types.FlagOptional},
			FieldDef{Name: "Ni", Kind: types.Long, Section: 2, Octet: 6, Bits: 16, CanBeMissing: true, Namespace: "geography", Flags: roFlags | types.FlagOptional},
			FieldDef{Name: "Nj", Kind: types.Long, Section: 2, Octet: 8, Bits: 16, CanBeMissing: true, Namespace: "geography", Flags: roFlags | types.FlagOptional},
			FieldDef{Name: "latitudeOfFirstGridPointInDegrees", Kind: types.Double, Section: 2, Octet: 10, Bits: 24, Signed: true, Scale: 1000, Namespace: "geography", Flags: roFlags | types.FlagOptional},
			FieldDef{Name: "longitudeOfFirstGridPointInDegrees", Kind: types.Double, Section: 2, Octet: 13, Bits: 24, Signed: true, Scale: 1000, Namespace: "geography", Flags: roFlags | types.FlagOptional},
			FieldDef{Name: "latitudeOfLastGridPointInDegrees", Kind: types.Double, Section: 2, Octet: 17, Bits: 24, Signed: true, Scale: 1000, Namespace: "geography", Flags: roFlags | types.FlagOptional},
			FieldDef{Name: "longitudeOfLastGridPointInDegrees", Kind: types.Double, Section: 2, Octet: 20, Bits: 24, Signed: true, Scale: 1000, Namespace: "geography", Flags: roFlags | types.FlagOptional},
			FieldDef{Name: "scanningMode", Kind: types.Long, Section: 2, Octet: 27, Bits: 8, Namespace: "geography", Flags: roFlags | types.FlagOptional},
		)
	}
	fields = append(fields,
		FieldDef{Name: "binaryScaleFactor", Kind: types.Long, Section: 4, Octet: 4, Bits: 16, Signed: true, Namespace: "data", Flags: roFlags},
		FieldDef{Name: "referenceValue", Kind: types.Double, Op: OpIBMFloat, Section: 4, Octet: 6, Namespace: "data", Flags: compFlags},
		FieldDef{Name: "bitsPerValue", Kind: types.Long, Section: 4, Octet: 10, Bits: 8, Namespace: "data", Flags: roFlags},
		FieldDef{Name: "numberOfValues", Kind: types.Long, Op: OpValuesCount, Namespace: "data", Flags: compFlags},
		FieldDef{Name: "values", Kind: types.Double, Op: OpValues, Namespace: "data", Flags: types.FlagCoded},
	)
	return fields
}

// grib2Fields lists the edition-2 keys: indicator, identification section,
// grid/product/data-representation subset for templates 3.0/4.0/5.0.
func grib2Fields() []FieldDef {
	return []FieldDef{
		{Name: "editionNumber", Kind: types.Long, Op: OpEdition, Namespace: "ls", Flags: compFlags},
		{Name: "totalLength", Kind: types.Long, Op: OpTotalLength, Flags: compFlags},
		{Name: "discipline", Kind: types.Long, Section: 0, Octet: 6, Bits: 8, Namespace: "parameter", Flags: roFlags},

		{Name: "centre", Kind: types.Long, Section: 1, Octet: 5, Bits: 16, Namespace: "ls", Flags: types.FlagCoded},
		{Name: "subCentre", Kind: types.Long, Section: 1, Octet: 7, Bits: 16, CanBeMissing: true, Flags: types.FlagCoded},
		{Name: "tablesVersion", Kind: types.Long, Section: 1, Octet: 9, Bits: 8, Namespace: "parameter", Flags: types.FlagCoded},
		{Name: "year", Kind: types.Long, Section: 1, Octet: 12, Bits: 16, Namespace: "time", Flags: types.FlagCoded},
		{Name: "month", Kind: types.Long, Section: 1, Octet: 14, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "day", Kind: types.Long, Section: 1, Octet: 15, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "hour", Kind: types.Long, Section: 1, Octet: 16, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "minute", Kind: types.Long, Section: 1, Octet: 17, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "second", Kind: types.Long, Section: 1, Octet: 18, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "dataDate", Kind: types.Long, Op: OpDate, Namespace: "time", Flags: compFlags},
		{Name: "dataTime", Kind: types.Long, Op: OpTime, Namespace: "time", Flags: compFlags},

		{Name: "numberOfDataPoints", Kind: types.Long, Section: 3, Octet: 6, Bits: 32, Namespace: "geography", Flags: roFlags | types.FlagOptional},

		{Name: "productDefinitionTemplateNumber", Kind: types.Long, Section: 4, Octet: 7, Bits: 16, Flags: roFlags},
		{Name: "parameterCategory", Kind: types.Long, Section: 4, Octet: 9, Bits: 8, Namespace: "parameter", Flags: types.FlagCoded},
		{Name: "parameterNumber", Kind: types.Long, Section: 4, Octet: 10, Bits: 8, Namespace: "parameter", Flags: types.FlagCoded},
		{Name: "shortName", Kind: types.String, Op: OpParam2, Table: grib2Params, Namespace: "parameter", Flags: types.FlagComputed},
		{Name: "indicatorOfUnitOfTimeRange", Kind: types.Long, Section: 4, Octet: 17, Bits: 8, Namespace: "time", Flags: types.FlagCoded},
		{Name: "forecastTime", Kind: types.Long, Section: 4, Octet: 18, Bits: 32, Namespace: "time", Flags: types.FlagCoded},
		{Name: "typeOfFirstFixedSurface", Kind: types.Long, Section: 4, Octet: 22, Bits: 8, Namespace: "vertical", Flags: types.FlagCoded},
		{Name: "typeOfLevel", Kind: types.String, Op: OpCodeTable, Section: 4, Octet: 22, Bits: 8, Table: grib2LevelTypes, Namespace: "vertical", Flags: types.FlagComputed},
		{Name: "scaleFactorOfFirstFixedSurface", Kind: types.Long, Section: 4, Octet: 23, Bits: 8, CanBeMissing: true, Namespace: "vertical", Flags: types.FlagCoded},
		{Name: "scaledValueOfFirstFixedSurface", Kind: types.Long, Section: 4, Octet: 24, Bits: 32, CanBeMissing: true, Namespace: "vertical", Flags: types.FlagCoded},
		{Name: "level", Kind: types.Long, Op: OpLevel2, Namespace: "vertical", Flags: compFlags},

		{Name: "numberOfValues", Kind: types.Long, Section: 5, Octet: 5, Bits: 32, Namespace: "data", Flags: roFlags},
		{Name: "referenceValue", Kind: types.Double, Op: OpIEEEFloat, Section: 5, Octet: 11, Namespace: "data", Flags: compFlags},
		{Name: "binaryScaleFactor", Kind: types.Long, Section: 5, Octet: 15, Bits: 16, Signed: true, Namespace: "data", Flags: roFlags},
		{Name: "decimalScaleFactor", Kind: types.Long, Section: 5, Octet: 17, Bits: 16, Signed: true, Namespace: "data", Flags: roFlags},
		{Name: "bitsPerValue", Kind: types.Long, Section: 5, Octet: 19, Bits: 8, Namespace: "data", Flags: roFlags},
		{Name: "values", Kind: types.Double, Op: OpValues, Namespace: "data", Flags: types.FlagCoded},
	}
}
