package schema

import (
	"testing"

	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
)

func parse(t *testing.T, raw []byte) *format.Message {
	t.Helper()
	m, err := format.ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	return m
}

func TestBuiltinEdition1FieldSet(t *testing.T) {
	raw, err := format.EncodeGrib1(format.Grib1Spec{
		Parameter: 11, LevelType: 100, Level: 850,
		Values: []float64{1, 2},
		Ni:     2, Nj: 1,
	})
	if err != nil {
		t.Fatalf("EncodeGrib1: %v", err)
	}
	defs, err := Builtin().Fields(parse(t, raw))
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}

	byName := make(map[string]FieldDef, len(defs))
	for _, d := range defs {
		if _, dup := byName[d.Name]; dup {
			t.Fatalf("duplicate field name %s", d.Name)
		}
		byName[d.Name] = d
	}

	// the GDS block is present for a gridded message
	if _, ok := byName["Ni"]; !ok {
		t.Fatalf("Ni absent despite grid description section")
	}
	if d := byName["latitudeOfFirstGridPointInDegrees"]; !d.Flags.Has(types.FlagOptional) || d.Kind != types.Double {
		t.Fatalf("latitude def = %+v", d)
	}

	// aliases share their raw field's window so sets stay coherent
	short, code := byName["shortName"], byName["indicatorOfParameter"]
	if short.Section != code.Section || short.Octet != code.Octet || short.Bits != code.Bits {
		t.Fatalf("shortName window %+v != indicatorOfParameter window %+v", short, code)
	}
	if short.ReadOnly() || code.ReadOnly() {
		t.Fatalf("parameter fields must be settable")
	}
	if !byName["editionNumber"].ReadOnly() || !byName["dataDate"].ReadOnly() {
		t.Fatalf("derived fields must be read only")
	}
}

func TestBuiltinEdition1NoGDS(t *testing.T) {
	raw, err := format.EncodeGrib1(format.Grib1Spec{
		Parameter: 11, LevelType: 1,
		Values: []float64{1},
	})
	if err != nil {
		t.Fatalf("EncodeGrib1: %v", err)
	}
	defs, err := Builtin().Fields(parse(t, raw))
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	for _, d := range defs {
		if d.Name == "Ni" {
			t.Fatalf("Ni listed without a grid description section")
		}
	}
}

func TestBuiltinEdition2FieldSet(t *testing.T) {
	raw, err := format.EncodeGrib2(format.Grib2Spec{
		ParameterCategory: 0, ParameterNumber: 0,
		LevelType: 100, LevelScaledValue: 85000,
		Values: []float64{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("EncodeGrib2: %v", err)
	}
	defs, err := Builtin().Fields(parse(t, raw))
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	var haveShort, haveLevel bool
	for _, d := range defs {
		switch d.Name {
		case "shortName":
			haveShort = true
			if d.Op != OpParam2 {
				t.Fatalf("edition-2 shortName op = %d", d.Op)
			}
		case "level":
			haveLevel = true
			if d.Op != OpLevel2 {
				t.Fatalf("edition-2 level op = %d", d.Op)
			}
		}
	}
	if !haveShort || !haveLevel {
		t.Fatalf("shortName/level missing from edition-2 schema")
	}
}

func TestBuiltinUnsupportedEdition(t *testing.T) {
	m := &format.Message{Edition: 3}
	if _, err := Builtin().Fields(m); err == nil {
		t.Fatalf("edition 3 must be rejected")
	}
}
