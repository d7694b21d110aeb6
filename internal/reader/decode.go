// Package reader is the decode engine: it turns a structurally split message
// plus a schema into the ordered field list behind a handle's accessor tree.
// Decoding is eager; after Decode returns, field access never touches the
// schema again. The exported entry points are used by the public grib
// package, which owns coercion and tree semantics.
package reader

import (
	"fmt"
	"math"
	"strconv"

	"github.com/meteokit/gribkit/internal/buf"
	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
	"github.com/meteokit/gribkit/schema"
)

// Field is one decoded entry: its definition and its decode-time value.
type Field struct {
	Def   schema.FieldDef
	Value types.Value
}

// Decode extracts every schema field present in the message, in schema
// order. Fields whose section is absent are dropped (they carry the
// FlagOptional attribute in well-formed schemas).
func Decode(m *format.Message, p schema.Provider) ([]Field, error) {
	defs, err := p.Fields(m)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(defs))
	for _, def := range defs {
		v, ok, err := Extract(m, def)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", def.Name, err)
		}
		if !ok {
			continue
		}
		fields = append(fields, Field{Def: def, Value: v})
	}
	return fields, nil
}

// Extract produces the value of a single field. ok=false reports that the
// field's section (or window) is absent from this message; that is not an
// error for optional sections.
func Extract(m *format.Message, def schema.FieldDef) (types.Value, bool, error) {
	switch def.Op {
	case schema.OpEdition:
		return types.LongValue(int64(m.Edition)), true, nil
	case schema.OpTotalLength:
		return types.LongValue(int64(len(m.Data))), true, nil
	case schema.OpOctets:
		raw, ok := window(m, def)
		if !ok {
			return types.Value{}, false, nil
		}
		return octetValue(def, raw), true, nil
	case schema.OpCodeTable:
		raw, ok := window(m, def)
		if !ok {
			return types.Value{}, false, nil
		}
		return types.StringValue(tableName(def.Table, int64(raw))), true, nil
	case schema.OpParam2:
		return param2Value(m, def), true, nil
	case schema.OpDate:
		return dateValue(m)
	case schema.OpTime:
		return timeValue(m)
	case schema.OpLevel2:
		return level2Value(m)
	case schema.OpIBMFloat:
		sec, ok := m.Section(def.Section)
		if !ok || !buf.Has(sec, def.Octet, 4) {
			return types.Value{}, false, nil
		}
		return types.DoubleValue(format.IBMFloat(sec[def.Octet:])), true, nil
	case schema.OpIEEEFloat:
		sec, ok := m.Section(def.Section)
		if !ok || !buf.Has(sec, def.Octet, 4) {
			return types.Value{}, false, nil
		}
		bits := buf.U32BE(sec[def.Octet:])
		return types.DoubleValue(float64(math.Float32frombits(bits))), true, nil
	case schema.OpValues:
		vals, err := unpackValues(m)
		if err != nil {
			return types.Value{}, false, err
		}
		return types.DoubleArrayValue(vals), true, nil
	case schema.OpValuesCount:
		n, err := valuesCount(m)
		if err != nil {
			return types.Value{}, false, err
		}
		return types.LongValue(int64(n)), true, nil
	default:
		return types.Value{}, false, fmt.Errorf("op %d: %w", def.Op, types.ErrNotImplemented)
	}
}

// window reads the raw unsigned bit window of an octet-backed field.
// ok=false means the section is absent or too short.
func window(m *format.Message, def schema.FieldDef) (uint64, bool) {
	sec, ok := m.Section(def.Section)
	if !ok {
		return 0, false
	}
	if def.Bits <= 0 || !buf.BitHas(sec, def.Octet*8, def.Bits) {
		return 0, false
	}
	return buf.Uint(sec, def.Octet*8, def.Bits), true
}

// octetValue converts a raw window into the field's typed value, applying
// the missing sentinel, sign-and-magnitude decoding, and scaling.
func octetValue(def schema.FieldDef, raw uint64) types.Value {
	if def.CanBeMissing && raw == buf.MaxUint(def.Bits) {
		return types.MissingValue(def.Kind)
	}
	n := int64(raw)
	if def.Signed {
		mag := int64(raw & (buf.MaxUint(def.Bits) >> 1))
		if raw&(1<<(def.Bits-1)) != 0 {
			mag = -mag
		}
		n = mag
	}
	if def.Kind == types.Double {
		v := float64(n)
		if def.Scale != 0 {
			v /= def.Scale
		}
		return types.DoubleValue(v)
	}
	return types.LongValue(n)
}

func tableName(table map[int64]string, raw int64) string {
	if name, ok := table[raw]; ok {
		return name
	}
	return strconv.FormatInt(raw, 10)
}

func param2Value(m *format.Message, def schema.FieldDef) types.Value {
	discipline := int64(m.Data[6])
	sec4, ok := m.Section(4)
	if !ok || len(sec4) < 11 {
		return types.StringValue("unknown")
	}
	key := discipline<<16 | int64(sec4[9])<<8 | int64(sec4[10])
	if name, ok := def.Table[key]; ok {
		return types.StringValue(name)
	}
	return types.StringValue("unknown")
}

// dateValue composes the reference date as yyyymmdd.
func dateValue(m *format.Message) (types.Value, bool, error) {
	sec1, ok := m.Section(1)
	if !ok {
		return types.Value{}, false, nil
	}
	var year, month, day int64
	switch m.Edition {
	case 1:
		if len(sec1) < format.PDSMinSize {
			return types.Value{}, false, nil
		}
		century := int64(sec1[24])
		year = (century-1)*100 + int64(sec1[12])
		month, day = int64(sec1[13]), int64(sec1[14])
	default:
		if len(sec1) < 21 {
			return types.Value{}, false, nil
		}
		year = int64(buf.U16BE(sec1[12:]))
		month, day = int64(sec1[14]), int64(sec1[15])
	}
	return types.LongValue(year*10000 + month*100 + day), true, nil
}

// timeValue composes the reference time as hhmm.
func timeValue(m *format.Message) (types.Value, bool, error) {
	sec1, ok := m.Section(1)
	if !ok {
		return types.Value{}, false, nil
	}
	var hour, minute int64
	switch m.Edition {
	case 1:
		if len(sec1) < format.PDSMinSize {
			return types.Value{}, false, nil
		}
		hour, minute = int64(sec1[15]), int64(sec1[16])
	default:
		if len(sec1) < 21 {
			return types.Value{}, false, nil
		}
		hour, minute = int64(sec1[16]), int64(sec1[17])
	}
	return types.LongValue(hour*100 + minute), true, nil
}

// level2Value derives the edition-2 level from the first fixed surface:
// scaledValue / 10^scaleFactor, reported in hPa for isobaric surfaces the
// way meteorological tooling expects.
func level2Value(m *format.Message) (types.Value, bool, error) {
	sec4, ok := m.Section(4)
	if !ok || len(sec4) < 28 {
		return types.Value{}, false, nil
	}
	surfaceType := int64(sec4[22])
	scaleRaw := sec4[23]
	scaled := buf.U32BE(sec4[24:])
	if scaled == 0xffffffff {
		return types.MissingValue(types.Long), true, nil
	}
	v := float64(scaled)
	if scaleRaw != 0xff {
		scale := int(scaleRaw & 0x7f)
		if scaleRaw&0x80 != 0 {
			scale = -scale
		}
		v /= math.Pow(10, float64(scale))
	}
	if surfaceType == 100 {
		v /= 100 // Pa -> hPa
	}
	return types.LongValue(int64(math.Round(v))), true, nil
}
