package reader

import (
	"fmt"
	"math"

	"github.com/meteokit/gribkit/internal/buf"
	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
	"github.com/meteokit/gribkit/schema"
)

// EncodeField writes v back into the message buffer for the given field.
// Either the write fully succeeds or the buffer is left untouched. Callers
// enforce the read-only attribute; computed ops are rejected here as well.
func EncodeField(m *format.Message, def schema.FieldDef, v types.Value) error {
	switch def.Op {
	case schema.OpOctets:
		raw, err := rawForWindow(def, v)
		if err != nil {
			return err
		}
		return putWindow(m, def, raw)
	case schema.OpCodeTable:
		raw, err := rawForTable(def, v)
		if err != nil {
			return err
		}
		return putWindow(m, def, raw)
	case schema.OpParam2:
		return encodeParam2(m, def, v)
	case schema.OpValues:
		vals := v.DoubleArray()
		if vals == nil {
			return fmt.Errorf("set %s: %w", def.Name, types.ErrInvalidType)
		}
		return RepackValues(m, vals)
	default:
		return fmt.Errorf("set %s: %w", def.Name, types.ErrReadOnly)
	}
}

// SetMissing writes the field's all-ones missing sentinel into the buffer.
func SetMissing(m *format.Message, def schema.FieldDef) error {
	if !def.CanBeMissing {
		return fmt.Errorf("set %s missing: %w", def.Name, types.ErrValueCannotBeMissing)
	}
	return putWindow(m, def, buf.MaxUint(def.Bits))
}

// rawForWindow converts a typed value to the raw window integer, enforcing
// the coded width.
func rawForWindow(def schema.FieldDef, v types.Value) (uint64, error) {
	var n int64
	if def.Kind == types.Double || def.Scale != 0 {
		f, err := v.AsDouble()
		if err != nil {
			return 0, err
		}
		if def.Scale != 0 {
			f *= def.Scale
		}
		n = int64(math.Round(f))
	} else {
		var err error
		n, err = v.AsLong()
		if err != nil {
			return 0, err
		}
	}
	if def.Signed {
		mag := n
		var sign uint64
		if mag < 0 {
			mag = -mag
			sign = 1 << (def.Bits - 1)
		}
		if uint64(mag) > buf.MaxUint(def.Bits)>>1 {
			return 0, fmt.Errorf("set %s = %d: %w", def.Name, n, types.ErrOutOfRange)
		}
		return sign | uint64(mag), nil
	}
	if n < 0 || uint64(n) > buf.MaxUint(def.Bits) {
		return 0, fmt.Errorf("set %s = %d: %w", def.Name, n, types.ErrOutOfRange)
	}
	return uint64(n), nil
}

// rawForTable resolves a code-table set: strings reverse through the table,
// numeric values write the raw code directly.
func rawForTable(def schema.FieldDef, v types.Value) (uint64, error) {
	if v.Kind() == types.String {
		name, err := v.AsString()
		if err != nil {
			return 0, err
		}
		for raw, n := range def.Table {
			if n == name {
				return uint64(raw), nil
			}
		}
		return 0, fmt.Errorf("set %s = %q: no such table entry: %w", def.Name, name, types.ErrNotFound)
	}
	n, err := v.AsLong()
	if err != nil {
		return 0, err
	}
	if n < 0 || uint64(n) > buf.MaxUint(def.Bits) {
		return 0, fmt.Errorf("set %s = %d: %w", def.Name, n, types.ErrOutOfRange)
	}
	return uint64(n), nil
}

// encodeParam2 reverses an edition-2 parameter name to the category and
// number octets, within the message's discipline.
func encodeParam2(m *format.Message, def schema.FieldDef, v types.Value) error {
	name, err := v.AsString()
	if err != nil {
		return err
	}
	sec4, ok := m.Section(4)
	if !ok || len(sec4) < 11 {
		return fmt.Errorf("set %s: product definition section: %w", def.Name, types.ErrMessageMalformed)
	}
	discipline := int64(m.Data[6])
	for key, n := range def.Table {
		if n == name && key>>16 == discipline {
			sec4[9] = byte(key >> 8)
			sec4[10] = byte(key)
			return nil
		}
	}
	return fmt.Errorf("set %s = %q: no such table entry: %w", def.Name, name, types.ErrNotFound)
}

func putWindow(m *format.Message, def schema.FieldDef, raw uint64) error {
	sec, ok := m.Section(def.Section)
	if !ok || !buf.BitHas(sec, def.Octet*8, def.Bits) {
		return fmt.Errorf("set %s: section %d: %w", def.Name, def.Section, types.ErrNotFound)
	}
	buf.PutUint(sec, def.Octet*8, def.Bits, raw)
	return nil
}

// RepackValues re-encodes the data section in place with the existing
// bits-per-value and decimal scale (no packing-strategy selection). The new
// array must have the same length as the coded one; bitmapped and
// constant-packed messages are not repackable in place.
func RepackValues(m *format.Message, vals []float64) error {
	switch m.Edition {
	case 1:
		if _, _, ok := bitmap1(m); ok {
			return fmt.Errorf("repack with bitmap: %w", types.ErrNotImplemented)
		}
		p, err := readPacking1(m)
		if err != nil {
			return err
		}
		if p.bits == 0 {
			return fmt.Errorf("repack constant field: %w", types.ErrNotImplemented)
		}
		if len(vals) != codedCount1(m, p) {
			return fmt.Errorf("repack %d values into %d slots: %w", len(vals), codedCount1(m, p), types.ErrWrongLength)
		}
		ref, binScale, packed, err := format.PackSimple(vals, p.bits, p.decScale)
		if err != nil {
			return err
		}
		buf.PutS16BE(p.bds[4:], int32(binScale))
		format.PutIBMFloat(p.bds[6:], ref)
		copy(p.bds[format.BDSHeaderSize:], packed)
		return nil
	default:
		if _, _, ok, err := bitmap2(m); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("repack with bitmap: %w", types.ErrNotImplemented)
		}
		p, err := readPacking2(m)
		if err != nil {
			return err
		}
		if p.bits == 0 {
			return fmt.Errorf("repack constant field: %w", types.ErrNotImplemented)
		}
		if len(vals) != p.count {
			return fmt.Errorf("repack %d values into %d slots: %w", len(vals), p.count, types.ErrWrongLength)
		}
		ref, binScale, packed, err := format.PackSimple(vals, p.bits, p.decScale)
		if err != nil {
			return err
		}
		buf.PutU32BE(p.sec5[11:], math.Float32bits(float32(ref)))
		buf.PutS16BE(p.sec5[15:], int32(binScale))
		copy(p.sec7[5:], packed)
		return nil
	}
}
