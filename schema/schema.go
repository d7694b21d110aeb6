// Package schema is the decode-schema service consumed by the decode engine:
// given a structurally split message, a Provider returns the ordered field
// definitions that map coded octets to named, typed, namespaced keys. The
// engine never embeds this mapping itself; Builtin() supplies a WMO-derived
// default and callers may plug their own Provider for local tables.
package schema

import (
	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
)

// Op selects how a field's value is produced from the message.
type Op uint8

const (
	// OpOctets extracts an unsigned (or sign-and-magnitude) bit window at
	// Section/Octet/Bits. The default.
	OpOctets Op = iota
	// OpEdition yields the edition number from the indicator.
	OpEdition
	// OpTotalLength yields the declared total message length.
	OpTotalLength
	// OpCodeTable extracts the window like OpOctets, then maps the raw value
	// through Table to a string.
	OpCodeTable
	// OpParam2 resolves the edition-2 parameter name from the (discipline,
	// parameterCategory, parameterNumber) triple via Table keyed by
	// discipline<<16 | category<<8 | number.
	OpParam2
	// OpDate composes the reference date as yyyymmdd.
	OpDate
	// OpTime composes the reference time as hhmm.
	OpTime
	// OpLevel2 derives the edition-2 level from the scaled first fixed
	// surface (hPa for isobaric surfaces, native units otherwise).
	OpLevel2
	// OpIBMFloat extracts a 32-bit IBM hexadecimal float at Section/Octet.
	OpIBMFloat
	// OpIEEEFloat extracts a 32-bit IEEE float at Section/Octet.
	OpIEEEFloat
	// OpValues unpacks the data section into a double array.
	OpValues
	// OpValuesCount yields the number of packed data values.
	OpValuesCount
)

// FieldDef describes one named field of a message.
type FieldDef struct {
	Name string
	Kind types.Kind
	Op   Op

	// Window location for octet-backed ops. Section is the WMO section
	// number; Octet is a 0-based byte offset within that section (header
	// octets included); Bits is the window width.
	Section int
	Octet   int
	Bits    int

	// Signed marks GRIB sign-and-magnitude encoding (top bit = sign).
	Signed bool
	// CanBeMissing marks fields where the all-ones window means missing.
	CanBeMissing bool
	// Scale divides the raw integer to produce a Double (e.g. 1000 for
	// millidegrees). Zero means no scaling.
	Scale float64
	// Table maps raw values to names for OpCodeTable/OpParam2.
	Table map[int64]string

	Namespace string
	Flags     types.AttrFlags
}

// ReadOnly reports whether sets must be rejected for this field.
func (d FieldDef) ReadOnly() bool { return d.Flags.Has(types.FlagReadOnly) }

// Provider is the external collaborator that supplies per-edition field
// schemas. Implementations must return types.ErrUnsupportedEdition for
// editions they have no mapping for.
type Provider interface {
	Fields(m *format.Message) ([]FieldDef, error)
}
