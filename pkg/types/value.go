package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the native types a decoded field can carry.
type Kind uint8

const (
	Undefined Kind = iota
	Long
	Double
	String
	Bytes
)

func (k Kind) String() string {
	switch k {
	case Long:
		return "long"
	case Double:
		return "double"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	default:
		return "undefined"
	}
}

// ParseKind maps the key-spec suffixes used by index creation (":l"/":i"
// long, ":d" double, ":s" string) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "l", "i":
		return Long, nil
	case "d":
		return Double, nil
	case "s":
		return String, nil
	default:
		return Undefined, fmt.Errorf("unknown kind suffix %q: %w", s, ErrInvalidType)
	}
}

// Missing sentinels, one per numeric kind. A missing field reads back as the
// sentinel of the requested kind but never compares equal to a real value.
const (
	// MissingLong is returned by long gets on missing fields.
	MissingLong int64 = 0xffffffff
	// MissingDouble is returned by double gets on missing fields.
	MissingDouble float64 = -1e+100
)

// Value is the tagged union carried by every decoded field: one of the four
// kinds, scalar or array, plus a missing marker. The zero Value has kind
// Undefined and matches nothing.
type Value struct {
	kind    Kind
	missing bool

	l int64
	d float64
	s string
	b []byte

	la []int64
	da []float64
	sa []string
}

// LongValue returns a scalar long Value.
func LongValue(v int64) Value { return Value{kind: Long, l: v} }

// DoubleValue returns a scalar double Value.
func DoubleValue(v float64) Value { return Value{kind: Double, d: v} }

// StringValue returns a scalar string Value.
func StringValue(v string) Value { return Value{kind: String, s: v} }

// BytesValue returns an opaque byte Value. The slice is not copied.
func BytesValue(v []byte) Value { return Value{kind: Bytes, b: v} }

// LongArrayValue returns an array-of-long Value. The slice is not copied.
func LongArrayValue(v []int64) Value { return Value{kind: Long, la: v} }

// DoubleArrayValue returns an array-of-double Value. The slice is not copied.
func DoubleArrayValue(v []float64) Value { return Value{kind: Double, da: v} }

// StringArrayValue returns an array-of-string Value. The slice is not copied.
func StringArrayValue(v []string) Value { return Value{kind: String, sa: v} }

// MissingValue returns a missing Value of the given kind.
func MissingValue(k Kind) Value { return Value{kind: k, missing: true} }

// Kind reports the native kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value carries the missing marker.
func (v Value) IsMissing() bool { return v.missing }

// IsArray reports whether the value holds an array payload.
func (v Value) IsArray() bool { return v.la != nil || v.da != nil || v.sa != nil }

// Len is the element count: 1 for scalars, the array length otherwise.
func (v Value) Len() int {
	switch {
	case v.la != nil:
		return len(v.la)
	case v.da != nil:
		return len(v.da)
	case v.sa != nil:
		return len(v.sa)
	case v.kind == Bytes:
		return len(v.b)
	case v.kind == Undefined:
		return 0
	default:
		return 1
	}
}

// LongArray returns the underlying long array, or nil for other payloads.
func (v Value) LongArray() []int64 { return v.la }

// DoubleArray returns the underlying double array, or nil for other payloads.
func (v Value) DoubleArray() []float64 { return v.da }

// StringArray returns the underlying string array, or nil for other payloads.
func (v Value) StringArray() []string { return v.sa }

// scalar reports whether the value can act as a single element. Length-one
// arrays coerce like scalars so "level:l" works on array-backed keys.
func (v Value) scalar() (Value, bool) {
	if !v.IsArray() {
		return v, v.kind != Undefined
	}
	if v.Len() != 1 {
		return Value{}, false
	}
	switch {
	case v.la != nil:
		return LongValue(v.la[0]), true
	case v.da != nil:
		return DoubleValue(v.da[0]), true
	default:
		return StringValue(v.sa[0]), true
	}
}

// AsLong coerces the value to a long. Doubles truncate toward zero (lossy;
// callers needing rounding must do it themselves), strings parse as base-10
// integers. Non-numeric payloads fail with ErrWrongConversion. Missing values
// read back as MissingLong.
func (v Value) AsLong() (int64, error) {
	if v.missing {
		return MissingLong, nil
	}
	s, ok := v.scalar()
	if !ok {
		return 0, fmt.Errorf("%s value: %w", v.kind, ErrWrongConversion)
	}
	switch s.kind {
	case Long:
		return s.l, nil
	case Double:
		return int64(s.d), nil
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(s.s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q as long: %w", s.s, ErrWrongConversion)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s value: %w", s.kind, ErrWrongConversion)
	}
}

// AsDouble coerces the value to a double. Longs convert exactly (within 53
// bits), strings parse as floats. Missing values read back as MissingDouble.
func (v Value) AsDouble() (float64, error) {
	if v.missing {
		return MissingDouble, nil
	}
	s, ok := v.scalar()
	if !ok {
		return 0, fmt.Errorf("%s value: %w", v.kind, ErrWrongConversion)
	}
	switch s.kind {
	case Long:
		return float64(s.l), nil
	case Double:
		return s.d, nil
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(s.s), 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q as double: %w", s.s, ErrWrongConversion)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s value: %w", s.kind, ErrWrongConversion)
	}
}

// AsString coerces the value to its canonical string form. Numeric kinds
// format the way GRIB tools print them: longs in base 10, doubles with %g.
func (v Value) AsString() (string, error) {
	if v.missing {
		return "MISSING", nil
	}
	s, ok := v.scalar()
	if !ok {
		return "", fmt.Errorf("%s value: %w", v.kind, ErrWrongConversion)
	}
	switch s.kind {
	case Long:
		return strconv.FormatInt(s.l, 10), nil
	case Double:
		return strconv.FormatFloat(s.d, 'g', -1, 64), nil
	case String:
		return s.s, nil
	default:
		return "", fmt.Errorf("%s value: %w", s.kind, ErrWrongConversion)
	}
}

// AsBytes returns the opaque byte payload.
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != Bytes {
		return nil, fmt.Errorf("%s value: %w", v.kind, ErrWrongConversion)
	}
	return v.b, nil
}

// Coerce converts the value to the requested kind, applying the same rules as
// the As* accessors. Used by index key extraction where the declared kind may
// differ from the native one.
func (v Value) Coerce(k Kind) (Value, error) {
	if v.missing {
		return MissingValue(k), nil
	}
	switch k {
	case Long:
		n, err := v.AsLong()
		if err != nil {
			return Value{}, err
		}
		return LongValue(n), nil
	case Double:
		f, err := v.AsDouble()
		if err != nil {
			return Value{}, err
		}
		return DoubleValue(f), nil
	case String:
		s, err := v.AsString()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case Bytes:
		b, err := v.AsBytes()
		if err != nil {
			return Value{}, err
		}
		return BytesValue(b), nil
	default:
		return Value{}, fmt.Errorf("coerce to %s: %w", k, ErrInvalidType)
	}
}

// Equal reports value equality for dictionary deduplication. Missing values
// never compare equal, not even to each other.
func (v Value) Equal(o Value) bool {
	if v.missing || o.missing {
		return false
	}
	if v.kind != o.kind || v.IsArray() != o.IsArray() {
		return false
	}
	if !v.IsArray() {
		switch v.kind {
		case Long:
			return v.l == o.l
		case Double:
			return v.d == o.d
		case String:
			return v.s == o.s
		case Bytes:
			return string(v.b) == string(o.b)
		default:
			return false
		}
	}
	if v.Len() != o.Len() {
		return false
	}
	switch {
	case v.la != nil:
		for i := range v.la {
			if v.la[i] != o.la[i] {
				return false
			}
		}
	case v.da != nil:
		for i := range v.da {
			if v.da[i] != o.da[i] {
				return false
			}
		}
	case v.sa != nil:
		for i := range v.sa {
			if v.sa[i] != o.sa[i] {
				return false
			}
		}
	}
	return true
}

// String implements fmt.Stringer for diagnostics and CLI output.
func (v Value) String() string {
	if v.missing {
		return "MISSING"
	}
	switch {
	case v.la != nil:
		return fmt.Sprintf("%v", v.la)
	case v.da != nil:
		return fmt.Sprintf("%v", v.da)
	case v.sa != nil:
		return fmt.Sprintf("%v", v.sa)
	}
	switch v.kind {
	case Long:
		return strconv.FormatInt(v.l, 10)
	case Double:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case String:
		return v.s
	case Bytes:
		return fmt.Sprintf("%d bytes", len(v.b))
	default:
		return "<undefined>"
	}
}
