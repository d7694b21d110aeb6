package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFormat      ErrKind = iota // structural decode failures (bad GRIB magic, length mismatch)
	ErrKindCorrupt                    // persisted index is inconsistent or version-mismatched
	ErrKindUnsupported                // recognized edition/feature we don't decode
	ErrKindNotFound                   // missing key, value, or file
	ErrKindConversion                 // requested type can't be produced from the native one
	ErrKindState                      // invalid operation for current state (e.g. read-only field)
	ErrKindRange                      // value does not fit the field's coded width
	ErrKindCapacity                   // caller-provided buffer/array too small; query size and retry
	ErrKindEnd                        // termination sentinel, not a failure
	ErrKindIO                         // passthrough from the storage boundary
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels returned by gribkit operations. Comparisons go through errors.Is.
var (
	// ErrInvalidMessage indicates the bytes do not form a well-formed GRIB message.
	ErrInvalidMessage = &Error{Kind: ErrKindFormat, Msg: "invalid GRIB message"}
	// ErrMessageMalformed indicates a structurally inconsistent message body.
	ErrMessageMalformed = &Error{Kind: ErrKindFormat, Msg: "malformed GRIB message"}
	// ErrEndMarkerNotFound indicates the 7777 end marker is absent.
	ErrEndMarkerNotFound = &Error{Kind: ErrKindFormat, Msg: "7777 end marker not found"}
	// ErrPrematureEndOfFile indicates the stream ended mid-message.
	ErrPrematureEndOfFile = &Error{Kind: ErrKindFormat, Msg: "premature end of file"}
	// ErrWrongLength indicates the declared message length disagrees with the bytes consumed.
	ErrWrongLength = &Error{Kind: ErrKindFormat, Msg: "wrong message length"}
	// ErrUnsupportedEdition indicates the schema service has no mapping for the edition.
	ErrUnsupportedEdition = &Error{Kind: ErrKindUnsupported, Msg: "unsupported GRIB edition"}
	// ErrNotImplemented indicates a recognized but undecodable feature (e.g.
	// spherical-harmonics packing).
	ErrNotImplemented = &Error{Kind: ErrKindUnsupported, Msg: "feature not implemented"}
	// ErrNotFound indicates a requested key or value is absent.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "key/value not found"}
	// ErrMissingKey indicates an index key has no selection, or a message lacks an index key.
	ErrMissingKey = &Error{Kind: ErrKindNotFound, Msg: "missing key"}
	// ErrFileNotFound indicates the underlying message file is gone.
	ErrFileNotFound = &Error{Kind: ErrKindNotFound, Msg: "file not found"}
	// ErrWrongConversion indicates the value can't be coerced to the requested type.
	ErrWrongConversion = &Error{Kind: ErrKindConversion, Msg: "wrong type conversion"}
	// ErrInvalidType indicates an operation used a kind the field does not support.
	ErrInvalidType = &Error{Kind: ErrKindConversion, Msg: "invalid key type"}
	// ErrReadOnly indicates a set was attempted on a read-only field.
	ErrReadOnly = &Error{Kind: ErrKindState, Msg: "value is read only"}
	// ErrValueCannotBeMissing indicates the field has no missing encoding.
	ErrValueCannotBeMissing = &Error{Kind: ErrKindState, Msg: "value cannot be missing"}
	// ErrOutOfRange indicates the value does not fit the field's coded width.
	ErrOutOfRange = &Error{Kind: ErrKindRange, Msg: "value out of coding range"}
	// ErrBufferTooSmall indicates the caller buffer lacks capacity for the result.
	ErrBufferTooSmall = &Error{Kind: ErrKindCapacity, Msg: "buffer too small"}
	// ErrArrayTooSmall indicates the caller array lacks capacity for the result.
	ErrArrayTooSmall = &Error{Kind: ErrKindCapacity, Msg: "array too small"}
	// ErrEndOfIndex signals that enumeration has no further matching messages.
	ErrEndOfIndex = &Error{Kind: ErrKindEnd, Msg: "end of index"}
	// ErrCorruptedIndex indicates a persisted index failed validation on load.
	ErrCorruptedIndex = &Error{Kind: ErrKindCorrupt, Msg: "corrupted index file"}
	// ErrIOProblem wraps failures from the storage boundary.
	ErrIOProblem = &Error{Kind: ErrKindIO, Msg: "input output problem"}
)

// IOError wraps err as an ErrIOProblem so errors.Is(err, ErrIOProblem) holds
// while the cause stays reachable through Unwrap.
func IOError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrKindIO, Msg: ErrIOProblem.Msg, Err: err}
}

// Wrap attaches a cause to a sentinel; errors.Is still matches the sentinel
// and the cause stays reachable through Unwrap.
func Wrap(sentinel *Error, err error) error {
	if err == nil {
		return sentinel
	}
	return &Error{Kind: sentinel.Kind, Msg: sentinel.Msg, Err: err}
}

// Is lets wrapped IO errors match the ErrIOProblem sentinel by kind and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// -----------------------------------------------------------------------------
// Attribute flags & iteration filters
// -----------------------------------------------------------------------------

// AttrFlags is a bitset of attributes attached to every decoded field. A keys
// iterator constructed with a non-zero filter yields only fields carrying all
// of the requested flags.
type AttrFlags uint32

const (
	// FlagReadOnly marks fields that reject Set operations.
	FlagReadOnly AttrFlags = 1 << iota
	// FlagComputed marks fields derived from coded octets (e.g. shortName
	// resolved through a parameter table) rather than stored directly.
	FlagComputed
	// FlagCoded marks fields backed by octets in the message buffer.
	FlagCoded
	// FlagOptional marks fields from optional sections (GDS/BMS) that may be
	// absent on other messages of the same edition.
	FlagOptional
)

// Has reports whether f contains every flag in want.
func (f AttrFlags) Has(want AttrFlags) bool { return f&want == want }

// -----------------------------------------------------------------------------
// Policies
// -----------------------------------------------------------------------------

// MissingKeyPolicy decides what an index build does when a message lacks one
// of the requested keys.
type MissingKeyPolicy int

const (
	// MissingKeySkip drops the message from the index and continues. Default.
	MissingKeySkip MissingKeyPolicy = iota
	// MissingKeyAbort fails the whole build with ErrMissingKey.
	MissingKeyAbort
)
