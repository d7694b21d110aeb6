package grib

import (
	"errors"
	"fmt"
	"io"

	"github.com/meteokit/gribkit/internal/buf"
	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/internal/reader"
	"github.com/meteokit/gribkit/pkg/types"
)

// Handle pairs one GRIB message buffer with its decoded field list. Decoding
// is eager: after construction, key access only reads the in-memory tree and
// coerces types on demand.
type Handle struct {
	ctx    *Context
	msg    *format.Message
	tree   *tree
	owned  bool
	offset int64
	closed bool
}

// NewHandleFromFile reads the next message from r into an owned buffer and
// decodes it. Bytes before the GRIB magic are skipped. A clean end of stream
// returns io.EOF; a stream ending mid-message returns ErrPrematureEndOfFile.
// Pass a buffered reader for byte-stream sources; the scan reads in small
// chunks.
func NewHandleFromFile(ctx *Context, r io.Reader) (*Handle, error) {
	ctx = ctx.orDefault()
	data, offset, err := readMessage(r, ctx.allocator())
	if err != nil {
		return nil, err
	}
	h, err := newHandle(ctx, data, true)
	if err != nil {
		ctx.allocator().Free(data)
		return nil, err
	}
	h.offset = offset
	return h, nil
}

// NewHandleFromMessageCopy decodes a message from a private copy of b. The
// handle owns the copy and releases it on Close.
func NewHandleFromMessageCopy(ctx *Context, b []byte) (*Handle, error) {
	ctx = ctx.orDefault()
	data := ctx.allocator().Alloc(len(b))
	copy(data, b)
	h, err := newHandle(ctx, data, true)
	if err != nil {
		ctx.allocator().Free(data)
		return nil, err
	}
	return h, nil
}

// NewHandleFromMessageCopyAt is NewHandleFromMessageCopy with the message's
// byte offset within its source recorded, for callers re-reading ranges from
// an index.
func NewHandleFromMessageCopyAt(ctx *Context, b []byte, offset int64) (*Handle, error) {
	h, err := NewHandleFromMessageCopy(ctx, b)
	if err != nil {
		return nil, err
	}
	h.offset = offset
	return h, nil
}

// NewHandleFromMessage decodes a message in place over the caller's bytes.
// The handle never frees b, and set operations mutate it. The caller must
// keep b alive and unchanged for the life of the handle.
func NewHandleFromMessage(ctx *Context, b []byte) (*Handle, error) {
	return newHandle(ctx.orDefault(), b, false)
}

func newHandle(ctx *Context, data []byte, owned bool) (*Handle, error) {
	msg, err := format.ParseMessage(data)
	if err != nil {
		return nil, mapFormatErr(err)
	}
	fields, err := reader.Decode(msg, ctx.provider())
	if err != nil {
		return nil, err
	}
	return &Handle{ctx: ctx, msg: msg, tree: newTree(fields), owned: owned}, nil
}

// Clone returns an independent handle over a private copy of the message.
func (h *Handle) Clone() (*Handle, error) {
	if h.closed {
		return nil, fmt.Errorf("clone: handle closed: %w", types.ErrInvalidMessage)
	}
	c, err := NewHandleFromMessageCopy(h.ctx, h.msg.Data)
	if err != nil {
		return nil, err
	}
	c.offset = h.offset
	return c, nil
}

// Close releases the owned buffer back to the allocator. Borrowed buffers
// are left alone. Close is idempotent.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.owned {
		h.ctx.allocator().Free(h.msg.Data)
	}
	h.msg = nil
	h.tree = nil
	return nil
}

// Offset is the byte offset of the message within its source, when known:
// handles from a seekable reader or from index enumeration carry it, others
// report zero.
func (h *Handle) Offset() int64 { return h.offset }

// Message returns the underlying message bytes as a view. Mutating the
// result mutates the handle.
func (h *Handle) Message() []byte {
	if h.closed {
		return nil
	}
	return h.msg.Data
}

// MessageCopy returns a private copy of the message bytes.
func (h *Handle) MessageCopy() []byte {
	if h.closed {
		return nil
	}
	out := make([]byte, len(h.msg.Data))
	copy(out, h.msg.Data)
	return out
}

// CountMessagesInFile scans r and counts well-formed messages. Structural
// failures abort the count.
func CountMessagesInFile(ctx *Context, r io.Reader) (int, error) {
	ctx = ctx.orDefault()
	alloc := ctx.allocator()
	n := 0
	for {
		data, _, err := readMessage(r, alloc)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if _, err := format.ParseMessage(data); err != nil {
			alloc.Free(data)
			return n, mapFormatErr(err)
		}
		alloc.Free(data)
		n++
	}
}

// value resolves a name to its last entry's value.
func (h *Handle) value(key string) (types.Value, error) {
	i, ok := h.entry(key)
	if !ok {
		return types.Value{}, fmt.Errorf("key %s: %w", key, types.ErrNotFound)
	}
	return h.tree.entries[i].Value, nil
}

func (h *Handle) entry(key string) (int, bool) {
	if h.closed || h.tree == nil {
		return 0, false
	}
	return h.tree.lookup(key)
}

// GetLong returns the key's value as a long. Doubles truncate toward zero,
// numeric strings parse, missing fields read back as types.MissingLong.
func (h *Handle) GetLong(key string) (int64, error) {
	v, err := h.value(key)
	if err != nil {
		return 0, err
	}
	return v.AsLong()
}

// GetDouble returns the key's value as a double. Missing fields read back as
// types.MissingDouble.
func (h *Handle) GetDouble(key string) (float64, error) {
	v, err := h.value(key)
	if err != nil {
		return 0, err
	}
	return v.AsDouble()
}

// GetString returns the key's value in its canonical string form.
func (h *Handle) GetString(key string) (string, error) {
	v, err := h.value(key)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// GetBytes returns the raw coded octets backing the key, or the byte payload
// for bytes-kinded values. Fields with no coded window fail ErrWrongConversion.
func (h *Handle) GetBytes(key string) ([]byte, error) {
	i, ok := h.entry(key)
	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, types.ErrNotFound)
	}
	e := h.tree.entries[i]
	if e.Value.Kind() == types.Bytes {
		return e.Value.AsBytes()
	}
	def := e.Def
	if def.Bits <= 0 {
		return nil, fmt.Errorf("key %s has no coded octets: %w", key, types.ErrWrongConversion)
	}
	sec, ok := h.msg.Section(def.Section)
	if !ok || !buf.BitHas(sec, def.Octet*8, def.Bits) {
		return nil, fmt.Errorf("key %s: %w", key, types.ErrNotFound)
	}
	n := (def.Bits + 7) / 8
	out := make([]byte, n)
	copy(out, sec[def.Octet:def.Octet+n])
	return out, nil
}

// GetLongArray returns the key's elements as longs, allocating the result.
func (h *Handle) GetLongArray(key string) ([]int64, error) {
	v, err := h.value(key)
	if err != nil {
		return nil, err
	}
	out := make([]int64, v.Len())
	if _, err := fillLongs(v, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLongArrayInto fills dst with the key's elements and returns the count.
// A too-small dst fails with ErrArrayTooSmall; query GetSize first.
func (h *Handle) GetLongArrayInto(key string, dst []int64) (int, error) {
	v, err := h.value(key)
	if err != nil {
		return 0, err
	}
	if v.Len() > len(dst) {
		return v.Len(), fmt.Errorf("key %s needs %d elements: %w", key, v.Len(), types.ErrArrayTooSmall)
	}
	return fillLongs(v, dst)
}

// GetDoubleArray returns the key's elements as doubles, allocating the result.
func (h *Handle) GetDoubleArray(key string) ([]float64, error) {
	v, err := h.value(key)
	if err != nil {
		return nil, err
	}
	out := make([]float64, v.Len())
	if _, err := fillDoubles(v, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDoubleArrayInto fills dst with the key's elements and returns the count.
// A too-small dst fails with ErrArrayTooSmall; query GetSize first.
func (h *Handle) GetDoubleArrayInto(key string, dst []float64) (int, error) {
	v, err := h.value(key)
	if err != nil {
		return 0, err
	}
	if v.Len() > len(dst) {
		return v.Len(), fmt.Errorf("key %s needs %d elements: %w", key, v.Len(), types.ErrArrayTooSmall)
	}
	return fillDoubles(v, dst)
}

// GetStringArray returns the key's elements in canonical string form.
func (h *Handle) GetStringArray(key string) ([]string, error) {
	v, err := h.value(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, v.Len())
	if _, err := fillStrings(v, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStringArrayInto fills dst with the key's elements and returns the count.
func (h *Handle) GetStringArrayInto(key string, dst []string) (int, error) {
	v, err := h.value(key)
	if err != nil {
		return 0, err
	}
	if v.Len() > len(dst) {
		return v.Len(), fmt.Errorf("key %s needs %d elements: %w", key, v.Len(), types.ErrArrayTooSmall)
	}
	return fillStrings(v, dst)
}

func fillLongs(v types.Value, dst []int64) (int, error) {
	if da := v.DoubleArray(); da != nil {
		for i, f := range da {
			dst[i] = int64(f)
		}
		return len(da), nil
	}
	if la := v.LongArray(); la != nil {
		return copy(dst, la), nil
	}
	n, err := v.AsLong()
	if err != nil {
		return 0, err
	}
	dst[0] = n
	return 1, nil
}

func fillDoubles(v types.Value, dst []float64) (int, error) {
	if da := v.DoubleArray(); da != nil {
		return copy(dst, da), nil
	}
	if la := v.LongArray(); la != nil {
		for i, n := range la {
			dst[i] = float64(n)
		}
		return len(la), nil
	}
	f, err := v.AsDouble()
	if err != nil {
		return 0, err
	}
	dst[0] = f
	return 1, nil
}

func fillStrings(v types.Value, dst []string) (int, error) {
	if sa := v.StringArray(); sa != nil {
		return copy(dst, sa), nil
	}
	if !v.IsArray() {
		s, err := v.AsString()
		if err != nil {
			return 0, err
		}
		dst[0] = s
		return 1, nil
	}
	n := v.Len()
	for i := 0; i < n; i++ {
		var el types.Value
		if la := v.LongArray(); la != nil {
			el = types.LongValue(la[i])
		} else {
			el = types.DoubleValue(v.DoubleArray()[i])
		}
		s, err := el.AsString()
		if err != nil {
			return 0, err
		}
		dst[i] = s
	}
	return n, nil
}

// GetSize is the total element count for key, summed across every entry
// carrying that name.
func (h *Handle) GetSize(key string) (int, error) {
	if _, ok := h.entry(key); !ok {
		return 0, fmt.Errorf("key %s: %w", key, types.ErrNotFound)
	}
	n := 0
	for _, e := range h.tree.entries {
		if e.Def.Name == key {
			n += e.Value.Len()
		}
	}
	return n, nil
}

// GetLength is the longest canonical string form of key across its entries,
// for callers sizing string buffers before GetString.
func (h *Handle) GetLength(key string) (int, error) {
	if _, ok := h.entry(key); !ok {
		return 0, fmt.Errorf("key %s: %w", key, types.ErrNotFound)
	}
	max := 0
	for _, e := range h.tree.entries {
		if e.Def.Name != key {
			continue
		}
		s, err := e.Value.AsString()
		if err != nil {
			continue // arrays have no single string form
		}
		if len(s) > max {
			max = len(s)
		}
	}
	return max, nil
}

// GetNativeType reports the key's native kind, fixed at decode time.
func (h *Handle) GetNativeType(key string) (types.Kind, error) {
	i, ok := h.entry(key)
	if !ok {
		return types.Undefined, fmt.Errorf("key %s: %w", key, types.ErrNotFound)
	}
	return h.tree.entries[i].Def.Kind, nil
}

// IsMissing reports whether the key carries its missing sentinel.
func (h *Handle) IsMissing(key string) (bool, error) {
	v, err := h.value(key)
	if err != nil {
		return false, err
	}
	return v.IsMissing(), nil
}

// SetMissing writes the key's missing sentinel into the message buffer.
// Fails ErrValueCannotBeMissing when the field has no missing encoding and
// ErrReadOnly on read-only fields.
func (h *Handle) SetMissing(key string) error {
	i, ok := h.entry(key)
	if !ok {
		return fmt.Errorf("key %s: %w", key, types.ErrNotFound)
	}
	return h.tree.setMissing(h.msg, i)
}

// SetLong writes a long value through to the message buffer. Values that do
// not fit the field's coded width fail ErrOutOfRange with no mutation.
func (h *Handle) SetLong(key string, v int64) error {
	return h.set(key, types.LongValue(v))
}

// SetDouble writes a double value through to the message buffer.
func (h *Handle) SetDouble(key string, v float64) error {
	return h.set(key, types.DoubleValue(v))
}

// SetString writes a string value: code-table keys reverse through their
// table, numeric keys parse the string.
func (h *Handle) SetString(key string, v string) error {
	return h.set(key, types.StringValue(v))
}

// SetDoubleArray re-packs the data values in place. The array length must
// match the coded count (ErrWrongLength otherwise).
func (h *Handle) SetDoubleArray(key string, vals []float64) error {
	return h.set(key, types.DoubleArrayValue(vals))
}

func (h *Handle) set(key string, v types.Value) error {
	i, ok := h.entry(key)
	if !ok {
		return fmt.Errorf("key %s: %w", key, types.ErrNotFound)
	}
	return h.tree.set(h.msg, i, v)
}

// mapFormatErr translates structural parse failures into the public typed
// sentinels.
func mapFormatErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, format.ErrBadMagic):
		return types.Wrap(types.ErrInvalidMessage, err)
	case errors.Is(err, format.ErrEndMarkerNotFound):
		return types.Wrap(types.ErrEndMarkerNotFound, err)
	case errors.Is(err, format.ErrLengthMismatch):
		return types.Wrap(types.ErrWrongLength, err)
	case errors.Is(err, format.ErrTruncated):
		return types.Wrap(types.ErrPrematureEndOfFile, err)
	case errors.Is(err, format.ErrUnsupportedEdition):
		return types.Wrap(types.ErrUnsupportedEdition, err)
	case errors.Is(err, format.ErrMalformed):
		return types.Wrap(types.ErrMessageMalformed, err)
	default:
		return types.Wrap(types.ErrInvalidMessage, err)
	}
}
