// Package index builds and queries key-value indexes over GRIB message
// files. An index records, per message, the dictionary-encoded values of a
// fixed set of keys plus the message's byte range, so consumers can select
// values per key and enumerate fresh handles over just the matching
// messages without rescanning the file.
//
// Dictionaries keep first-seen order, rows keep file order, and enumeration
// is stable: matching handles come back in non-decreasing offset order.
package index

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/meteokit/gribkit/grib"
	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/internal/mmfile"
	"github.com/meteokit/gribkit/pkg/types"
)

// KeySpec is one indexed key: its name and the kind its values are coerced
// to. Undefined means "resolve from the first message that carries the key".
type KeySpec struct {
	Name string
	Kind types.Kind
}

// ParseKeys parses a comma-separated key list with optional kind suffixes:
// "shortName,level:l,step:d". Suffixes are :l/:i long, :d double, :s string.
func ParseKeys(spec string) ([]KeySpec, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("empty key list: %w", types.ErrInvalidType)
	}
	parts := strings.Split(spec, ",")
	keys := make([]KeySpec, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		name, suffix, found := strings.Cut(part, ":")
		if name == "" {
			return nil, fmt.Errorf("empty key name in %q: %w", spec, types.ErrInvalidType)
		}
		k := KeySpec{Name: name}
		if found {
			kind, err := types.ParseKind(suffix)
			if err != nil {
				return nil, err
			}
			k.Kind = kind
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Selection sentinels per key.
const (
	selNone    = -1 // no Select yet; enumeration refuses to run
	selNothing = -2 // Select missed; enumeration yields nothing
)

type row struct {
	dict   []uint32 // dictionary index per key, key order
	source uint32
	offset uint64
	length uint64
}

type mapping struct {
	data  []byte
	close func() error
}

// Index is the queryable result of scanning one or more message files.
type Index struct {
	ctx   *grib.Context
	keys  []KeySpec
	dicts [][]types.Value
	rows  []row

	sources []string
	mapped  map[uint32]*mapping

	selection []int
	cursor    int
}

// New returns an empty index over the given key specs.
func New(ctx *grib.Context, keys []KeySpec) *Index {
	if ctx == nil {
		ctx = grib.Default()
	}
	ix := &Index{
		ctx:       ctx,
		keys:      append([]KeySpec(nil), keys...),
		dicts:     make([][]types.Value, len(keys)),
		selection: make([]int, len(keys)),
		mapped:    make(map[uint32]*mapping),
	}
	ix.resetSelection()
	return ix
}

// NewFromFile builds an index of path over the keys in spec (ParseKeys
// syntax). Messages lacking one of the keys are skipped or abort the build
// per the Context's MissingKeyPolicy.
func NewFromFile(ctx *grib.Context, path string, spec string) (*Index, error) {
	keys, err := ParseKeys(spec)
	if err != nil {
		return nil, err
	}
	ix := New(ctx, keys)
	if err := ix.AddFile(path); err != nil {
		ix.Close()
		return nil, err
	}
	return ix, nil
}

// AddFile scans another message file into the index. Rows append in file
// order, after any rows already present.
func (ix *Index) AddFile(path string) error {
	data, closeMap, err := mmfile.Map(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("index %s: %w", path, types.Wrap(types.ErrFileNotFound, err))
		}
		return types.IOError(err)
	}
	defer closeMap()

	// snapshot for discard-on-abort: a failed add leaves the index as it was
	rowMark := len(ix.rows)
	dictMarks := make([]int, len(ix.dicts))
	for k := range ix.dicts {
		dictMarks[k] = len(ix.dicts[k])
	}
	rollback := func() {
		ix.rows = ix.rows[:rowMark]
		for k := range ix.dicts {
			ix.dicts[k] = ix.dicts[k][:dictMarks[k]]
		}
	}

	source := uint32(len(ix.sources))
	off := 0
	for {
		msgOff, msgLen, ok, err := format.Scan(data, off)
		if err != nil {
			rollback()
			return fmt.Errorf("index %s: %w", path, types.Wrap(types.ErrInvalidMessage, err))
		}
		if !ok {
			break
		}
		off = msgOff + msgLen

		if _, err := ix.addMessage(data[msgOff:msgOff+msgLen], source, uint64(msgOff), uint64(msgLen)); err != nil {
			rollback()
			return fmt.Errorf("index %s: %w", path, err)
		}
	}
	ix.sources = append(ix.sources, path)
	ix.resetSelection()
	return nil
}

// addMessage decodes one message and appends its row. skip=true reports a
// message dropped under MissingKeySkip.
func (ix *Index) addMessage(msg []byte, source uint32, offset, length uint64) (skip bool, err error) {
	h, err := grib.NewHandleFromMessage(ix.ctx, msg)
	if err != nil {
		return false, err
	}
	defer h.Close()

	r := row{dict: make([]uint32, len(ix.keys)), source: source, offset: offset, length: length}
	for k := range ix.keys {
		v, ok, err := ix.keyValue(h, k)
		if err != nil {
			return false, err
		}
		if !ok {
			if ix.ctx.MissingKeyPolicy == types.MissingKeyAbort {
				return false, fmt.Errorf("message at offset %d lacks key %s: %w", offset, ix.keys[k].Name, types.ErrMissingKey)
			}
			return true, nil
		}
		r.dict[k] = ix.intern(k, v)
	}
	ix.rows = append(ix.rows, r)
	return false, nil
}

// keyValue extracts one key from a handle, coerced to the key's declared
// kind. ok=false reports the key absent (or missing) on this message.
func (ix *Index) keyValue(h *grib.Handle, k int) (types.Value, bool, error) {
	spec := &ix.keys[k]
	native, err := h.GetNativeType(spec.Name)
	if errors.Is(err, types.ErrNotFound) {
		return types.Value{}, false, nil
	}
	if err != nil {
		return types.Value{}, false, err
	}
	if spec.Kind == types.Undefined {
		spec.Kind = native
	}

	missing, err := h.IsMissing(spec.Name)
	if err != nil {
		return types.Value{}, false, err
	}
	if missing {
		// a missing sentinel is not a joinable value
		return types.Value{}, false, nil
	}

	switch spec.Kind {
	case types.Long:
		n, err := h.GetLong(spec.Name)
		if err != nil {
			return types.Value{}, false, err
		}
		return types.LongValue(n), true, nil
	case types.Double:
		f, err := h.GetDouble(spec.Name)
		if err != nil {
			return types.Value{}, false, err
		}
		return types.DoubleValue(f), true, nil
	default:
		s, err := h.GetString(spec.Name)
		if err != nil {
			return types.Value{}, false, err
		}
		return types.StringValue(s), true, nil
	}
}

// intern returns the value's dictionary index, inserting in first-seen order.
func (ix *Index) intern(k int, v types.Value) uint32 {
	for i, existing := range ix.dicts[k] {
		if existing.Equal(v) {
			return uint32(i)
		}
	}
	ix.dicts[k] = append(ix.dicts[k], v)
	return uint32(len(ix.dicts[k]) - 1)
}

func (ix *Index) resetSelection() {
	for i := range ix.selection {
		ix.selection[i] = selNone
	}
	ix.cursor = 0
}

func (ix *Index) keyIndex(name string) (int, error) {
	for i, k := range ix.keys {
		if k.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("key %s not indexed: %w", name, types.ErrNotFound)
}

// Keys returns the index's key specs in declaration order.
func (ix *Index) Keys() []KeySpec {
	return append([]KeySpec(nil), ix.keys...)
}

// Size is the number of distinct values indexed for key.
func (ix *Index) Size(key string) (int, error) {
	k, err := ix.keyIndex(key)
	if err != nil {
		return 0, err
	}
	return len(ix.dicts[k]), nil
}

// Values returns the key's distinct values in first-seen order.
func (ix *Index) Values(key string) ([]types.Value, error) {
	k, err := ix.keyIndex(key)
	if err != nil {
		return nil, err
	}
	return append([]types.Value(nil), ix.dicts[k]...), nil
}

// LongValues fills dst with the key's distinct values as longs and returns
// the count. A too-small dst fails ErrArrayTooSmall; query Size first.
func (ix *Index) LongValues(key string, dst []int64) (int, error) {
	k, err := ix.keyIndex(key)
	if err != nil {
		return 0, err
	}
	dict := ix.dicts[k]
	if len(dict) > len(dst) {
		return len(dict), fmt.Errorf("key %s has %d values: %w", key, len(dict), types.ErrArrayTooSmall)
	}
	for i, v := range dict {
		n, err := v.AsLong()
		if err != nil {
			return 0, err
		}
		dst[i] = n
	}
	return len(dict), nil
}

// DoubleValues fills dst with the key's distinct values as doubles.
func (ix *Index) DoubleValues(key string, dst []float64) (int, error) {
	k, err := ix.keyIndex(key)
	if err != nil {
		return 0, err
	}
	dict := ix.dicts[k]
	if len(dict) > len(dst) {
		return len(dict), fmt.Errorf("key %s has %d values: %w", key, len(dict), types.ErrArrayTooSmall)
	}
	for i, v := range dict {
		f, err := v.AsDouble()
		if err != nil {
			return 0, err
		}
		dst[i] = f
	}
	return len(dict), nil
}

// StringValues fills dst with the key's distinct values in string form.
func (ix *Index) StringValues(key string, dst []string) (int, error) {
	k, err := ix.keyIndex(key)
	if err != nil {
		return 0, err
	}
	dict := ix.dicts[k]
	if len(dict) > len(dst) {
		return len(dict), fmt.Errorf("key %s has %d values: %w", key, len(dict), types.ErrArrayTooSmall)
	}
	for i, v := range dict {
		s, err := v.AsString()
		if err != nil {
			return 0, err
		}
		dst[i] = s
	}
	return len(dict), nil
}

// SelectLong picks the long value to join on for key and resets enumeration.
// A value not in the key's dictionary fails ErrNotFound and makes the key
// match nothing: enumeration then ends immediately instead of erroring.
func (ix *Index) SelectLong(key string, v int64) error {
	return ix.selectValue(key, types.LongValue(v))
}

// SelectDouble picks the double value to join on for key.
func (ix *Index) SelectDouble(key string, v float64) error {
	return ix.selectValue(key, types.DoubleValue(v))
}

// SelectString picks the string value to join on for key.
func (ix *Index) SelectString(key string, v string) error {
	return ix.selectValue(key, types.StringValue(v))
}

func (ix *Index) selectValue(key string, v types.Value) error {
	k, err := ix.keyIndex(key)
	if err != nil {
		return err
	}
	want, err := v.Coerce(ix.keys[k].Kind)
	if err != nil {
		return err
	}
	ix.cursor = 0
	for i, existing := range ix.dicts[k] {
		if existing.Equal(want) {
			ix.selection[k] = i
			return nil
		}
	}
	ix.selection[k] = selNothing
	return fmt.Errorf("key %s has no value %s: %w", key, v, types.ErrNotFound)
}

// NextHandle re-reads and decodes the next message matching every key's
// selection. Every key must have been selected (ErrMissingKey otherwise).
// Exhaustion yields ErrEndOfIndex and is idempotent. Source files are opened
// lazily here, so a moved message file surfaces as ErrFileNotFound at
// enumeration, not at index load.
func (ix *Index) NextHandle() (*grib.Handle, error) {
	for k, sel := range ix.selection {
		if sel == selNone {
			return nil, fmt.Errorf("key %s has no selection: %w", ix.keys[k].Name, types.ErrMissingKey)
		}
		if sel == selNothing {
			ix.cursor = len(ix.rows)
			return nil, types.ErrEndOfIndex
		}
	}
	for ix.cursor < len(ix.rows) {
		r := ix.rows[ix.cursor]
		ix.cursor++
		if !ix.matches(r) {
			continue
		}
		data, err := ix.sourceData(r.source)
		if err != nil {
			ix.cursor-- // retryable: do not lose the row
			return nil, err
		}
		if uint64(len(data)) < r.offset+r.length {
			ix.cursor--
			return nil, fmt.Errorf("row spans %d..%d beyond file end %d: %w",
				r.offset, r.offset+r.length, len(data), types.ErrCorruptedIndex)
		}
		return grib.NewHandleFromMessageCopyAt(ix.ctx, data[r.offset:r.offset+r.length], int64(r.offset))
	}
	return nil, types.ErrEndOfIndex
}

func (ix *Index) matches(r row) bool {
	for k, sel := range ix.selection {
		if int(r.dict[k]) != sel {
			return false
		}
	}
	return true
}

// sourceData lazily maps the source file a row points into.
func (ix *Index) sourceData(source uint32) ([]byte, error) {
	if m, ok := ix.mapped[source]; ok {
		return m.data, nil
	}
	if int(source) >= len(ix.sources) {
		return nil, fmt.Errorf("row references source %d of %d: %w", source, len(ix.sources), types.ErrCorruptedIndex)
	}
	path := ix.sources[source]
	data, closeMap, err := mmfile.Map(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source %s: %w", path, types.Wrap(types.ErrFileNotFound, err))
		}
		return nil, types.IOError(err)
	}
	ix.mapped[source] = &mapping{data: data, close: closeMap}
	return data, nil
}

// Close releases every mapped source file. The index stays queryable for
// sizes, values and selection; only enumeration re-opens files.
func (ix *Index) Close() error {
	var first error
	for source, m := range ix.mapped {
		if err := m.close(); err != nil && first == nil {
			first = types.IOError(err)
		}
		delete(ix.mapped, source)
	}
	return first
}
