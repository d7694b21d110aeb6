package index

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/meteokit/gribkit/grib"
	"github.com/meteokit/gribkit/internal/buf"
	"github.com/meteokit/gribkit/internal/fsync"
	"github.com/meteokit/gribkit/pkg/types"
)

// Persisted index layout, all integers big-endian:
//
//	magic   "GRBX"
//	version u16
//	keys    u16 count, then per key: name (u16 len + bytes), kind u8
//	         (kind 0 = unresolved: the key matched no message)
//	sources u32 count, then per source: path (u16 len + bytes)
//	dicts   per key: u32 count, then per value: kind u8 + payload
//	         (long: u64 two's complement; double: u64 IEEE bits;
//	          string: u16 len + bytes)
//	rows    u32 count, then per row: source u32, offset u64, length u64,
//	         one u32 dictionary index per key
//	trailer xxhash64 of everything above, u64
//
// The file is self-contained apart from the source paths: reloading never
// touches the message files.

const (
	codecMagic   = "GRBX"
	codecVersion = 1
)

const (
	valueTagLong   = 1
	valueTagDouble = 2
	valueTagString = 3
)

// Write persists the index to path, fdatasync'd before close so a crash
// right after Write cannot leave a torn file behind a successful return.
func (ix *Index) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return types.IOError(err)
	}
	if _, err := ix.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := fsync.File(f); err != nil {
		f.Close()
		os.Remove(path)
		return types.IOError(err)
	}
	if err := f.Close(); err != nil {
		return types.IOError(err)
	}
	return nil
}

// WriteTo implements io.WriterTo over the persisted layout.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	body := ix.encode()
	sum := xxhash.Sum64(body)
	body = binary.BigEndian.AppendUint64(body, sum)
	n, err := w.Write(body)
	if err != nil {
		return int64(n), types.IOError(err)
	}
	return int64(n), nil
}

func (ix *Index) encode() []byte {
	b := make([]byte, 0, 256+32*len(ix.rows))
	b = append(b, codecMagic...)
	b = binary.BigEndian.AppendUint16(b, codecVersion)

	b = binary.BigEndian.AppendUint16(b, uint16(len(ix.keys)))
	for _, k := range ix.keys {
		b = appendString(b, k.Name)
		b = append(b, byte(k.Kind))
	}

	b = binary.BigEndian.AppendUint32(b, uint32(len(ix.sources)))
	for _, path := range ix.sources {
		b = appendString(b, path)
	}

	for _, dict := range ix.dicts {
		b = binary.BigEndian.AppendUint32(b, uint32(len(dict)))
		for _, v := range dict {
			b = appendValue(b, v)
		}
	}

	b = binary.BigEndian.AppendUint32(b, uint32(len(ix.rows)))
	for _, r := range ix.rows {
		b = binary.BigEndian.AppendUint32(b, r.source)
		b = binary.BigEndian.AppendUint64(b, r.offset)
		b = binary.BigEndian.AppendUint64(b, r.length)
		for _, d := range r.dict {
			b = binary.BigEndian.AppendUint32(b, d)
		}
	}
	return b
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

func appendValue(b []byte, v types.Value) []byte {
	switch v.Kind() {
	case types.Long:
		n, _ := v.AsLong()
		b = append(b, valueTagLong)
		return binary.BigEndian.AppendUint64(b, uint64(n))
	case types.Double:
		f, _ := v.AsDouble()
		b = append(b, valueTagDouble)
		return binary.BigEndian.AppendUint64(b, math.Float64bits(f))
	default:
		s, _ := v.AsString()
		b = append(b, valueTagString)
		return appendString(b, s)
	}
}

// Read loads a persisted index from path. Validation is atomic: any
// structural problem fails with ErrCorruptedIndex and no Index is returned.
func Read(ctx *grib.Context, path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read index %s: %w", path, types.Wrap(types.ErrFileNotFound, err))
		}
		return nil, types.IOError(err)
	}
	defer f.Close()
	return ReadFrom(ctx, f)
}

// ReadFrom loads a persisted index from r, verifying magic, version,
// checksum and structure before returning anything.
func ReadFrom(ctx *grib.Context, r io.Reader) (*Index, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, types.IOError(err)
	}
	if len(raw) < len(codecMagic)+2+8 {
		return nil, fmt.Errorf("%d bytes is no index file: %w", len(raw), types.ErrCorruptedIndex)
	}
	body, trailer := raw[:len(raw)-8], raw[len(raw)-8:]
	if xxhash.Sum64(body) != binary.BigEndian.Uint64(trailer) {
		return nil, fmt.Errorf("checksum mismatch: %w", types.ErrCorruptedIndex)
	}

	d := &decoder{b: body}
	if string(d.bytes(4)) != codecMagic {
		return nil, fmt.Errorf("bad magic: %w", types.ErrCorruptedIndex)
	}
	if v := d.u16(); v != codecVersion {
		return nil, fmt.Errorf("format version %d, want %d: %w", v, codecVersion, types.ErrCorruptedIndex)
	}

	keyCount := int(d.u16())
	keys := make([]KeySpec, 0, keyCount)
	for i := 0; i < keyCount; i++ {
		name := d.str()
		kind := types.Kind(d.u8())
		switch kind {
		case types.Undefined, types.Long, types.Double, types.String:
		default:
			return nil, fmt.Errorf("key %q has kind %d: %w", name, kind, types.ErrCorruptedIndex)
		}
		keys = append(keys, KeySpec{Name: name, Kind: kind})
	}
	if keyCount == 0 {
		return nil, fmt.Errorf("index with no keys: %w", types.ErrCorruptedIndex)
	}

	ix := New(ctx, keys)

	sourceCount := int(d.u32())
	for i := 0; i < sourceCount; i++ {
		ix.sources = append(ix.sources, d.str())
	}

	for k := 0; k < keyCount; k++ {
		n := int(d.u32())
		// 3 = tag byte + the u16 length of an empty string, the smallest entry
		if _, err := buf.CheckListBounds(len(d.b), d.off, n, 3); err != nil {
			return nil, fmt.Errorf("dictionary for %s: %v: %w", keys[k].Name, err, types.ErrCorruptedIndex)
		}
		dict := make([]types.Value, 0, n)
		for i := 0; i < n; i++ {
			v, err := d.value()
			if err != nil {
				return nil, err
			}
			dict = append(dict, v)
		}
		ix.dicts[k] = dict
	}
	for k := range ix.keys {
		// a key that matched no message has no resolved kind and no values
		if ix.keys[k].Kind == types.Undefined && len(ix.dicts[k]) > 0 {
			return nil, fmt.Errorf("key %q has %d values but no kind: %w", ix.keys[k].Name, len(ix.dicts[k]), types.ErrCorruptedIndex)
		}
	}

	rowCount := int(d.u32())
	rowSize := 4 + 8 + 8 + 4*keyCount
	if _, err := buf.CheckListBounds(len(d.b), d.off, rowCount, rowSize); err != nil {
		return nil, fmt.Errorf("row section: %v: %w", err, types.ErrCorruptedIndex)
	}
	ix.rows = make([]row, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		r := row{
			source: d.u32(),
			offset: d.u64(),
			length: d.u64(),
			dict:   make([]uint32, keyCount),
		}
		for k := 0; k < keyCount; k++ {
			r.dict[k] = d.u32()
		}
		if int(r.source) >= sourceCount {
			return nil, fmt.Errorf("row %d references source %d of %d: %w", i, r.source, sourceCount, types.ErrCorruptedIndex)
		}
		for k := 0; k < keyCount; k++ {
			if int(r.dict[k]) >= len(ix.dicts[k]) {
				return nil, fmt.Errorf("row %d references entry %d of %s: %w", i, r.dict[k], keys[k].Name, types.ErrCorruptedIndex)
			}
		}
		ix.rows = append(ix.rows, r)
	}

	if d.failed || d.off != len(d.b) {
		return nil, fmt.Errorf("truncated or oversized body: %w", types.ErrCorruptedIndex)
	}
	return ix, nil
}

// decoder is a bounds-checked cursor over the index body. Overruns latch
// the failed flag instead of panicking; the caller checks it once at the end
// and on every variable-length read path via zero values.
type decoder struct {
	b      []byte
	off    int
	failed bool
}

func (d *decoder) bytes(n int) []byte {
	if d.failed || n < 0 || d.off+n > len(d.b) {
		d.failed = true
		return nil
	}
	out := d.b[d.off : d.off+n]
	d.off += n
	return out
}

func (d *decoder) u8() byte {
	b := d.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u16() uint16 {
	b := d.bytes(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (d *decoder) u32() uint32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.bytes(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (d *decoder) str() string {
	n := int(d.u16())
	return string(d.bytes(n))
}

func (d *decoder) value() (types.Value, error) {
	switch tag := d.u8(); tag {
	case valueTagLong:
		return types.LongValue(int64(d.u64())), nil
	case valueTagDouble:
		return types.DoubleValue(math.Float64frombits(d.u64())), nil
	case valueTagString:
		return types.StringValue(d.str()), nil
	default:
		if d.failed {
			return types.Value{}, fmt.Errorf("truncated dictionary: %w", types.ErrCorruptedIndex)
		}
		return types.Value{}, fmt.Errorf("dictionary value tag %d: %w", tag, types.ErrCorruptedIndex)
	}
}
