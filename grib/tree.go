package grib

import (
	"fmt"

	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/internal/reader"
	"github.com/meteokit/gribkit/pkg/types"
	"github.com/meteokit/gribkit/schema"
)

// tree is the decoded field list of one message. The entry list is fixed
// after decode; sets change entry values in place, never the shape, so key
// iterators stay valid across mutation. Names may repeat; last maps each
// name to its final occurrence for the last-one-wins access rule.
type tree struct {
	entries []reader.Field
	last    map[string]int
}

func newTree(fields []reader.Field) *tree {
	t := &tree{entries: fields, last: make(map[string]int, len(fields))}
	for i, f := range fields {
		t.last[f.Def.Name] = i
	}
	return t
}

// lookup resolves a name to its last entry index.
func (t *tree) lookup(name string) (int, bool) {
	i, ok := t.last[name]
	return i, ok
}

// set writes a typed value through to the message buffer and refreshes the
// in-memory entries the write invalidated. Either the whole operation
// succeeds or both buffer and tree are left unchanged.
func (t *tree) set(m *format.Message, i int, v types.Value) error {
	def := t.entries[i].Def
	if def.ReadOnly() {
		return fmt.Errorf("key %s: %w", def.Name, types.ErrReadOnly)
	}
	if err := reader.EncodeField(m, def, v); err != nil {
		return err
	}
	return t.refresh(m, i)
}

// setMissing writes the field's missing sentinel into the buffer.
func (t *tree) setMissing(m *format.Message, i int) error {
	def := t.entries[i].Def
	if def.ReadOnly() {
		return fmt.Errorf("key %s: %w", def.Name, types.ErrReadOnly)
	}
	if err := reader.SetMissing(m, def); err != nil {
		return err
	}
	return t.refresh(m, i)
}

// refresh re-extracts the written entry, every entry sharing its coded
// window (a code-table alias and its raw octet live on the same bytes), and
// every computed entry, whose derivations may read the bytes just changed.
// Writes without a window of their own (reverse table lookups, value
// repacking) can touch octets anywhere, so everything is re-extracted.
func (t *tree) refresh(m *format.Message, written int) error {
	def := t.entries[written].Def
	windowed := def.Op == schema.OpOctets || def.Op == schema.OpCodeTable
	for i := range t.entries {
		e := &t.entries[i]
		if windowed && i != written && !sameWindow(e.Def, def) && !e.Def.Flags.Has(types.FlagComputed) {
			continue
		}
		v, ok, err := reader.Extract(m, e.Def)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", e.Def.Name, err)
		}
		if ok {
			e.Value = v
		}
	}
	return nil
}

// sameWindow reports whether two octet-backed definitions read the same
// bytes of the same section.
func sameWindow(a, b schema.FieldDef) bool {
	if a.Bits == 0 || b.Bits == 0 {
		return false
	}
	return a.Section == b.Section && a.Octet == b.Octet && a.Bits == b.Bits
}
