package grib

import "github.com/meteokit/gribkit/pkg/types"

type iterState int

const (
	iterCreated iterState = iota
	iterPositioned
	iterExhausted
)

// KeysIterator is a stateful cursor over a handle's field names, optionally
// filtered by namespace and attribute flags. It does not own the handle;
// closing the handle invalidates the iterator.
type KeysIterator struct {
	h         *Handle
	namespace string
	flags     types.AttrFlags
	pos       int
	state     iterState
}

// Keys returns an iterator over the handle's fields. An empty namespace
// matches every entry; a non-zero flags filter yields only entries carrying
// all of the requested flags.
func (h *Handle) Keys(namespace string, flags types.AttrFlags) *KeysIterator {
	return &KeysIterator{h: h, namespace: namespace, flags: flags, pos: -1}
}

// Next advances to the next matching entry and reports whether one was
// found. Once exhausted it stays exhausted and keeps returning false.
func (it *KeysIterator) Next() bool {
	if it.state == iterExhausted || it.h.closed || it.h.tree == nil {
		it.state = iterExhausted
		return false
	}
	entries := it.h.tree.entries
	for i := it.pos + 1; i < len(entries); i++ {
		def := entries[i].Def
		if it.namespace != "" && def.Namespace != it.namespace {
			continue
		}
		if !def.Flags.Has(it.flags) {
			continue
		}
		it.pos = i
		it.state = iterPositioned
		return true
	}
	it.state = iterExhausted
	return false
}

// Name is the current entry's key name. Valid only after a true Next.
func (it *KeysIterator) Name() string {
	if it.state != iterPositioned {
		return ""
	}
	return it.h.tree.entries[it.pos].Def.Name
}

// Value is the current entry's typed value. Valid only after a true Next.
func (it *KeysIterator) Value() types.Value {
	if it.state != iterPositioned {
		return types.Value{}
	}
	return it.h.tree.entries[it.pos].Value
}
