package grib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteokit/gribkit/pkg/types"
)

func TestKeysIteratorNamespaceFilter(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	it := h.Keys("vertical", 0)
	var names []string
	for it.Next() {
		names = append(names, it.Name())
	}
	assert.Equal(t, []string{"indicatorOfTypeOfLevel", "typeOfLevel", "level"}, names)
}

func TestKeysIteratorFlagFilter(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	// all requested flags must be present
	it := h.Keys("time", types.FlagComputed|types.FlagReadOnly)
	var names []string
	for it.Next() {
		names = append(names, it.Name())
	}
	assert.Equal(t, []string{"dataDate", "dataTime"}, names)
}

func TestKeysIteratorStateMachine(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	it := h.Keys("nosuchnamespace", 0)

	// not positioned yet: accessors return zero values
	assert.Equal(t, "", it.Name())
	assert.Equal(t, types.Undefined, it.Value().Kind())

	// exhaustion is terminal and idempotent
	assert.False(t, it.Next())
	assert.False(t, it.Next())
	assert.Equal(t, "", it.Name())
}

func TestKeysIteratorSeesSetsInPlace(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	it := h.Keys("vertical", 0)
	require.True(t, it.Next()) // indicatorOfTypeOfLevel

	// mutating the handle mid-iteration never invalidates the cursor
	require.NoError(t, h.SetLong("level", 500))

	require.True(t, it.Next())
	require.True(t, it.Next())
	assert.Equal(t, "level", it.Name())
	v, err := it.Value().AsLong()
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)
	assert.False(t, it.Next())
}
