package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteokit/gribkit/pkg/types"
)

func TestCodecRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, offsets := writeGribFile(t, dir)
	ix, err := NewFromFile(nil, path, "shortName,level:l")
	require.NoError(t, err)
	defer ix.Close()

	indexPath := filepath.Join(dir, "analysis.gbx")
	require.NoError(t, ix.Write(indexPath))

	loaded, err := Read(nil, indexPath)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, ix.Keys(), loaded.Keys())
	for _, key := range []string{"shortName", "level"} {
		want, err := ix.Values(key)
		require.NoError(t, err)
		got, err := loaded.Values(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}

	// the reloaded index enumerates the same sequence
	require.NoError(t, loaded.SelectString("shortName", "t"))
	require.NoError(t, loaded.SelectLong("level", 500))
	h, err := loaded.NextHandle()
	require.NoError(t, err)
	assert.Equal(t, offsets[1], h.Offset())
	require.NoError(t, h.Close())
	_, err = loaded.NextHandle()
	assert.ErrorIs(t, err, types.ErrEndOfIndex)
}

func TestWriteToReadFrom(t *testing.T) {
	path, _ := writeGribFile(t, t.TempDir())
	ix, err := NewFromFile(nil, path, "shortName")
	require.NoError(t, err)
	defer ix.Close()

	var buf bytes.Buffer
	n, err := ix.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	loaded, err := ReadFrom(nil, &buf)
	require.NoError(t, err)
	defer loaded.Close()
	size, err := loaded.Size("shortName")
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestCodecRoundTripUnresolvedKey(t *testing.T) {
	path, _ := writeGribFile(t, t.TempDir())

	// under the skip policy a key nothing carries never resolves a kind,
	// yet the index is legitimately built and must persist
	ix, err := NewFromFile(nil, path, "nosuchkey,level:l")
	require.NoError(t, err)
	defer ix.Close()
	assert.Equal(t, types.Undefined, ix.Keys()[0].Kind)

	var buf bytes.Buffer
	_, err = ix.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := ReadFrom(nil, &buf)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, ix.Keys(), loaded.Keys())
	n, err := loaded.Size("nosuchkey")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReadRejectsCorruption(t *testing.T) {
	path, _ := writeGribFile(t, t.TempDir())
	ix, err := NewFromFile(nil, path, "shortName,level:l")
	require.NoError(t, err)
	defer ix.Close()

	var buf bytes.Buffer
	_, err = ix.WriteTo(&buf)
	require.NoError(t, err)
	good := buf.Bytes()

	flip := func(b []byte, i int) []byte {
		out := append([]byte(nil), b...)
		out[i] ^= 0xff
		return out
	}
	reseal := func(b []byte) []byte {
		body := b[:len(b)-8]
		return binary.BigEndian.AppendUint64(append([]byte(nil), body...), xxhash.Sum64(body))
	}
	zero := func(b []byte, i int) []byte {
		out := append([]byte(nil), b...)
		out[i] = 0
		return out
	}

	// first key spec: magic, version u16, count u16, name (u16 len + bytes), kind
	kindOff := len(codecMagic) + 2 + 2 + 2 + len("shortName")
	// row section: count u32 ahead of 3 rows of source u32 + offset u64 +
	// length u64 + two u32 dictionary indices, then the 8-byte trailer
	rowCountOff := len(good) - 8 - 3*(4+8+8+2*4) - 4
	hugeRows := append([]byte(nil), good...)
	binary.BigEndian.PutUint32(hugeRows[rowCountOff:], 0xffffffff)

	cases := map[string][]byte{
		"unresolved kind with values": reseal(zero(good, kindOff)),
		"absurd row count":            reseal(hugeRows),
		"flipped body byte":           flip(good, len(good)/2),
		"flipped trailer":             flip(good, len(good)-1),
		"truncated":                   good[:len(good)-9],
		"empty":                       {},
		"wrong magic":                 reseal(flip(good, 0)),
		"future version":              reseal(flip(good, 5)),
		"trailing garbage":            reseal(append(append([]byte(nil), good[:len(good)-8]...), 0xde, 0xad)),
		"dangling dict row":           reseal(flip(good, len(good)-12)), // last row's final dict index
	}
	for name, data := range cases {
		_, err := ReadFrom(nil, bytes.NewReader(data))
		assert.ErrorIs(t, err, types.ErrCorruptedIndex, name)
	}
}

func TestReadMissingIndexFile(t *testing.T) {
	_, err := Read(nil, filepath.Join(t.TempDir(), "absent.gbx"))
	assert.ErrorIs(t, err, types.ErrFileNotFound)
}

func TestReloadedIndexSurvivesMessageFileRemoval(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeGribFile(t, dir)
	ix, err := NewFromFile(nil, path, "shortName,level:l")
	require.NoError(t, err)
	indexPath := filepath.Join(dir, "analysis.gbx")
	require.NoError(t, ix.Write(indexPath))
	require.NoError(t, ix.Close())
	require.NoError(t, os.Remove(path))

	// loading and querying never touches the message file
	loaded, err := Read(nil, indexPath)
	require.NoError(t, err)
	defer loaded.Close()
	size, err := loaded.Size("shortName")
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	// only enumeration needs the bytes back
	require.NoError(t, loaded.SelectString("shortName", "t"))
	require.NoError(t, loaded.SelectLong("level", 850))
	_, err = loaded.NextHandle()
	assert.ErrorIs(t, err, types.ErrFileNotFound)
	assert.False(t, errors.Is(err, types.ErrEndOfIndex))
}
