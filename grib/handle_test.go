package grib

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteokit/gribkit/internal/format"
	"github.com/meteokit/gribkit/pkg/types"
	"github.com/meteokit/gribkit/schema"
)

func encodeTemp850(t *testing.T) []byte {
	t.Helper()
	raw, err := format.EncodeGrib1(format.Grib1Spec{
		Centre:    98,
		Parameter: 11, // t
		LevelType: 100,
		Level:     850,
		Year:      2024, Month: 3, Day: 15, Hour: 12,
		BitsPerValue: 16,
		Values:       []float64{273.15, 274.25, 269.5, 280.75},
		Ni:           2, Nj: 2,
		La1: 60, Lo1: 0, La2: 50, Lo2: 10, IIncrement: 10, JIncrement: 10,
	})
	require.NoError(t, err)
	return raw
}

func TestNewHandleFromFileStream(t *testing.T) {
	msg1 := encodeTemp850(t)
	raw2, err := format.EncodeGrib1(format.Grib1Spec{
		Parameter: 6, LevelType: 100, Level: 500,
		Year: 2024, Month: 3, Day: 15,
		Values: []float64{48000, 48100},
	})
	require.NoError(t, err)

	junk := []byte("## operational bulletin header ##")
	stream := bytes.NewReader(bytes.Join([][]byte{junk, msg1, raw2}, nil))

	h1, err := NewHandleFromFile(nil, stream)
	require.NoError(t, err)
	defer h1.Close()
	assert.Equal(t, int64(len(junk)), h1.Offset())

	short, err := h1.GetString("shortName")
	require.NoError(t, err)
	assert.Equal(t, "t", short)

	h2, err := NewHandleFromFile(nil, stream)
	require.NoError(t, err)
	defer h2.Close()
	assert.Equal(t, int64(len(junk)+len(msg1)), h2.Offset())

	short, err = h2.GetString("shortName")
	require.NoError(t, err)
	assert.Equal(t, "z", short)

	_, err = NewHandleFromFile(nil, stream)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewHandleFromFilePrematureEnd(t *testing.T) {
	msg := encodeTemp850(t)
	_, err := NewHandleFromFile(nil, bytes.NewReader(msg[:len(msg)-10]))
	assert.ErrorIs(t, err, types.ErrPrematureEndOfFile)
}

func TestCountMessagesInFile(t *testing.T) {
	msg := encodeTemp850(t)
	stream := bytes.NewReader(bytes.Join([][]byte{msg, []byte("padding"), msg, msg}, nil))
	n, err := CountMessagesInFile(nil, stream)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestHandleRejectsGarbage(t *testing.T) {
	_, err := NewHandleFromMessageCopy(nil, []byte("not a grib message at all"))
	assert.ErrorIs(t, err, types.ErrInvalidMessage)
}

func TestGetCoercion(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	level, err := h.GetLong("level")
	require.NoError(t, err)
	assert.Equal(t, int64(850), level)

	levelStr, err := h.GetString("level")
	require.NoError(t, err)
	assert.Equal(t, "850", levelStr)

	levelD, err := h.GetDouble("level")
	require.NoError(t, err)
	assert.Equal(t, 850.0, levelD)

	// non-numeric string never coerces to long
	_, err = h.GetLong("shortName")
	assert.ErrorIs(t, err, types.ErrWrongConversion)

	_, err = h.GetLong("nosuchkey")
	assert.ErrorIs(t, err, types.ErrNotFound)

	kind, err := h.GetNativeType("shortName")
	require.NoError(t, err)
	assert.Equal(t, types.String, kind)
}

func TestSetThenGetAcrossTypes(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	// a long set reads back in string form
	require.NoError(t, h.SetLong("indicatorOfParameter", 42))
	s, err := h.GetString("indicatorOfParameter")
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	// setting the raw code refreshes the table-derived alias on the same octet
	require.NoError(t, h.SetLong("indicatorOfParameter", 6))
	short, err := h.GetString("shortName")
	require.NoError(t, err)
	assert.Equal(t, "z", short)

	// and setting the alias writes the raw code back
	require.NoError(t, h.SetString("shortName", "t"))
	code, err := h.GetLong("indicatorOfParameter")
	require.NoError(t, err)
	assert.Equal(t, int64(11), code)

	// numeric strings parse on set
	require.NoError(t, h.SetString("level", "700"))
	level, err := h.GetLong("level")
	require.NoError(t, err)
	assert.Equal(t, int64(700), level)

	assert.ErrorIs(t, h.SetString("level", "not a number"), types.ErrWrongConversion)
}

func TestSetFailuresLeaveHandleUnchanged(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	assert.ErrorIs(t, h.SetLong("editionNumber", 2), types.ErrReadOnly)
	assert.ErrorIs(t, h.SetLong("level", 1<<20), types.ErrOutOfRange)
	assert.ErrorIs(t, h.SetLong("nosuchkey", 1), types.ErrNotFound)

	level, err := h.GetLong("level")
	require.NoError(t, err)
	assert.Equal(t, int64(850), level)
}

func TestMissing(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	missing, err := h.IsMissing("subCentre")
	require.NoError(t, err)
	assert.False(t, missing)

	require.NoError(t, h.SetMissing("subCentre"))
	missing, err = h.IsMissing("subCentre")
	require.NoError(t, err)
	assert.True(t, missing)

	// missing longs read back as the sentinel, never a real value
	v, err := h.GetLong("subCentre")
	require.NoError(t, err)
	assert.Equal(t, types.MissingLong, v)

	assert.ErrorIs(t, h.SetMissing("level"), types.ErrValueCannotBeMissing)
}

func TestArraysAndCapacityNegotiation(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	size, err := h.GetSize("values")
	require.NoError(t, err)
	require.Equal(t, 4, size)

	small := make([]float64, 2)
	_, err = h.GetDoubleArrayInto("values", small)
	assert.ErrorIs(t, err, types.ErrArrayTooSmall)

	dst := make([]float64, size)
	n, err := h.GetDoubleArrayInto("values", dst)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	assert.InDelta(t, 273.15, dst[0], 0.05)

	longs, err := h.GetLongArray("values")
	require.NoError(t, err)
	assert.Equal(t, int64(273), longs[0]) // truncation toward zero

	scalar, err := h.GetDoubleArray("level")
	require.NoError(t, err)
	assert.Equal(t, []float64{850}, scalar)
}

func TestSetDoubleArrayRepacks(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	next := []float64{250, 251.5, 249.25, 260}
	require.NoError(t, h.SetDoubleArray("values", next))

	got, err := h.GetDoubleArray("values")
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := range next {
		assert.InDelta(t, next[i], got[i], 0.05)
	}

	assert.ErrorIs(t, h.SetDoubleArray("values", next[:2]), types.ErrWrongLength)
}

func TestBorrowedViewMutatesCallerBytes(t *testing.T) {
	raw := encodeTemp850(t)
	h, err := NewHandleFromMessage(nil, raw)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.SetLong("level", 500))

	// the caller's slice carries the change
	reparsed, err := NewHandleFromMessageCopy(nil, raw)
	require.NoError(t, err)
	defer reparsed.Close()
	level, err := reparsed.GetLong("level")
	require.NoError(t, err)
	assert.Equal(t, int64(500), level)
}

func TestCopyAndCloneAreIndependent(t *testing.T) {
	raw := encodeTemp850(t)
	h, err := NewHandleFromMessageCopy(nil, raw)
	require.NoError(t, err)
	defer h.Close()

	// mutating the source bytes does not reach the owned copy
	raw[20] ^= 0xff
	level, err := h.GetLong("level")
	require.NoError(t, err)
	assert.Equal(t, int64(850), level)

	c, err := h.Clone()
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetLong("level", 500))

	level, err = h.GetLong("level")
	require.NoError(t, err)
	assert.Equal(t, int64(850), level)
}

func TestCloseIdempotent(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.Nil(t, h.Message())
}

func TestGetBytesAndLength(t *testing.T) {
	h, err := NewHandleFromMessageCopy(nil, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	b, err := h.GetBytes("level")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x52}, b) // 850 big-endian

	n, err := h.GetLength("shortName")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = h.GetLength("level")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// dupProvider exposes the same name twice over different octets, to pin the
// last-one-wins access rule down independently of the builtin schema.
type dupProvider struct{}

func (dupProvider) Fields(m *format.Message) ([]schema.FieldDef, error) {
	return []schema.FieldDef{
		{Name: "code", Kind: types.Long, Section: 1, Octet: 4, Bits: 8, Flags: types.FlagCoded},
		{Name: "code", Kind: types.Long, Section: 1, Octet: 8, Bits: 8, Flags: types.FlagCoded},
	}, nil
}

func TestDuplicateNamesLastOneWins(t *testing.T) {
	ctx := &Context{Provider: dupProvider{}}
	h, err := NewHandleFromMessageCopy(ctx, encodeTemp850(t))
	require.NoError(t, err)
	defer h.Close()

	// octet 4 holds centre (98), octet 8 the parameter (11): get sees the last
	v, err := h.GetLong("code")
	require.NoError(t, err)
	assert.Equal(t, int64(11), v)

	size, err := h.GetSize("code")
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	// set targets the last entry and leaves the first alone
	require.NoError(t, h.SetLong("code", 42))
	it := h.Keys("", 0)
	var seen []int64
	for it.Next() {
		n, err := it.Value().AsLong()
		require.NoError(t, err)
		seen = append(seen, n)
	}
	assert.Equal(t, []int64{98, 42}, seen)
}
