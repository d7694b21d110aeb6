package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoercionLongDoubleString(t *testing.T) {
	v := LongValue(42)

	d, err := v.AsDouble()
	require.NoError(t, err)
	require.Equal(t, 42.0, d)

	s, err := v.AsString()
	require.NoError(t, err)
	require.Equal(t, "42", s)

	// double -> long truncates toward zero
	n, err := DoubleValue(-2.9).AsLong()
	require.NoError(t, err)
	require.Equal(t, int64(-2), n)

	// numeric string parses
	n, err = StringValue(" 850 ").AsLong()
	require.NoError(t, err)
	require.Equal(t, int64(850), n)

	f, err := StringValue("0.5").AsDouble()
	require.NoError(t, err)
	require.Equal(t, 0.5, f)
}

func TestWrongConversion(t *testing.T) {
	_, err := StringValue("t").AsLong()
	require.ErrorIs(t, err, ErrWrongConversion)

	_, err = StringValue("north").AsDouble()
	require.ErrorIs(t, err, ErrWrongConversion)

	_, err = BytesValue([]byte{1, 2}).AsString()
	require.ErrorIs(t, err, ErrWrongConversion)

	_, err = LongArrayValue([]int64{1, 2}).AsLong()
	require.ErrorIs(t, err, ErrWrongConversion)
}

func TestSingleElementArrayActsAsScalar(t *testing.T) {
	n, err := LongArrayValue([]int64{500}).AsLong()
	require.NoError(t, err)
	require.Equal(t, int64(500), n)

	s, err := DoubleArrayValue([]float64{1.5}).AsString()
	require.NoError(t, err)
	require.Equal(t, "1.5", s)
}

func TestMissingSentinels(t *testing.T) {
	m := MissingValue(Long)

	n, err := m.AsLong()
	require.NoError(t, err)
	require.Equal(t, MissingLong, n)

	d, err := MissingValue(Double).AsDouble()
	require.NoError(t, err)
	require.Equal(t, MissingDouble, d)

	// missing never equals anything, including another missing
	require.False(t, m.Equal(LongValue(MissingLong)))
	require.False(t, m.Equal(MissingValue(Long)))
}

func TestEqual(t *testing.T) {
	require.True(t, LongValue(7).Equal(LongValue(7)))
	require.False(t, LongValue(7).Equal(LongValue(8)))
	require.False(t, LongValue(7).Equal(DoubleValue(7)))
	require.True(t, StringValue("t").Equal(StringValue("t")))
	require.True(t, LongArrayValue([]int64{1, 2}).Equal(LongArrayValue([]int64{1, 2})))
	require.False(t, LongArrayValue([]int64{1, 2}).Equal(LongArrayValue([]int64{1})))
	require.False(t, LongValue(1).Equal(LongArrayValue([]int64{1})))
}

func TestParseKind(t *testing.T) {
	for suffix, want := range map[string]Kind{"l": Long, "i": Long, "d": Double, "s": String} {
		k, err := ParseKind(suffix)
		require.NoError(t, err)
		require.Equal(t, want, k)
	}
	_, err := ParseKind("x")
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestErrorWrapping(t *testing.T) {
	wrapped := IOError(errors.New("disk gone"))
	require.ErrorIs(t, wrapped, ErrIOProblem)
	require.Contains(t, wrapped.Error(), "disk gone")
	require.NoError(t, IOError(nil))
}
