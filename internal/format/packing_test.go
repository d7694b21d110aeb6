package format

import (
	"math"
	"testing"
)

func TestIBMFloatRoundTrip(t *testing.T) {
	b := make([]byte, 4)
	for _, v := range []float64{0, 1, -1, 273.15, 0.00048828125, 101325, -1e10, 3.5e-20} {
		PutIBMFloat(b, v)
		got := IBMFloat(b)
		if v == 0 {
			if got != 0 {
				t.Fatalf("IBMFloat(0) = %g", got)
			}
			continue
		}
		if rel := math.Abs(got-v) / math.Abs(v); rel > 1e-6 {
			t.Fatalf("IBM round trip %g -> %g (rel %g)", v, got, rel)
		}
	}
}

func TestIBMFloatKnownValue(t *testing.T) {
	// 1.0 in IBM format: exponent 65 (16^1), fraction 0x100000 (1/16)
	b := []byte{0x41, 0x10, 0x00, 0x00}
	if got := IBMFloat(b); got != 1.0 {
		t.Fatalf("IBMFloat(0x41100000) = %g want 1", got)
	}
}

func TestPackUnpackSimple(t *testing.T) {
	values := []float64{273.15, 274.2, 280.01, 269.5, 269.5}
	ref, bsf, packed, err := PackSimple(values, 16, 2)
	if err != nil {
		t.Fatalf("PackSimple: %v", err)
	}
	out, err := UnpackSimple(packed, 0, len(values), 16, ref, bsf, 2)
	if err != nil {
		t.Fatalf("UnpackSimple: %v", err)
	}
	for i := range values {
		if math.Abs(out[i]-values[i]) > 0.01 {
			t.Fatalf("value %d: %g want %g", i, out[i], values[i])
		}
	}
}

func TestUnpackConstantField(t *testing.T) {
	out, err := UnpackSimple(nil, 0, 3, 0, 5, 0, 0)
	if err != nil {
		t.Fatalf("UnpackSimple: %v", err)
	}
	for _, v := range out {
		if v != 5 {
			t.Fatalf("constant field value %g", v)
		}
	}
}

func TestUnpackTruncated(t *testing.T) {
	if _, err := UnpackSimple([]byte{0xff}, 0, 4, 8, 0, 0, 0); err == nil {
		t.Fatalf("expected truncation error")
	}
}
