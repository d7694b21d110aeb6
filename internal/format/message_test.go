package format

import (
	"errors"
	"testing"
)

func testSpec1() Grib1Spec {
	return Grib1Spec{
		Table2Version: 128,
		Centre:        98,
		Parameter:     11, // temperature
		LevelType:     100,
		Level:         850,
		Year:          2024, Month: 3, Day: 15, Hour: 12,
		UnitOfTime: 1, P1: 6, TimeRange: 0,
		BitsPerValue: 12,
		Values:       []float64{273.15, 274.2, 280.0, 269.5},
		Ni:           2, Nj: 2,
		La1: 60, Lo1: 0, La2: 50, Lo2: 10,
		IIncrement: 10, JIncrement: 10,
	}
}

func TestParseMessageGrib1(t *testing.T) {
	raw, err := EncodeGrib1(testSpec1())
	if err != nil {
		t.Fatalf("EncodeGrib1: %v", err)
	}
	m, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if m.Edition != 1 {
		t.Fatalf("edition = %d", m.Edition)
	}
	for _, num := range []int{SectionIndicator, SectionPDS, SectionGDS, SectionBDS, SectionEnd1} {
		if _, ok := m.Section(num); !ok {
			t.Fatalf("section %d missing", num)
		}
	}
	if _, ok := m.Section(SectionBMS); ok {
		t.Fatalf("unexpected bitmap section")
	}
	if len(m.Data) != len(raw) {
		t.Fatalf("data length %d want %d", len(m.Data), len(raw))
	}
}

func TestParseMessageGrib2(t *testing.T) {
	raw, err := EncodeGrib2(Grib2Spec{
		Discipline: 0, Centre: 98,
		Year: 2024, Month: 3, Day: 15, Hour: 12,
		ParameterCategory: 0, ParameterNumber: 0, // temperature
		LevelType: 100, LevelScaledValue: 85000,
		BitsPerValue: 16,
		Values:       []float64{273.15, 274.2},
	})
	if err != nil {
		t.Fatalf("EncodeGrib2: %v", err)
	}
	m, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if m.Edition != 2 {
		t.Fatalf("edition = %d", m.Edition)
	}
	for _, num := range []int{1, 3, 4, 5, 6, 7, SectionEnd2} {
		if _, ok := m.Section(num); !ok {
			t.Fatalf("section %d missing", num)
		}
	}
}

func TestParseMessageErrors(t *testing.T) {
	raw, err := EncodeGrib1(testSpec1())
	if err != nil {
		t.Fatalf("EncodeGrib1: %v", err)
	}

	// bad magic
	bad := append([]byte(nil), raw...)
	copy(bad, "JUNK")
	if _, err := ParseMessage(bad); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("want ErrBadMagic, got %v", err)
	}

	// unsupported edition
	bad = append([]byte(nil), raw...)
	bad[7] = 3
	if _, err := ParseMessage(bad); !errors.Is(err, ErrUnsupportedEdition) {
		t.Fatalf("want ErrUnsupportedEdition, got %v", err)
	}

	// clobbered end marker
	bad = append([]byte(nil), raw...)
	copy(bad[len(bad)-EndMarkerSize:], "xxxx")
	if _, err := ParseMessage(bad); !errors.Is(err, ErrEndMarkerNotFound) {
		t.Fatalf("want ErrEndMarkerNotFound, got %v", err)
	}

	// declared length longer than the sections
	bad = append([]byte(nil), raw...)
	bad[6] += 8
	bad = append(bad, make([]byte, 8)...)
	if _, err := ParseMessage(bad); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("want ErrLengthMismatch, got %v", err)
	}

	// truncated mid-message
	if _, err := ParseMessage(raw[:len(raw)-6]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestScan(t *testing.T) {
	m1, err := EncodeGrib1(testSpec1())
	if err != nil {
		t.Fatalf("EncodeGrib1: %v", err)
	}
	s2 := testSpec1()
	s2.Parameter = 6 // geopotential
	m2, err := EncodeGrib1(s2)
	if err != nil {
		t.Fatalf("EncodeGrib1: %v", err)
	}

	// junk between and after messages must be skipped
	stream := append([]byte("noise"), m1...)
	stream = append(stream, []byte("::")...)
	stream = append(stream, m2...)
	stream = append(stream, []byte("tail")...)

	off, n, ok, err := Scan(stream, 0)
	if err != nil || !ok {
		t.Fatalf("Scan #1: ok=%v err=%v", ok, err)
	}
	if off != 5 || n != len(m1) {
		t.Fatalf("Scan #1: off=%d n=%d", off, n)
	}

	off2, n2, ok, err := Scan(stream, off+n)
	if err != nil || !ok {
		t.Fatalf("Scan #2: ok=%v err=%v", ok, err)
	}
	if off2 != 5+len(m1)+2 || n2 != len(m2) {
		t.Fatalf("Scan #2: off=%d n=%d", off2, n2)
	}

	if _, _, ok, err := Scan(stream, off2+n2); ok || err != nil {
		t.Fatalf("Scan #3: expected clean end, ok=%v err=%v", ok, err)
	}
}

func TestScanPrematureEnd(t *testing.T) {
	m1, err := EncodeGrib1(testSpec1())
	if err != nil {
		t.Fatalf("EncodeGrib1: %v", err)
	}
	_, _, ok, err := Scan(m1[:len(m1)-1], 0)
	if !ok || !errors.Is(err, ErrTruncated) {
		t.Fatalf("want truncation, ok=%v err=%v", ok, err)
	}
}
