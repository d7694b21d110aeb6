//go:build unix

package mmfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/meteokit/gribkit/internal/format"
)

func TestMapGribFile(t *testing.T) {
	raw, err := format.EncodeGrib1(format.Grib1Spec{
		Parameter: 11, LevelType: 100, Level: 850,
		Year: 2024, Month: 3, Day: 15,
		Values: []float64{273.15, 274.25},
	})
	if err != nil {
		t.Fatalf("EncodeGrib1: %v", err)
	}
	path := filepath.Join(t.TempDir(), "single.grib")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, unmap, err := Map(path)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer func() {
		if err := unmap(); err != nil {
			t.Fatalf("unmap: %v", err)
		}
	}()
	if !bytes.HasPrefix(data, format.Magic) {
		t.Fatalf("mapping does not start with the GRIB magic: % x", data[:4])
	}
	if !bytes.Equal(data, raw) {
		t.Fatalf("mapped %d bytes, want the %d written", len(data), len(raw))
	}
}

func TestMapEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.grib")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, unmap, err := Map(path)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("mapped %d bytes from an empty file", len(data))
	}
	if unmap == nil {
		t.Fatal("nil unmap func")
	}
	if err := unmap(); err != nil {
		t.Fatalf("unmap: %v", err)
	}
}
