package buf

import (
	"math"
	"testing"
)

func TestCheckListBounds(t *testing.T) {
	tests := []struct {
		name                               string
		bufLen, offset, count, elementSize int
		wantEnd                            int
		wantErr                            bool
	}{
		{name: "fits exactly", bufLen: 100, offset: 20, count: 10, elementSize: 8, wantEnd: 100},
		{name: "fits with room", bufLen: 100, offset: 0, count: 4, elementSize: 4, wantEnd: 16},
		{name: "zero count", bufLen: 10, offset: 10, count: 0, elementSize: 8, wantEnd: 10},
		{name: "end past buffer", bufLen: 100, offset: 20, count: 11, elementSize: 8, wantErr: true},
		{name: "negative offset", bufLen: 100, offset: -1, count: 1, elementSize: 1, wantErr: true},
		{name: "negative count", bufLen: 100, offset: 0, count: -1, elementSize: 1, wantErr: true},
		{name: "negative element size", bufLen: 100, offset: 0, count: 1, elementSize: -1, wantErr: true},
		{name: "count times size overflows", bufLen: 100, offset: 0, count: math.MaxInt, elementSize: 2, wantErr: true},
		{name: "offset plus size overflows", bufLen: 100, offset: math.MaxInt, count: 1, elementSize: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, err := CheckListBounds(tt.bufLen, tt.offset, tt.count, tt.elementSize)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got end=%d", end)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckListBounds: %v", err)
			}
			if end != tt.wantEnd {
				t.Fatalf("end = %d, want %d", end, tt.wantEnd)
			}
		})
	}
}
