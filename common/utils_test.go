package common

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "", "b", "c"); got != "b" {
		t.Errorf("Coalesce strings = %q, want b", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("Coalesce zeros = %d, want 0", got)
	}
	if got := Coalesce[float32](0, 0.5); got != 0.5 {
		t.Errorf("Coalesce floats = %v, want 0.5", got)
	}
}

func TestSliceToBytes(t *testing.T) {
	if SliceToBytes([]float32{}) != nil {
		t.Error("empty slice should give nil")
	}

	b := SliceToBytes([]float32{1, -2})
	if len(b) != 8 {
		t.Fatalf("len = %d, want 8", len(b))
	}
	if v := math.Float32frombits(binary.NativeEndian.Uint32(b[4:8])); v != -2 {
		t.Errorf("second value = %v, want -2", v)
	}
}
