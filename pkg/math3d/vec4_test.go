package math3d

import (
	"math"
	"testing"
)

func TestVec4LenAndLenSq(t *testing.T) {
	tests := []struct {
		name string
		v    Vec4
		want float64 // squared length
	}{
		{"zero", V4(0, 0, 0, 0), 0},
		{"unit x", V4(1, 0, 0, 0), 1},
		{"all ones", V4(1, 1, 1, 1), 4},
		{"mixed", V4(1, -2, 3, -4), 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.LenSq(); math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("LenSq() = %v, want %v", got, tc.want)
			}
			if got := tc.v.Len(); math.Abs(got-math.Sqrt(tc.want)) > 1e-12 {
				t.Errorf("Len() = %v, want %v", got, math.Sqrt(tc.want))
			}
		})
	}
}

func TestVec4SubLenSq(t *testing.T) {
	// Squared distance between homogeneous positions, as the clipper's
	// coincident-vertex check computes it.
	a := V4(1, 2, 3, 1)
	b := V4(1, 2, 3, 1)
	if got := a.Sub(b).LenSq(); got != 0 {
		t.Errorf("coincident positions squared distance = %v, want 0", got)
	}

	c := V4(1.001, 2, 3, 1)
	if got := a.Sub(c).LenSq(); math.Abs(got-1e-6) > 1e-12 {
		t.Errorf("near-coincident squared distance = %v, want 1e-6", got)
	}
}
