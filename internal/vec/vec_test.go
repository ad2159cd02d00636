package vec

import (
	"math"
	"testing"
)

func TestArithmetic(t *testing.T) {
	a := V2{1, 2}
	b := V2{3, -4}

	if got := a.Add(b); got != (V2{4, -2}) {
		t.Errorf("Add: got %v", got)
	}
	if got := a.Sub(b); got != (V2{-2, 6}) {
		t.Errorf("Sub: got %v", got)
	}
	if got := a.Scale(2); got != (V2{2, 4}) {
		t.Errorf("Scale: got %v", got)
	}
	if got := a.Dot(b); got != -5 {
		t.Errorf("Dot: got %f", got)
	}
}

func TestLen(t *testing.T) {
	v := V2{3, 4}
	if v.Len() != 5 {
		t.Errorf("Len: got %f", v.Len())
	}
	if v.LenSq() != 25 {
		t.Errorf("LenSq: got %f", v.LenSq())
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		name string
		v    V2
		want bool
	}{
		{"zero", V2{}, true},
		{"normal", V2{1.5, -2.5}, true},
		{"nan x", V2{math.NaN(), 0}, false},
		{"nan y", V2{0, math.NaN()}, false},
		{"inf x", V2{math.Inf(1), 0}, false},
		{"neg inf y", V2{0, math.Inf(-1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFinite(); got != tt.want {
				t.Errorf("IsFinite(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestClampLen(t *testing.T) {
	v := V2{3, 4} // length 5

	// Under the cap: unchanged.
	if got := v.ClampLen(10); got != v {
		t.Errorf("expected unchanged vector, got %v", got)
	}

	// Over the cap: rescaled, direction preserved.
	got := v.ClampLen(1)
	if math.Abs(got.Len()-1) > 1e-12 {
		t.Errorf("expected unit length, got %f", got.Len())
	}
	if math.Abs(got.X/got.Y-v.X/v.Y) > 1e-12 {
		t.Errorf("direction changed: %v", got)
	}

	// Cap of zero means uncapped.
	if got := v.ClampLen(0); got != v {
		t.Errorf("cap 0 should be uncapped, got %v", got)
	}
}
