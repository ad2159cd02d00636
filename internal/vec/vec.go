// Package vec provides double-precision 2D vector math for the simulation
// core. Display layers may downcast, but all physics runs on float64:
// close encounters produce accelerations large enough that float32
// accumulation drifts visibly.
package vec

import "math"

// V2 is a 2D vector.
type V2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v V2) Add(o V2) V2 { return V2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v V2) Sub(o V2) V2 { return V2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v V2) Scale(s float64) V2 { return V2{v.X * s, v.Y * s} }

// Dot returns the dot product of v and o.
func (v V2) Dot(o V2) float64 { return v.X*o.X + v.Y*o.Y }

// Len returns the magnitude of v.
func (v V2) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y) }

// LenSq returns the squared magnitude of v.
func (v V2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

// IsFinite reports whether both components are finite.
func (v V2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// ClampLen rescales v to magnitude max if it exceeds max, preserving
// direction. max <= 0 means uncapped.
func (v V2) ClampLen(max float64) V2 {
	if max <= 0 {
		return v
	}
	l := v.Len()
	if l <= max {
		return v
	}
	return v.Scale(max / l)
}
