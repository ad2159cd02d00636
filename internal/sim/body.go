// Package sim defines the simulation data model: bodies, the world that
// owns them, and the per-step parameter block. The physics package mutates
// a World in place; everything here is plain state with no behavior beyond
// bookkeeping.
package sim

import (
	"math"

	"github.com/onnwee/nbody-sim/internal/vec"
)

// BodyDensity is the assumed uniform density (kg/m^3) used to derive a
// radius for bodies that don't carry an explicit one.
const BodyDensity = 3000.0

// BodyID is a stable opaque handle for a body. Handles are never reused
// within a World and become invalid when a body is removed (for example by
// a collision merge).
type BodyID uint64

// Body is a point mass in 2D. Positions and velocities are SI (meters,
// meters/second); mass is kilograms.
type Body struct {
	ID      BodyID  `json:"id"`
	Pos     vec.V2  `json:"pos"`
	Vel     vec.V2  `json:"vel"`
	Acc     vec.V2  `json:"acc"`
	PrevAcc vec.V2  `json:"-"`
	Mass    float64 `json:"mass"`
	// Radius in meters. Zero means "derive from mass and BodyDensity".
	Radius float64 `json:"radius,omitempty"`
	// Pinned bodies exert gravity but are never moved by the integrator.
	Pinned bool `json:"pinned,omitempty"`
}

// Valid reports whether the body participates in the current step. Bodies
// with non-finite position/velocity or non-positive/non-finite mass are
// skipped by the force pass, not deleted: the state is expected to
// self-heal once the caller fixes or removes the body.
func (b *Body) Valid() bool {
	return b.Pos.IsFinite() && b.Vel.IsFinite() &&
		b.Mass > 0 && !math.IsInf(b.Mass, 0) && !math.IsNaN(b.Mass)
}

// EffectiveRadius returns the explicit radius if set, otherwise one derived
// from mass: r = cbrt(3m / (4*pi*rho)).
func (b *Body) EffectiveRadius() float64 {
	if b.Radius > 0 {
		return b.Radius
	}
	return RadiusFromMass(b.Mass)
}

// RadiusFromMass derives a sphere radius from mass assuming BodyDensity.
// Masses below 1 kg are floored so tiny bodies stay selectable/collidable.
func RadiusFromMass(m float64) float64 {
	if m < 1 {
		m = 1
	}
	return math.Cbrt((3 * m) / (4 * math.Pi * BodyDensity))
}
