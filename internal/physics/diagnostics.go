package physics

import (
	"math"

	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

// Diagnostics is a read-only snapshot of the conservation quantities for a
// body set. It is computed fresh on every call and never stored as ground
// truth.
type Diagnostics struct {
	Kinetic      float64 `json:"kinetic"`
	Potential    float64 `json:"potential"`
	Energy       float64 `json:"energy"`
	Momentum     vec.V2  `json:"momentum"`
	CenterOfMass vec.V2  `json:"center_of_mass"`
	TotalMass    float64 `json:"total_mass"`
	// OK is false if any accumulator went non-finite at any point during
	// summation. Callers treat that as numerical divergence and typically
	// pause the simulation; the core only reports.
	OK bool `json:"ok"`
}

// Compute returns conservation diagnostics over the full body set,
// including bodies the force pass would skip, so a poisoned value is
// caught here rather than silently ignored. Finiteness is checked
// incrementally: a single NaN flips OK even if later terms would cancel
// it back to a finite total.
func Compute(w *sim.World, g, eps2 float64) Diagnostics {
	d := Diagnostics{OK: true}
	bodies := w.Bodies()
	if len(bodies) == 0 {
		return d
	}

	var ke, m, px, py, cx, cy float64
	for _, b := range bodies {
		ke += 0.5 * b.Mass * b.Vel.LenSq()
		px += b.Mass * b.Vel.X
		py += b.Mass * b.Vel.Y
		cx += b.Mass * b.Pos.X
		cy += b.Mass * b.Pos.Y
		m += b.Mass
		if !finiteAll(ke, px, py, cx, cy, m) {
			d.OK = false
		}
	}

	var pe float64
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			dx := bodies[j].Pos.X - bodies[i].Pos.X
			dy := bodies[j].Pos.Y - bodies[i].Pos.Y
			r := math.Sqrt(dx*dx + dy*dy + eps2)
			pe += -g * bodies[i].Mass * bodies[j].Mass / r
			if !finite(pe) {
				d.OK = false
			}
		}
	}

	d.Kinetic = ke
	d.Potential = pe
	d.Energy = ke + pe
	d.Momentum = vec.V2{X: px, Y: py}
	d.TotalMass = m
	if m > 0 {
		d.CenterOfMass = vec.V2{X: cx / m, Y: cy / m}
	}
	if !finite(d.Energy) || !d.Momentum.IsFinite() || !d.CenterOfMass.IsFinite() {
		d.OK = false
	}
	return d
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func finiteAll(vs ...float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}
