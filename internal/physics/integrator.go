package physics

import (
	"math"

	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/sim"
)

// Step advances the world by one logical step: collision resolution, then
// force evaluation and integration over one or more substeps. The world is
// mutated in place; StepParams is read-only.
//
// The effective timestep DT * max(0, TimeScale) is split into equal
// substeps no larger than MaxSubstep (capped at MaxSubstepsPerFrame) so
// that heavy time compression cannot push a single kick past orbital
// timescales.
func Step(w *sim.World, p sim.StepParams) {
	ResolveCollisions(w, p)

	dtEff := p.EffectiveDT()
	if dtEff <= 0 {
		// Paused or zero time scale: keep accelerations current so force
		// vectors remain valid, but advance nothing.
		ComputeAccelerations(w, p)
		return
	}

	n := SubstepCount(dtEff, p.MaxSubstep, p.MaxSubstepsPerFrame)
	dtSub := dtEff / float64(n)
	metrics.SimSubstepsPerStep.Observe(float64(n))

	ComputeAccelerations(w, p)
	for s := 0; s < n; s++ {
		if p.Integrator == sim.VelocityVerlet {
			verletSubstep(w, p, dtSub)
			// Acc now holds forces at the new positions, which is exactly
			// what the next substep's drift needs; no re-evaluation.
			continue
		}
		if s > 0 {
			ComputeAccelerations(w, p)
		}
		eulerSubstep(w, p.MaxSpeed, dtSub)
	}
}

// SubstepCount returns clamp(ceil(dtEff/maxSubstep), 1, maxPerFrame).
func SubstepCount(dtEff, maxSubstep float64, maxPerFrame int) int {
	if maxSubstep <= 0 || dtEff <= maxSubstep {
		return 1
	}
	n := int(math.Ceil(dtEff / maxSubstep))
	if maxPerFrame >= 1 && n > maxPerFrame {
		n = maxPerFrame
	}
	if n < 1 {
		n = 1
	}
	return n
}

// eulerSubstep is one Semi-Implicit Euler substep: kick, cap, drift.
func eulerSubstep(w *sim.World, maxSpeed, dt float64) {
	for _, b := range w.Bodies() {
		if b.Pinned || !b.Valid() {
			continue
		}
		b.Vel = b.Vel.Add(b.Acc.Scale(dt)).ClampLen(maxSpeed)
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	}
}

// verletSubstep is one Velocity Verlet substep. Positions move using the
// current acceleration, forces are re-evaluated at the new positions, and
// velocities take the average of old and new acceleration. The two-stage
// form is what makes the scheme symplectic; skipping the mid-step force
// evaluation degrades it to plain Euler.
func verletSubstep(w *sim.World, p sim.StepParams, dt float64) {
	half := 0.5 * dt * dt
	for _, b := range w.Bodies() {
		if b.Pinned || !b.Valid() {
			continue
		}
		b.Pos = b.Pos.Add(b.Vel.Scale(dt)).Add(b.Acc.Scale(half))
		b.PrevAcc = b.Acc
	}

	ComputeAccelerations(w, p)

	for _, b := range w.Bodies() {
		if b.Pinned || !b.Valid() {
			continue
		}
		avg := b.PrevAcc.Add(b.Acc).Scale(0.5)
		b.Vel = b.Vel.Add(avg.Scale(dt)).ClampLen(p.MaxSpeed)
	}
}
