// Package physics implements the gravity/integration engine: force
// evaluation (exact pairwise and Barnes-Hut), time integration with
// adaptive substepping, overlap collision resolution, and conservation
// diagnostics. Everything here is synchronous and single-threaded; a step
// runs to completion on the caller's goroutine and all mutation is
// confined to the World passed in.
package physics

import (
	"time"

	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

// ComputeAccelerations evaluates gravitational acceleration for every
// valid body and writes it to Body.Acc in place, without advancing time.
// Exposed separately from Step so callers can inspect force vectors.
//
// Bodies failing Valid() are excluded both ways: they contribute nothing
// and receive nothing (their Acc is left untouched). Pinned bodies exert
// gravity on others but never accumulate acceleration of their own.
//
// At or below BHThreshold live bodies the evaluator runs the exact O(n^2)
// pairwise sum, exploiting Newton's third law to compute each pair once;
// above it a quadtree is built for the step and queried per body.
func ComputeAccelerations(w *sim.World, p sim.StepParams) {
	live := liveBodies(w)
	for _, b := range live {
		b.Acc = vec.V2{}
	}
	if len(live) < 2 {
		return
	}

	if len(live) <= p.BHThreshold {
		pairwise(live, p.G, p.Eps2())
		return
	}

	start := time.Now()
	tree := buildQuadtree(live)
	metrics.SimTreeBuildsTotal.Inc()
	metrics.SimTreeBuildDuration.Observe(time.Since(start).Seconds())

	theta := p.BHTheta
	eps2 := p.Eps2()
	for _, b := range live {
		if b.Pinned {
			continue
		}
		b.Acc = tree.accelOn(b, theta, p.G, eps2)
	}
}

func pairwise(bodies []*sim.Body, g, eps2 float64) {
	for i := 0; i < len(bodies); i++ {
		bi := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			bj := bodies[j]
			dx := bj.Pos.X - bi.Pos.X
			dy := bj.Pos.Y - bi.Pos.Y

			ax, ay := pairKernel(dx, dy, bj.Mass, g, eps2)
			if !bi.Pinned {
				bi.Acc.X += ax
				bi.Acc.Y += ay
			}
			// Opposite direction, scaled by the other mass.
			bx, by := pairKernel(-dx, -dy, bi.Mass, g, eps2)
			if !bj.Pinned {
				bj.Acc.X += bx
				bj.Acc.Y += by
			}
		}
	}
}

// liveBodies returns the bodies participating in the current pass.
func liveBodies(w *sim.World) []*sim.Body {
	out := make([]*sim.Body, 0, w.Len())
	for _, b := range w.Bodies() {
		if b.Valid() {
			out = append(out, b)
		}
	}
	return out
}
