package physics

import (
	"math"

	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

// ResolveCollisions detects every pair of live bodies whose separation is
// below the sum of their radii and resolves them before forces are
// computed. Runs once per logical step (not per substep), pairwise O(n^2):
// collision-heavy workloads are expected at body counts well below the
// Barnes-Hut regime.
//
// Merge mode: the pinned body survives if exactly one is pinned, otherwise
// the heavier (scan order breaks exact ties). Two pinned bodies never merge
// and are not separated; that dead-zone is intentional, separating fixed
// points would just oscillate. A pinned survivor keeps its position and
// velocity untouched and only absorbs mass, matching its infinite-mass
// role everywhere else.
//
// Elastic mode: standard 2D elastic impulse for movable pairs; a movable
// body hitting a pinned one has its velocity reflected about the collision
// normal. Penetration is redistributed inversely weighted by mass, pinned
// bodies receiving none.
func ResolveCollisions(w *sim.World, p sim.StepParams) {
	type ref struct {
		b     *sim.Body
		r     float64
		alive bool
	}

	refs := make([]ref, 0, w.Len())
	for _, b := range w.Bodies() {
		if !b.Valid() {
			continue
		}
		refs = append(refs, ref{b: b, r: b.EffectiveRadius(), alive: true})
	}
	if len(refs) < 2 {
		return
	}

	for i := 0; i < len(refs); i++ {
		if !refs[i].alive {
			continue
		}
		for j := i + 1; j < len(refs); j++ {
			if !refs[j].alive || !refs[i].alive {
				continue
			}
			a, b := refs[i].b, refs[j].b
			rsum := refs[i].r + refs[j].r
			delta := b.Pos.Sub(a.Pos)
			dist2 := delta.LenSq()
			if dist2 > rsum*rsum {
				continue
			}

			if p.Collision == sim.CollideElastic {
				if resolveElastic(a, b, delta, dist2, rsum) {
					metrics.SimElasticBouncesTotal.Inc()
				}
				continue
			}

			if a.Pinned && b.Pinned {
				continue
			}

			surv, gone := a, b
			goneIdx := j
			if b.Pinned || (!a.Pinned && b.Mass > a.Mass) {
				surv, gone = b, a
				goneIdx = i
			}
			mergeInto(surv, gone)
			metrics.SimMergesTotal.Inc()
			w.Remove(gone.ID)
			refs[goneIdx].alive = false
			if goneIdx == i {
				refs[j].r = surv.Radius
			} else {
				refs[i].r = surv.Radius
			}
		}
	}
}

// mergeInto folds gone into surv. For a movable survivor mass, momentum
// and the mass-weighted position are combined; a pinned survivor only
// gains mass so its position/velocity stay bit-identical.
func mergeInto(surv, gone *sim.Body) {
	total := surv.Mass + gone.Mass
	if !surv.Pinned {
		surv.Vel = surv.Vel.Scale(surv.Mass).Add(gone.Vel.Scale(gone.Mass)).Scale(1 / total)
		surv.Pos = surv.Pos.Scale(surv.Mass).Add(gone.Pos.Scale(gone.Mass)).Scale(1 / total)
	}
	surv.Mass = total
	surv.Acc = vec.V2{}
	surv.PrevAcc = vec.V2{}
	surv.Radius = sim.RadiusFromMass(total)
}

func resolveElastic(a, b *sim.Body, delta vec.V2, dist2, rsum float64) bool {
	if a.Pinned && b.Pinned {
		return false
	}

	dist := math.Sqrt(math.Max(dist2, 1e-20))
	nrm := vec.V2{X: 1, Y: 0}
	if dist > 0 {
		nrm = delta.Scale(1 / dist)
	}

	m1, m2 := a.Mass, b.Mass
	v1, v2 := a.Vel, b.Vel

	switch {
	case !a.Pinned && !b.Pinned:
		x1mx2 := a.Pos.Sub(b.Pos)
		l2 := math.Max(1e-20, x1mx2.LenSq())
		f1 := (2 * m2 / (m1 + m2)) * v1.Sub(v2).Dot(x1mx2) / l2
		f2 := (2 * m1 / (m1 + m2)) * v2.Sub(v1).Dot(x1mx2.Scale(-1)) / l2
		a.Vel = v1.Sub(x1mx2.Scale(f1))
		b.Vel = v2.Sub(x1mx2.Scale(-f2))
	case a.Pinned:
		vn := v2.Dot(nrm)
		b.Vel = v2.Sub(nrm.Scale(2 * vn))
	default:
		vn := v1.Dot(nrm)
		a.Vel = v1.Sub(nrm.Scale(2 * vn))
	}

	// Positional correction: split the penetration inversely by mass so
	// the heavier body moves less; pinned bodies don't move at all.
	pen := rsum - dist
	if pen <= 0 {
		return true
	}
	var total float64
	if !a.Pinned {
		total += m1
	}
	if !b.Pinned {
		total += m2
	}
	if total == 0 {
		return true
	}
	if !a.Pinned {
		wA := m2 / total
		if b.Pinned {
			wA = 1
		}
		a.Pos = a.Pos.Sub(nrm.Scale(pen * wA))
	}
	if !b.Pinned {
		wB := m1 / total
		if a.Pinned {
			wB = 1
		}
		b.Pos = b.Pos.Add(nrm.Scale(pen * wB))
	}
	return true
}
