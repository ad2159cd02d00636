package physics

import (
	"math"
	"testing"

	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

func testParams() sim.StepParams {
	p := sim.DefaultStepParams()
	p.G = 1
	p.Softening = 0
	p.DT = 1e-3
	p.MaxSubstep = 1e-3
	p.TimeScale = 1
	return p
}

func TestComputeAccelerationsTwoBodies(t *testing.T) {
	w := sim.NewWorld()
	w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Mass: 1})
	w.Add(sim.Body{Pos: vec.V2{X: 2, Y: 0}, Mass: 4})

	p := testParams()
	ComputeAccelerations(w, p)

	bodies := w.Bodies()
	// a1 = G*m2/r^2 toward +x, a2 = G*m1/r^2 toward -x.
	if math.Abs(bodies[0].Acc.X-1.0) > 1e-12 || math.Abs(bodies[0].Acc.Y) > 1e-12 {
		t.Errorf("body 0 acc = %v, want (1,0)", bodies[0].Acc)
	}
	if math.Abs(bodies[1].Acc.X+0.25) > 1e-12 || math.Abs(bodies[1].Acc.Y) > 1e-12 {
		t.Errorf("body 1 acc = %v, want (-0.25,0)", bodies[1].Acc)
	}
}

func TestComputeAccelerationsDoesNotAdvance(t *testing.T) {
	w := sim.NewWorld()
	id := w.Add(sim.Body{Pos: vec.V2{X: 1, Y: 2}, Vel: vec.V2{X: 3, Y: 4}, Mass: 1})
	w.Add(sim.Body{Pos: vec.V2{X: 5, Y: 5}, Mass: 10})

	ComputeAccelerations(w, testParams())

	b := w.Get(id)
	if b.Pos != (vec.V2{X: 1, Y: 2}) || b.Vel != (vec.V2{X: 3, Y: 4}) {
		t.Error("force-only evaluation must not move bodies")
	}
	if b.Acc == (vec.V2{}) {
		t.Error("expected non-zero acceleration")
	}
}

func TestComputeAccelerationsDegenerateSets(t *testing.T) {
	p := testParams()

	// Empty world: no-op.
	w := sim.NewWorld()
	ComputeAccelerations(w, p)

	// Single body: zero acceleration.
	id := w.Add(sim.Body{Mass: 1})
	ComputeAccelerations(w, p)
	if w.Get(id).Acc != (vec.V2{}) {
		t.Errorf("single body acc = %v, want zero", w.Get(id).Acc)
	}
}

func TestInvalidBodiesExcluded(t *testing.T) {
	w := sim.NewWorld()
	a := w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Mass: 1})
	b := w.Add(sim.Body{Pos: vec.V2{X: 1, Y: 0}, Mass: 1})
	// Poisoned body between the two: must contribute and receive nothing.
	bad := w.Add(sim.Body{Pos: vec.V2{X: math.NaN(), Y: 0}, Mass: 1})
	zero := w.Add(sim.Body{Pos: vec.V2{X: 0.5, Y: 0}, Mass: 0})

	p := testParams()
	ComputeAccelerations(w, p)

	if !w.Get(a).Acc.IsFinite() || !w.Get(b).Acc.IsFinite() {
		t.Error("invalid body leaked into the force pass")
	}
	if math.Abs(w.Get(a).Acc.X-1.0) > 1e-12 {
		t.Errorf("body a acc = %v, want (1,0): zero-mass body must not contribute", w.Get(a).Acc)
	}
	if w.Get(bad).Acc != (vec.V2{}) || w.Get(zero).Acc != (vec.V2{}) {
		t.Error("invalid bodies must not receive acceleration")
	}
}

func TestPinnedExertsButNeverAccumulates(t *testing.T) {
	w := sim.NewWorld()
	pinned := w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Mass: 100, Pinned: true})
	free := w.Add(sim.Body{Pos: vec.V2{X: 10, Y: 0}, Mass: 1})

	p := testParams()
	ComputeAccelerations(w, p)

	if w.Get(pinned).Acc != (vec.V2{}) {
		t.Errorf("pinned body accumulated acceleration: %v", w.Get(pinned).Acc)
	}
	if w.Get(free).Acc.X >= 0 {
		t.Errorf("free body should be pulled toward the pinned mass, acc = %v", w.Get(free).Acc)
	}
}

func TestBarnesHutPathAgreesWithExact(t *testing.T) {
	// Same configuration evaluated under both policies must agree within
	// the opening-angle error budget.
	mk := func() *sim.World {
		w := sim.NewWorld()
		for i := 0; i < 50; i++ {
			x := float64(i%10) * 10
			y := float64(i/10) * 10
			w.Add(sim.Body{Pos: vec.V2{X: x, Y: y}, Mass: 1 + float64(i%3)})
		}
		return w
	}

	p := testParams()
	p.Softening = 0.1

	exactW := mk()
	p.BHThreshold = 1000 // force exact path
	ComputeAccelerations(exactW, p)

	treeW := mk()
	p.BHThreshold = 0 // force tree path
	p.BHTheta = 0.3
	ComputeAccelerations(treeW, p)

	for i, eb := range exactW.Bodies() {
		tb := treeW.Bodies()[i]
		if e := relErr(tb.Acc, eb.Acc); e > 0.02 {
			t.Errorf("body %d: tree acc %v vs exact %v (rel err %g)", i, tb.Acc, eb.Acc, e)
		}
	}
}

func TestPairwiseNetMomentumRate(t *testing.T) {
	// Newton's third law: sum of m*a over unpinned bodies is zero.
	w := sim.NewWorld()
	w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Mass: 2})
	w.Add(sim.Body{Pos: vec.V2{X: 3, Y: 1}, Mass: 5})
	w.Add(sim.Body{Pos: vec.V2{X: -2, Y: 4}, Mass: 1})

	ComputeAccelerations(w, testParams())

	var net vec.V2
	for _, b := range w.Bodies() {
		net = net.Add(b.Acc.Scale(b.Mass))
	}
	if net.Len() > 1e-12 {
		t.Errorf("net force %v should cancel", net)
	}
}
