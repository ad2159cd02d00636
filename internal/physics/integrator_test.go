package physics

import (
	"math"
	"testing"

	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

func TestSubstepCount(t *testing.T) {
	tests := []struct {
		name       string
		dtEff      float64
		maxSubstep float64
		maxPer     int
		want       int
	}{
		{"under cap", 0.005, 0.01, 8, 1},
		{"exactly cap", 0.01, 0.01, 8, 1},
		{"split in two", 0.02, 0.01, 8, 2},
		{"ceil rounds up", 0.025, 0.01, 8, 3},
		{"clamped by frame cap", 1.0, 0.01, 8, 8},
		{"no substep limit", 1.0, 0, 8, 1},
		{"frame cap disabled", 0.05, 0.01, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SubstepCount(tt.dtEff, tt.maxSubstep, tt.maxPer); got != tt.want {
				t.Errorf("SubstepCount(%g, %g, %d) = %d, want %d", tt.dtEff, tt.maxSubstep, tt.maxPer, got, tt.want)
			}
		})
	}
}

func TestEulerSingleStep(t *testing.T) {
	// One Semi-Implicit Euler step against the closed form:
	// v' = v + a*dt, p' = p + v'*dt.
	w := sim.NewWorld()
	a := w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Mass: 1})
	b := w.Add(sim.Body{Pos: vec.V2{X: 2, Y: 0}, Mass: 4})

	p := testParams()
	p.Integrator = sim.SemiImplicitEuler
	p.DT = 0.01
	p.MaxSubstep = 0.01

	Step(w, p)

	// a_1 = G*4/4 = 1 toward +x.
	wantVel := 1.0 * 0.01
	wantPos := wantVel * 0.01
	ba := w.Get(a)
	if math.Abs(ba.Vel.X-wantVel) > 1e-12 {
		t.Errorf("vel.X = %g, want %g", ba.Vel.X, wantVel)
	}
	if math.Abs(ba.Pos.X-wantPos) > 1e-12 {
		t.Errorf("pos.X = %g, want %g", ba.Pos.X, wantPos)
	}
	_ = b
}

func TestVerletSingleStep(t *testing.T) {
	// One Velocity Verlet step: p' = p + v*dt + 0.5*a*dt^2,
	// v' = v + 0.5*(a + a')*dt with a' evaluated at p'.
	w := sim.NewWorld()
	id := w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Mass: 1})
	w.Add(sim.Body{Pos: vec.V2{X: 2, Y: 0}, Mass: 4, Pinned: true})

	p := testParams()
	p.Integrator = sim.VelocityVerlet
	p.DT = 0.01
	p.MaxSubstep = 0.01

	dt := 0.01
	a0 := 4.0 / 4.0 // G*m2/r^2 at r=2
	wantPos := 0.5 * a0 * dt * dt
	r1 := 2.0 - wantPos
	a1 := 4.0 / (r1 * r1)
	wantVel := 0.5 * (a0 + a1) * dt

	Step(w, p)

	b := w.Get(id)
	if math.Abs(b.Pos.X-wantPos) > 1e-12 {
		t.Errorf("pos.X = %g, want %g", b.Pos.X, wantPos)
	}
	if math.Abs(b.Vel.X-wantVel) > 1e-12 {
		t.Errorf("vel.X = %g, want %g", b.Vel.X, wantVel)
	}
}

func TestZeroTimeScaleFreezesMotion(t *testing.T) {
	w := sim.NewWorld()
	id := w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Vel: vec.V2{X: 1, Y: 1}, Mass: 1})
	w.Add(sim.Body{Pos: vec.V2{X: 5, Y: 0}, Mass: 10})

	p := testParams()
	p.TimeScale = 0
	Step(w, p)

	b := w.Get(id)
	if b.Pos != (vec.V2{X: 0, Y: 0}) || b.Vel != (vec.V2{X: 1, Y: 1}) {
		t.Error("zero time scale must not advance state")
	}
	if b.Acc == (vec.V2{}) {
		t.Error("accelerations should still be refreshed for force display")
	}
}

func TestNegativeTimeScaleClampsToZero(t *testing.T) {
	w := sim.NewWorld()
	id := w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Mass: 1})
	w.Add(sim.Body{Pos: vec.V2{X: 5, Y: 0}, Mass: 10})

	p := testParams()
	p.TimeScale = -2
	Step(w, p)

	if w.Get(id).Pos != (vec.V2{}) {
		t.Error("negative time scale must behave as paused, not rewind")
	}
}

func TestVelocityCapIsHardClamp(t *testing.T) {
	w := sim.NewWorld()
	// Explicit tiny radii keep the pair out of collision range; this test
	// is about the cap, not the resolver.
	id := w.Add(sim.Body{Pos: vec.V2{X: 0, Y: 0}, Mass: 1, Radius: 0.001})
	w.Add(sim.Body{Pos: vec.V2{X: 0.01, Y: 0}, Mass: 1e6, Pinned: true, Radius: 0.001})

	p := testParams()
	p.Integrator = sim.SemiImplicitEuler
	p.MaxSpeed = 0.5
	p.Softening = 0 // enormous acceleration at this range

	Step(w, p)

	v := w.Get(id).Vel.Len()
	if math.Abs(v-0.5) > 1e-12 {
		t.Errorf("speed = %g, want exactly the cap 0.5", v)
	}
}

func TestPinnedInvariance(t *testing.T) {
	// A pinned body's position and velocity must be bit-identical after
	// any number of steps, whatever happens around it.
	w := sim.NewWorld()
	pinned := w.Add(sim.Body{
		Pos:    vec.V2{X: 0.123456789, Y: -0.987654321},
		Vel:    vec.V2{X: 1.5, Y: -2.5},
		Mass:   1000,
		Pinned: true,
	})
	w.Add(sim.Body{Pos: vec.V2{X: 10, Y: 0}, Vel: vec.V2{X: 0, Y: 3}, Mass: 1})
	w.Add(sim.Body{Pos: vec.V2{X: -8, Y: 4}, Vel: vec.V2{X: 1, Y: 0}, Mass: 2})

	before := *w.Get(pinned)

	for _, integ := range []sim.Integrator{sim.SemiImplicitEuler, sim.VelocityVerlet} {
		p := testParams()
		p.Integrator = integ
		for i := 0; i < 500; i++ {
			Step(w, p)
		}
	}

	after := w.Get(pinned)
	if after.Pos != before.Pos {
		t.Errorf("pinned position changed: %v -> %v", before.Pos, after.Pos)
	}
	if after.Vel != before.Vel {
		t.Errorf("pinned velocity changed: %v -> %v", before.Vel, after.Vel)
	}
}

func TestSubstepSplittingMatchesManualSubsteps(t *testing.T) {
	// One step with dt split into 4 substeps must equal 4 steps of dt/4.
	mk := func() *sim.World {
		w := sim.NewWorld()
		w.Add(sim.Body{Pos: vec.V2{X: -0.5, Y: 0}, Vel: vec.V2{X: 0, Y: 0.5}, Mass: 1})
		w.Add(sim.Body{Pos: vec.V2{X: 0.5, Y: 0}, Vel: vec.V2{X: 0, Y: -0.5}, Mass: 1})
		return w
	}

	split := mk()
	p := testParams()
	p.DT = 4e-3
	p.MaxSubstep = 1e-3
	p.MaxSubstepsPerFrame = 8
	Step(split, p)

	manual := mk()
	p2 := testParams()
	p2.DT = 1e-3
	p2.MaxSubstep = 1e-3
	for i := 0; i < 4; i++ {
		Step(manual, p2)
	}

	for i, sb := range split.Bodies() {
		mb := manual.Bodies()[i]
		if sb.Pos.Sub(mb.Pos).Len() > 1e-12 {
			t.Errorf("body %d position diverged: %v vs %v", i, sb.Pos, mb.Pos)
		}
		if sb.Vel.Sub(mb.Vel).Len() > 1e-12 {
			t.Errorf("body %d velocity diverged: %v vs %v", i, sb.Vel, mb.Vel)
		}
	}
}
