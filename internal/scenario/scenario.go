// Package scenario provides built-in initial conditions for simulation sessions.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

// ErrUnknown is returned by Apply for a scenario name not in the registry.
var ErrUnknown = errors.New("unknown scenario")

// Scenario describes a named preset that populates a world.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	build       func(w *sim.World, p *sim.StepParams)
}

var registry = map[string]Scenario{
	"central-mass": {
		Name:        "central-mass",
		Description: "A heavy pinned central body with lighter bodies on circular orbits",
		build:       buildCentralMass,
	},
	"binary": {
		Name:        "binary",
		Description: "Two equal masses on a mutual circular orbit",
		build:       buildBinary,
	},
	"pinned-cluster": {
		Name:        "pinned-cluster",
		Description: "A grid of pinned anchors with free bodies drifting between them",
		build:       buildPinnedCluster,
	},
	"random-disc": {
		Name:        "random-disc",
		Description: "Randomly scattered bodies in a disc with small tangential velocities",
		build:       buildRandomDisc,
	},
}

// List returns all registered scenarios sorted by name.
func List() []Scenario {
	out := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apply resets the world and populates it with the named scenario.
// The scenario may also tune step parameters (e.g. G) to keep its
// orbits on a sensible scale.
func Apply(name string, w *sim.World, p *sim.StepParams) error {
	s, ok := registry[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	s.build(w, p)
	return nil
}

// circularSpeed returns the speed for a circular orbit of radius r
// around a central mass m.
func circularSpeed(g, m, r float64) float64 {
	return math.Sqrt(g * m / r)
}

func buildCentralMass(w *sim.World, p *sim.StepParams) {
	p.G = 1.0
	const central = 50000.0

	w.Add(sim.Body{Pos: vec.V2{}, Mass: central, Pinned: true})

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 60; i++ {
		r := 40.0 + rng.Float64()*200.0
		ang := rng.Float64() * 2 * math.Pi
		v := circularSpeed(p.G, central, r)
		w.Add(sim.Body{
			Pos:  vec.V2{X: r * math.Cos(ang), Y: r * math.Sin(ang)},
			Vel:  vec.V2{X: -v * math.Sin(ang), Y: v * math.Cos(ang)},
			Mass: 1.0 + rng.Float64()*4.0,
		})
	}
}

func buildBinary(w *sim.World, p *sim.StepParams) {
	p.G = 1.0
	const m = 1000.0
	const sep = 50.0

	// Each body orbits the barycentre: v = sqrt(G*m/(2*sep)).
	v := math.Sqrt(p.G * m / (2 * sep))

	w.Add(sim.Body{Pos: vec.V2{X: -sep / 2}, Vel: vec.V2{Y: v}, Mass: m})
	w.Add(sim.Body{Pos: vec.V2{X: sep / 2}, Vel: vec.V2{Y: -v}, Mass: m})
}

func buildPinnedCluster(w *sim.World, p *sim.StepParams) {
	p.G = 1.0
	const anchor = 5000.0

	for i := -1; i <= 1; i++ {
		for j := -1; j <= 1; j++ {
			if (i+j)%2 == 0 {
				continue
			}
			w.Add(sim.Body{
				Pos:    vec.V2{X: float64(i) * 120, Y: float64(j) * 120},
				Mass:   anchor,
				Pinned: true,
			})
		}
	}

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 40; i++ {
		w.Add(sim.Body{
			Pos: vec.V2{
				X: (rng.Float64() - 0.5) * 300,
				Y: (rng.Float64() - 0.5) * 300,
			},
			Vel: vec.V2{
				X: (rng.Float64() - 0.5) * 2,
				Y: (rng.Float64() - 0.5) * 2,
			},
			Mass: 1.0 + rng.Float64()*2.0,
		})
	}
}

func buildRandomDisc(w *sim.World, p *sim.StepParams) {
	p.G = 1.0

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		r := 20.0 + rng.Float64()*180.0
		ang := rng.Float64() * 2 * math.Pi
		// Small tangential velocity so the disc shears instead of
		// collapsing straight to the centre.
		v := 0.3 * math.Sqrt(r)
		w.Add(sim.Body{
			Pos:  vec.V2{X: r * math.Cos(ang), Y: r * math.Sin(ang)},
			Vel:  vec.V2{X: -v * math.Sin(ang), Y: v * math.Cos(ang)},
			Mass: 0.5 + rng.Float64()*3.0,
		})
	}
}
