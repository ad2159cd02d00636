package sim

import (
	"fmt"
	"math"
)

// Integrator selects the time-integration scheme.
type Integrator string

const (
	// SemiImplicitEuler is the cheap explicit scheme: one force evaluation
	// per substep, kick then drift.
	SemiImplicitEuler Integrator = "euler"
	// VelocityVerlet is the symplectic two-stage scheme and the preferred
	// default for long-run energy behavior.
	VelocityVerlet Integrator = "verlet"
)

// CollisionMode selects how overlapping bodies are resolved.
type CollisionMode string

const (
	// CollideMerge combines overlapping bodies into one, conserving mass
	// and momentum.
	CollideMerge CollisionMode = "merge"
	// CollideElastic applies an elastic impulse and separates the pair.
	CollideElastic CollisionMode = "elastic"
)

// StepParams is the read-only parameter block supplied to each step.
type StepParams struct {
	// G is the gravitational constant (m^3 kg^-1 s^-2).
	G float64 `json:"g"`
	// Softening is epsilon in meters; Softening^2 is added to squared
	// separations before the inverse-cube, bounding close-range force.
	Softening float64 `json:"softening"`
	// MaxSpeed hard-caps velocity magnitude after each kick. 0 = uncapped.
	// This is a stability control, not physics: it loses energy on purpose.
	MaxSpeed float64 `json:"max_speed"`

	// BHTheta is the Barnes-Hut opening angle; smaller is more accurate.
	BHTheta float64 `json:"bh_theta"`
	// BHThreshold is the live-body count above which force evaluation
	// switches from exact pairwise to the quadtree.
	BHThreshold int `json:"bh_threshold"`

	Integrator Integrator    `json:"integrator"`
	Collision  CollisionMode `json:"collision"`

	// DT is the base timestep for this step: either a fixed value or the
	// caller's frame delta. The effective step is DT * max(0, TimeScale).
	DT        float64 `json:"dt"`
	TimeScale float64 `json:"time_scale"`

	// MaxSubstep bounds the size of each integration substep; the
	// effective step is split into equal substeps no larger than this.
	MaxSubstep float64 `json:"max_substep"`
	// MaxSubstepsPerFrame caps substep count to bound CPU per step.
	MaxSubstepsPerFrame int `json:"max_substeps_per_frame"`
}

// Eps2 returns the squared softening length.
func (p StepParams) Eps2() float64 { return p.Softening * p.Softening }

// EffectiveDT returns DT scaled by the (non-negative) time scale.
func (p StepParams) EffectiveDT() float64 {
	ts := p.TimeScale
	if ts < 0 {
		ts = 0
	}
	return p.DT * ts
}

// Valid integrator / collision mode checks used by the API layer.

func (i Integrator) Valid() bool {
	return i == SemiImplicitEuler || i == VelocityVerlet
}

func (c CollisionMode) Valid() bool {
	return c == CollideMerge || c == CollideElastic
}

// Validate checks that the parameter block is usable for stepping.
func (p StepParams) Validate() error {
	if !p.Integrator.Valid() {
		return fmt.Errorf("unknown integrator %q", p.Integrator)
	}
	if !p.Collision.Valid() {
		return fmt.Errorf("unknown collision mode %q", p.Collision)
	}
	if p.DT <= 0 || math.IsNaN(p.DT) || math.IsInf(p.DT, 0) {
		return fmt.Errorf("dt must be positive and finite, got %v", p.DT)
	}
	if p.MaxSubstep <= 0 {
		return fmt.Errorf("max_substep must be positive, got %v", p.MaxSubstep)
	}
	if p.MaxSubstepsPerFrame < 1 {
		return fmt.Errorf("max_substeps_per_frame must be at least 1, got %d", p.MaxSubstepsPerFrame)
	}
	if p.BHTheta < 0 {
		return fmt.Errorf("bh_theta must be non-negative, got %v", p.BHTheta)
	}
	if p.Softening < 0 {
		return fmt.Errorf("softening must be non-negative, got %v", p.Softening)
	}
	return nil
}

// DefaultStepParams returns the built-in defaults. The config package
// overlays environment overrides on top of these.
func DefaultStepParams() StepParams {
	return StepParams{
		G:                   6.6743e-11,
		Softening:           2.0,
		MaxSpeed:            0,
		BHTheta:             0.7,
		BHThreshold:         64,
		Integrator:          VelocityVerlet,
		Collision:           CollideMerge,
		DT:                  1.0 / 120.0,
		TimeScale:           1.0,
		MaxSubstep:          1.0 / 120.0,
		MaxSubstepsPerFrame: 8,
	}
}
