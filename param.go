// Package sst implements a Stable Sparse RRT search engine: a kinodynamic
// motion planner core that grows a sparse propagation tree from a start
// state toward a goal predicate, using witness-based pruning to bound tree
// size, an optional motion-primitive library to accelerate convergence,
// and a cross-entropy importance-sampling layer that reshapes the seed
// sampler from previously found feasible trajectories.
package sst

// Capabilities is the set of behaviours the engine needs from a concrete
// dynamical system. S is the full state space, U the control space, C the
// (typically lower-dimensional) configuration space used for goal tests
// and collision queries. An implementation supplies these as plain
// methods; the engine never inspects S, U, or C beyond what this
// interface exposes.
type Capabilities[S, U, C any] interface {
	// Dynamics advances state s under control u for duration dt.
	Dynamics(s S, u U, dt float64) S
	// Project maps a state down into configuration space.
	Project(s S) C
	// StateMetric is a distance in state space; used for witness/NN
	// comparisons. Must be a genuine metric (symmetric, non-negative,
	// zero iff equal) for the invariants in spec §8 to hold.
	StateMetric(a, b S) float64
	// ConfigMetric is a distance in configuration space; used for goal
	// tests and motion-primitive cost thresholds.
	ConfigMetric(a, b C) float64
	// Add combines two states, e.g. for motion-primitive displacements.
	Add(a, b S) S
	// Scale multiplies a state by a scalar.
	Scale(s S, k float64) S
	// SampleState draws an unbiased seed from the full state space.
	SampleState() S
	// SampleControl draws a control input for a propagation of duration dt.
	SampleControl(dt float64) U
	// StopCondition reports whether state s (with configuration c) counts
	// as having reached goal.
	StopCondition(s S, c C, goal S) bool
	// GenerateGoal draws a goal state, used only when the caller wants a
	// randomized goal rather than a fixed one.
	GenerateGoal() S
	// ToSlice exposes the per-dimension numeric view of a state, needed
	// by the mixture layer to build and sample Gaussian components.
	ToSlice(s S) []float64
	// FromSlice is the inverse of ToSlice.
	FromSlice(v []float64) S
}

// PrimitiveTransformer is an optional capability: implementations that
// also satisfy this interface let the motion-primitive library compare
// motions recorded from different start states by mapping them into (and
// back out of) a canonical frame. Checked with a type assertion against
// the Capabilities value at NewEngine time; if absent, primitive reuse is
// disabled regardless of Options.MotionPrimitives.
type PrimitiveTransformer[S any] interface {
	Transform(s S) S
	TransformInv(s S) S
}

// Param bundles the problem instance: start/goal states and the tunables
// that are not strategy selection (those live in Options).
type Param[S any] struct {
	StatesInit      S
	StatesGoal      S
	IterationsBound int
	SimDelta        float64
}

// TreeParams bundles the geometric tunables of the propagation tree and
// its Monte-Carlo propagation range.
type TreeParams struct {
	DeltaV    float64 // vicinity radius for best-node lookup
	DeltaS    float64 // witness radius
	PropLow   float64 // lower bound of the [0,1] propagation-duration fraction
	PropHigh  float64 // upper bound of the [0,1] propagation-duration fraction
}

// Validate checks the degenerate-input conditions named in spec §7.
func (p TreeParams) Validate() error {
	if p.PropLow <= 0 || p.PropHigh < p.PropLow || p.PropHigh > 1 {
		return ErrDegenerateInput("invalid propagation range [%v, %v]", p.PropLow, p.PropHigh)
	}
	if p.DeltaV <= 0 || p.DeltaS <= 0 {
		return ErrDegenerateInput("delta_v and delta_s must be positive, got %v, %v", p.DeltaV, p.DeltaS)
	}
	return nil
}
