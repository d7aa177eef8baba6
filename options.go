package sst

// Options holds the build-time feature flags named in spec §6. The
// reference implementation selects these via conditional compilation;
// here they are runtime strategy selections made once at NewEngine, per
// the redesign note in spec §9.
type Options struct {
	// MotionPrimitives enables the motion-primitive shortcut in
	// propagation selection (spec §4.4 step 3). Requires the
	// Capabilities value to also implement PrimitiveTransformer.
	MotionPrimitives bool

	// NNNaive forces brute-force nearest-neighbour scans regardless of
	// candidate count. When false, the engine uses the parallel index
	// once the candidate set crosses nnindex's parallel threshold.
	NNNaive bool

	// StatePropagateSample enables the "explore sparse regions" seed
	// selection policy of spec §4.4 step 2 (draw 10 seeds, keep the one
	// whose nearest node has the largest neighbourhood average
	// distance) roughly half the time.
	StatePropagateSample bool

	// BatchPropagateSample enables drawing up to 10 Monte-Carlo
	// propagation candidates and keeping the collision-free one with
	// the largest duration (spec §4.4 step 6).
	BatchPropagateSample bool

	// DisableWitnessDisturbance turns off the stagnation-breaking
	// heuristic of spec §4.4 ("Witness-disturbance heuristic").
	DisableWitnessDisturbance bool

	// DisablePruning skips Tree.Prune after inactivation. Nodes remain
	// in the inactive set forever; useful for tests that want to
	// inspect the full dominated history.
	DisablePruning bool

	// MoPrimThresh gates try_motion_primitive by configuration distance
	// to goal and is also the displacement threshold passed to the
	// library query (spec §4.4 step 3: 0.1/0.25/0.4 depending on feature
	// combination in the reference implementation). This engine uses this
	// single value; callers that want to mirror the reference's
	// feature-dependent selection can compute it themselves before
	// construction.
	MoPrimThresh float64

	// MoPrimMinLibrarySize gates try_motion_primitive by library
	// population (spec §4.4 step 3: "|library| >= 500").
	MoPrimMinLibrarySize int

	// MoPrimRecordProbability is the cutoff a uniform [0,1) draw must
	// exceed for a motion to be recorded into the primitive library once
	// the library is at capacity, so a motion is then recorded with
	// probability 1-MoPrimRecordProbability (spec §4.4 step 5, Rust
	// `rand>0.85`).
	MoPrimRecordProbability float64

	// RandSeed seeds the engine's single RNG (spec §9, "RNG discipline").
	RandSeed int64
}

// DefaultOptions returns the reference implementation's default feature
// selection: motion primitives and both sampling refinements on, pruning
// and witness disturbance on, naive NN off.
func DefaultOptions() Options {
	return Options{
		MotionPrimitives:        true,
		NNNaive:                 false,
		StatePropagateSample:    true,
		BatchPropagateSample:    true,
		MoPrimThresh:            0.25,
		MoPrimMinLibrarySize:    500,
		MoPrimRecordProbability: 0.85,
		RandSeed:                1,
	}
}
