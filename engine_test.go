package sst

import (
	"context"
	"testing"

	"go.viam.com/test"

	"github.com/kinoplan/sst/logging"
)

func newTestEngine(t *testing.T, opts Options) *Engine[toyState, toyState, toyState] {
	t.Helper()
	caps := newToyCaps(7)
	param := Param[toyState]{
		StatesInit:      toyState{0, 0, 0},
		StatesGoal:      toyState{1, 0, 0},
		IterationsBound: 2000,
		SimDelta:        1.0,
	}
	tp := TreeParams{DeltaV: 0.5, DeltaS: 0.1, PropLow: 0.05, PropHigh: 0.3}

	engine, err := NewEngine[toyState, toyState, toyState](caps, param, tp, opts, nil, nil, toyConfigPoint, logging.NewLogger(logging.ERROR))
	test.That(t, err, test.ShouldBeNil)
	return engine
}

// TestTrivialLineReachesGoal is scenario 1 from spec §8: an obstacle-free
// run with start (0,0,0) and goal-config (1,0,0) must yield a root-to-goal
// trajectory within the iteration bound.
func TestTrivialLineReachesGoal(t *testing.T) {
	opts := DefaultOptions()
	opts.MotionPrimitives = false // no seeded primitive library in this test
	engine := newTestEngine(t, opts)

	ctx := context.Background()
	for {
		more, err := engine.Iterate(ctx)
		test.That(t, err, test.ShouldBeNil)
		if !more {
			break
		}
	}

	goalID, reached := engine.Reached()
	test.That(t, reached, test.ShouldBeTrue)

	path := engine.tree.PathToRoot(goalID)
	test.That(t, len(path), test.ShouldBeGreaterThan, 0)
	test.That(t, path[0], test.ShouldEqual, 0)

	root, _ := engine.tree.Node(0)
	test.That(t, root.State, test.ShouldResemble, toyState{0, 0, 0})

	goalNode, _ := engine.tree.Node(goalID)
	test.That(t, euclid(goalNode.State, toyState{1, 0, 0}), test.ShouldBeLessThan, 0.05+1e-9)
}

// TestTreeIntegrity is the universal property from spec §8: every
// non-root node's parent link exists and the node appears in the
// parent's child set.
func TestTreeIntegrity(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	ctx := context.Background()
	for i := 0; i < 500; i++ {
		more, err := engine.Iterate(ctx)
		test.That(t, err, test.ShouldBeNil)
		if !more {
			break
		}
	}

	for _, id := range engine.tree.ActiveIDs() {
		if id == 0 {
			continue
		}
		parentID, ok := engine.tree.Parent(id)
		test.That(t, ok, test.ShouldBeTrue)
		parent, ok := engine.tree.Node(parentID)
		test.That(t, ok, test.ShouldBeTrue)
		_, isChild := parent.Children[id]
		test.That(t, isChild, test.ShouldBeTrue)
	}
}

// TestWitnessInvariant is the witness invariant from spec §8: every
// witness with a representative is within delta_s of it.
func TestWitnessInvariant(t *testing.T) {
	opts := DefaultOptions()
	opts.DisableWitnessDisturbance = true
	engine := newTestEngine(t, opts)
	caps := newToyCaps(0)

	ctx := context.Background()
	for i := 0; i < 500; i++ {
		more, err := engine.Iterate(ctx)
		test.That(t, err, test.ShouldBeNil)
		if !more {
			break
		}
	}

	for witnessID, s := range engine.witnessStates {
		reprID, ok := engine.witnessRepr[witnessID]
		if !ok {
			continue
		}
		reprNode, ok := engine.tree.Node(reprID)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, caps.StateMetric(s, reprNode.State), test.ShouldBeLessThanOrEqualTo, engine.tp.DeltaS+1e-9)
	}
}

// TestIterateStopsAtIterationsBound ensures the engine terminates even
// when no goal is ever reached.
func TestIterateStopsAtIterationsBound(t *testing.T) {
	caps := newToyCaps(3)
	param := Param[toyState]{
		StatesInit:      toyState{0, 0, 0},
		StatesGoal:      toyState{1000, 1000, 1000}, // unreachable within the bound
		IterationsBound: 50,
		SimDelta:        1.0,
	}
	tp := TreeParams{DeltaV: 0.5, DeltaS: 0.1, PropLow: 0.05, PropHigh: 0.3}
	engine, err := NewEngine[toyState, toyState, toyState](caps, param, tp, DefaultOptions(), nil, nil, toyConfigPoint, nil)
	test.That(t, err, test.ShouldBeNil)

	ctx := context.Background()
	iters := 0
	for {
		more, err := engine.Iterate(ctx)
		test.That(t, err, test.ShouldBeNil)
		iters++
		if !more {
			break
		}
	}
	test.That(t, iters, test.ShouldBeLessThanOrEqualTo, 51)
	_, reached := engine.Reached()
	test.That(t, reached, test.ShouldBeFalse)
}

func TestNewEngineRejectsDegenerateInputs(t *testing.T) {
	caps := newToyCaps(1)
	param := Param[toyState]{StatesInit: toyState{}, StatesGoal: toyState{1, 0, 0}, IterationsBound: 10, SimDelta: 0}
	tp := TreeParams{DeltaV: 0.5, DeltaS: 0.1, PropLow: 0.05, PropHigh: 0.3}
	_, err := NewEngine[toyState, toyState, toyState](caps, param, tp, DefaultOptions(), nil, nil, toyConfigPoint, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewEngineRejectsBadTreeParams(t *testing.T) {
	caps := newToyCaps(1)
	param := Param[toyState]{StatesInit: toyState{}, StatesGoal: toyState{1, 0, 0}, IterationsBound: 10, SimDelta: 1}
	tp := TreeParams{DeltaV: 0.5, DeltaS: 0.1, PropLow: 0.8, PropHigh: 0.3}
	_, err := NewEngine[toyState, toyState, toyState](caps, param, tp, DefaultOptions(), nil, nil, toyConfigPoint, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
