package sst

import (
	"context"
	"testing"

	"go.viam.com/test"
)

func TestPlannerPlanIterationReachesGoal(t *testing.T) {
	opts := DefaultOptions()
	opts.MotionPrimitives = false
	engine := newTestEngine(t, opts)
	planner := NewPlanner(engine)

	ctx := context.Background()
	for i := 0; i < 200; i++ {
		_, err := planner.PlanIteration(ctx, 50)
		test.That(t, err, test.ShouldBeNil)
		if _, reached := engine.Reached(); reached {
			break
		}
	}

	_, reached := engine.Reached()
	test.That(t, reached, test.ShouldBeTrue)

	edges, ok := planner.GetTrajectoryBestEdges()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(edges), test.ShouldBeGreaterThan, 0)
	test.That(t, edges[0].ParentID, test.ShouldEqual, 0)
}

func TestPlannerGetParam(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	planner := NewPlanner(engine)

	param, tp := planner.GetParam()
	test.That(t, param.IterationsBound, test.ShouldEqual, 2000)
	test.That(t, tp.DeltaS, test.ShouldEqual, 0.1)
}

func TestPlannerGetStatesCurrentIncludesRoot(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	planner := NewPlanner(engine)

	states := planner.GetStatesCurrent()
	test.That(t, len(states), test.ShouldBeGreaterThan, 0)
}

func TestPlannerGetWitnessPairsIncludesInitialWitness(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	planner := NewPlanner(engine)

	pairs := planner.GetWitnessPairs()
	test.That(t, len(pairs), test.ShouldBeGreaterThan, 0)
	test.That(t, pairs[0].ReprExists, test.ShouldBeTrue)
}

func TestPlannerResetClearsMixture(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	planner := NewPlanner(engine)
	planner.Reset()

	means, probs := planner.GetSamplingDistr()
	test.That(t, means, test.ShouldBeNil)
	test.That(t, probs, test.ShouldBeNil)
}
