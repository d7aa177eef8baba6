package sst

import (
	"context"

	"github.com/kinoplan/sst/mixture"
	"github.com/kinoplan/sst/primitive"
)

// EdgeSnapshot is a value-copy view of one tree edge, safe to read after
// Planner.PlanIteration returns since it holds no references into the
// engine's live state (spec §5, "snapshots are value copies").
type EdgeSnapshot[S, U any] struct {
	ParentID, ChildID int
	ParentState       S
	ChildState        S
	Control           U
	Kind              EdgeKind
}

// WitnessPair is one witness/representative binding.
type WitnessPair[S any] struct {
	WitnessID  int
	Witness    S
	Repr       int
	ReprExists bool
}

// Planner is the facade driving an Engine across many iterations and
// exposing snapshot accessors for visualization or inspection. Grounded
// on the reference PlannerBasic's plan_iteration/get_trajectories/
// get_witness_pairs/get_sampling_distr split, and on the teacher's
// plan()/rrtBackgroundRunner facade separation between "drive the
// search" and "report what the search found so far".
type Planner[S, U, C any] struct {
	engine *Engine[S, U, C]
}

// NewPlanner wraps an already-constructed Engine.
func NewPlanner[S, U, C any](engine *Engine[S, U, C]) *Planner[S, U, C] {
	return &Planner[S, U, C]{engine: engine}
}

// PlanIteration runs up to batch iterations (or until the engine reports
// it is finished), returning whether any iteration performed work, per
// spec §4.6's plan_iteration(Option<batch>) -> changed:bool.
func (p *Planner[S, U, C]) PlanIteration(ctx context.Context, batch int) (bool, error) {
	if batch <= 0 {
		batch = 1
	}
	changed := false
	for i := 0; i < batch; i++ {
		before := p.engine.stats.IterExec
		didWork, err := p.engine.Iterate(ctx)
		if err != nil {
			return changed, err
		}
		// The iteration that reaches the goal executes (and admits a node)
		// but Iterate reports false for it, since the run is then finished.
		if didWork || p.engine.stats.IterExec > before {
			changed = true
		}
		if _, reached := p.engine.Reached(); reached {
			break
		}
		if !didWork {
			break
		}
	}
	return changed, nil
}

// GetParam returns the problem instance and tree parameters the engine
// was constructed with.
func (p *Planner[S, U, C]) GetParam() (Param[S], TreeParams) {
	return p.engine.param, p.engine.tp
}

// GetStatesCurrent returns every active node's state, mirroring the
// reference Planner trait's get_states_current.
func (p *Planner[S, U, C]) GetStatesCurrent() []S {
	ids := p.engine.tree.ActiveIDs()
	out := make([]S, 0, len(ids))
	for _, id := range ids {
		n, ok := p.engine.tree.Node(id)
		if ok {
			out = append(out, n.State)
		}
	}
	return out
}

// GetTrajectoriesEdges returns every live edge in the tree (spec §4.6,
// "all edges with kind").
func (p *Planner[S, U, C]) GetTrajectoriesEdges() []EdgeSnapshot[S, U] {
	edges := p.engine.tree.AllEdges()
	out := make([]EdgeSnapshot[S, U], 0, len(edges))
	for key, e := range edges {
		parent, okP := p.engine.tree.Node(key.Parent)
		child, okC := p.engine.tree.Node(key.Child)
		if !okP || !okC {
			continue
		}
		out = append(out, EdgeSnapshot[S, U]{
			ParentID: key.Parent, ChildID: key.Child,
			ParentState: parent.State, ChildState: child.State,
			Control: e.Control, Kind: e.Kind,
		})
	}
	return out
}

// GetTrajectoryBestEdges returns the root-to-goal edge sequence, if a
// goal has been reached, mirroring get_trajectory_best_edges.
func (p *Planner[S, U, C]) GetTrajectoryBestEdges() ([]EdgeSnapshot[S, U], bool) {
	goalID, ok := p.engine.Reached()
	if !ok {
		return nil, false
	}
	path := p.engine.tree.PathToRoot(goalID)
	out := make([]EdgeSnapshot[S, U], 0, len(path))
	for i := 1; i < len(path); i++ {
		parentID, childID := path[i-1], path[i]
		e, ok := p.engine.tree.Edge(parentID, childID)
		if !ok {
			continue
		}
		parent, _ := p.engine.tree.Node(parentID)
		child, _ := p.engine.tree.Node(childID)
		out = append(out, EdgeSnapshot[S, U]{
			ParentID: parentID, ChildID: childID,
			ParentState: parent.State, ChildState: child.State,
			Control: e.Control, Kind: e.Kind,
		})
	}
	return out, true
}

// GetWitnessPairs returns every witness and its current representative,
// if any, mirroring get_witness_pairs.
func (p *Planner[S, U, C]) GetWitnessPairs() []WitnessPair[S] {
	out := make([]WitnessPair[S], 0, len(p.engine.witnessStates))
	for id, s := range p.engine.witnessStates {
		repr, ok := p.engine.witnessRepr[id]
		out = append(out, WitnessPair[S]{WitnessID: id, Witness: s, Repr: repr, ReprExists: ok})
	}
	return out
}

// GetTrajectoriesMoPrimCandidates returns the candidates considered by
// the most recent motion-primitive attempt, mirroring
// get_trajectories_mo_prim_candidates.
func (p *Planner[S, U, C]) GetTrajectoriesMoPrimCandidates() []primitive.Candidate[S, U] {
	return p.engine.lastPrimCandidates
}

// GetSamplingDistr returns the mixture's current component means
// projected to configuration space, plus its discrete probability,
// mirroring get_sampling_distr.
func (p *Planner[S, U, C]) GetSamplingDistr() ([]C, []float64) {
	if p.engine.mix.Empty() {
		return nil, nil
	}
	means := make([]C, len(p.engine.mix.Components))
	for i, comp := range p.engine.mix.Components {
		means[i] = p.engine.caps.Project(comp.Mu)
	}
	return means, p.engine.mix.Prob
}

// Reset clears the importance-sample buffer and mixture, mirroring
// plan_init_imp_samp's reset() call. The propagation tree itself is left
// untouched; Reset only affects the cross-entropy layer.
func (p *Planner[S, U, C]) Reset() {
	p.engine.mix = nil
	p.engine.buf = mixture.NewBuffer[S](p.engine.tp.DeltaS, mixture.Codec[S]{
		ToSlice:   p.engine.caps.ToSlice,
		FromSlice: p.engine.caps.FromSlice,
	})
}
