package sst

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/golang/geo/r3"
	"go.viam.com/utils"

	"github.com/kinoplan/sst/logging"
	"github.com/kinoplan/sst/mixture"
	"github.com/kinoplan/sst/nnindex"
	"github.com/kinoplan/sst/nnindex/naive"
	"github.com/kinoplan/sst/nnindex/parallel"
	"github.com/kinoplan/sst/primitive"
)

// disturbanceWindow is the iteration window over which the
// witness-disturbance heuristic recomputes its discovery rate (spec
// §4.4, "every 200 iterations").
const disturbanceWindow = 200

// disturbanceMinIterations is how many total iterations must elapse
// before the heuristic is allowed to engage (spec §4.4, "After >= 1000
// total iterations").
const disturbanceMinIterations = 1000

// disturbanceRateThreshold is the discovery-rate cutoff below which
// disturbance mode engages (spec §4.4, "rate <= 0.1").
const disturbanceRateThreshold = 0.1

// neighbourhoodK is the neighbour count used by the "explore sparse
// regions" seed policy's NeighbourhoodAvgDist scoring.
const neighbourhoodK = 10

// batchCandidates is how many candidates the batch-propagation and
// explore-sparse-regions policies draw per iteration (spec §4.4 steps 2
// and 6, "draw 10 seeds"/"draw up to 10 candidates").
const batchCandidates = 10

// Engine is the SST search engine: one propagation tree, two nearest-
// neighbour indices (nodes and witnesses), an optional motion-primitive
// library, and the importance-sampling layer, all driven by a single
// seeded RNG per spec §9's RNG discipline note.
type Engine[S, U, C any] struct {
	caps  Capabilities[S, U, C]
	xform PrimitiveTransformer[S]
	opts  Options
	param Param[S]
	tp    TreeParams

	tree         *Tree[S, U]
	nodeIndex    nnindex.Index[S]
	witnessIndex nnindex.Index[S]

	witnessStates map[int]S
	witnessRepr   map[int]int
	nextWitness   int

	lib     *primitive.Library[S, U]
	mix     *mixture.Mixture[S]
	buf     *mixture.Buffer[S]
	goalCfg C

	rng *rand.Rand

	logger      logging.Logger
	oracle      Oracle
	narrow      func(idx int, seg Segment) (bool, error)
	configPoint func(c C) r3.Vector

	stats       Stats
	idxReached  *int
	gammaOld    float64
	disturbance bool

	windowStart      int
	windowNewWitness int

	lastPrimCandidates []primitive.Candidate[S, U]
}

// NewEngine constructs an engine over the given problem instance. oracle
// may be nil if the caller wants an obstacle-free run (every segment is
// collision-free); narrowPhase may be nil if no TriPrism obstacles are
// registered with oracle; configPoint may be nil when oracle is nil.
func NewEngine[S, U, C any](
	caps Capabilities[S, U, C],
	param Param[S],
	tp TreeParams,
	opts Options,
	oracle Oracle,
	narrowPhase func(idx int, seg Segment) (bool, error),
	configPoint func(c C) r3.Vector,
	logger logging.Logger,
) (*Engine[S, U, C], error) {
	if err := tp.Validate(); err != nil {
		return nil, err
	}
	if param.SimDelta <= 0 {
		return nil, ErrDegenerateInput("sim_delta must be positive, got %v", param.SimDelta)
	}
	if oracle != nil && configPoint == nil {
		return nil, ErrDegenerateInput("configPoint is required when an obstacle oracle is supplied")
	}
	if configPoint == nil {
		// Segments are only ever checked against a nil oracle here, which
		// reports every segment collision-free.
		configPoint = func(C) r3.Vector { return r3.Vector{} }
	}
	if logger == nil {
		logger = logging.NewLogger(logging.INFO)
	}

	metric := caps.StateMetric
	var nodeIndex, witnessIndex nnindex.Index[S]
	if opts.NNNaive {
		nodeIndex = naive.New[S](metric)
		witnessIndex = naive.New[S](metric)
	} else {
		nodeIndex = parallel.New[S](metric, 0)
		witnessIndex = parallel.New[S](metric, 0)
	}

	tree := NewTree[S, U](param.StatesInit)
	nodeIndex.Add(param.StatesInit, 0)

	xform, _ := caps.(PrimitiveTransformer[S])

	e := &Engine[S, U, C]{
		caps:          caps,
		xform:         xform,
		opts:          opts,
		param:         param,
		tp:            tp,
		tree:          tree,
		nodeIndex:     nodeIndex,
		witnessIndex:  witnessIndex,
		witnessStates: make(map[int]S),
		witnessRepr:   make(map[int]int),
		goalCfg:       caps.Project(param.StatesGoal),
		rng:           rand.New(rand.NewSource(opts.RandSeed)),
		logger:        logger,
		oracle:        oracle,
		narrow:        narrowPhase,
		configPoint:   configPoint,
		gammaOld:      math.Inf(1),
	}

	e.lib = primitive.NewLibrary[S, U](10000, xform, metric, caps.Add, caps.Scale, e.rng)
	e.buf = mixture.NewBuffer[S](tp.DeltaS, mixture.Codec[S]{ToSlice: caps.ToSlice, FromSlice: caps.FromSlice})

	witnessID := e.newWitness(param.StatesInit)
	e.witnessRepr[witnessID] = 0

	return e, nil
}

func (e *Engine[S, U, C]) newWitness(s S) int {
	id := e.nextWitness
	e.nextWitness++
	e.witnessStates[id] = s
	e.witnessIndex.Add(s, id)
	e.stats.Witnesses++
	return id
}

// Stats returns a snapshot of the engine's running counters.
func (e *Engine[S, U, C]) Stats() Stats {
	return e.stats
}

// Reached reports whether a goal node has been found, and its id.
func (e *Engine[S, U, C]) Reached() (int, bool) {
	if e.idxReached == nil {
		return 0, false
	}
	return *e.idxReached, true
}

// Gamma returns the importance-sampling layer's current acceptance
// threshold.
func (e *Engine[S, U, C]) Gamma() float64 {
	return e.buf.Gamma()
}

// seedSample implements spec §4.4 step 1.
func (e *Engine[S, U, C]) seedSample() S {
	if !e.mix.Empty() {
		codec := mixture.Codec[S]{ToSlice: e.caps.ToSlice, FromSlice: e.caps.FromSlice}
		return e.mix.Sample(codec, e.rng)
	}
	return e.caps.SampleState()
}

// bestVicinity implements spec §4.4 step 2.
func (e *Engine[S, U, C]) bestVicinity() (int, S, error) {
	if e.opts.StatePropagateSample && e.rng.Float64() < 0.5 {
		bestNode := -1
		var bestSeed S
		bestScore := math.Inf(-1)
		for i := 0; i < batchCandidates; i++ {
			seed := e.seedSample()
			nearest := e.nodeIndex.NearestK(seed, 1)
			if len(nearest) == 0 {
				return 0, bestSeed, ErrNNUnderPopulated("node index returned no nearest neighbour")
			}
			score := e.nodeIndex.NeighbourhoodAvgDist(seed, nearest[0].ID, neighbourhoodK)
			if score > bestScore {
				bestScore = score
				bestNode = nearest[0].ID
				bestSeed = seed
			}
		}
		return bestNode, bestSeed, nil
	}

	seed := e.seedSample()
	within := e.nodeIndex.NearestWithin(seed, e.tp.DeltaV)
	if len(within) > 0 {
		return within[0].ID, seed, nil
	}
	nearest := e.nodeIndex.NearestK(seed, 1)
	if len(nearest) == 0 {
		return 0, seed, ErrNNUnderPopulated("node index returned no nearest neighbour")
	}
	return nearest[0].ID, seed, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// generateMonteCarlo implements spec §4.4 step 3's Monte-Carlo fallback.
func (e *Engine[S, U, C]) generateMonteCarlo() (float64, U) {
	frac := clamp(e.rng.Float64(), e.tp.PropLow, e.tp.PropHigh)
	dt := frac * e.param.SimDelta
	u := e.caps.SampleControl(dt)
	return dt, u
}

// tryMotionPrimitive implements spec §4.4 step 3's primitive shortcut.
// The query target is the goal state itself, not the seed drawn for
// this iteration's Monte-Carlo branch: a primitive's whole purpose is
// to reuse a cached motion whose displacement resembles the
// displacement still needed to reach the goal (spec §4.4 step 3,
// "accelerate goal convergence"), matching the reference's
// try_motion_primitive_control, which queries with q_query_mo_prim set
// to states_goal. Returns ok=false when no admissible primitive
// improves on the start.
func (e *Engine[S, U, C]) tryMotionPrimitive(nState S) (dt float64, u U, sPrime S, ok bool, err error) {
	candidates := e.lib.QueryMotion(nState, e.param.StatesGoal, e.opts.MoPrimThresh)
	e.lastPrimCandidates = candidates
	if len(candidates) == 0 {
		return dt, u, sPrime, false, nil
	}

	startDist := e.caps.ConfigMetric(e.caps.Project(nState), e.goalCfg)
	bestDist := math.Inf(1)
	found := false

	startPoint := e.configPoint(e.caps.Project(nState))

	type scored struct {
		dist float64
		end  S
		u    U
		dt   float64
	}
	results := make([]*scored, len(candidates))
	errs := make([]error, len(candidates))
	var wg sync.WaitGroup
	for i, cand := range candidates {
		i, cand := i, cand
		wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			end := e.caps.Dynamics(nState, cand.Control, cand.Dt)
			seg := Segment{Start: startPoint, End: e.configPoint(e.caps.Project(end))}
			collided, err := e.collidesSeg(seg)
			if err != nil {
				errs[i] = err
				return
			}
			if collided {
				return
			}
			dist := e.caps.ConfigMetric(e.caps.Project(end), e.goalCfg)
			if dist >= startDist {
				return
			}
			results[i] = &scored{dist: dist, end: end, u: cand.Control, dt: cand.Dt}
		})
	}
	wg.Wait()
	for _, candErr := range errs {
		if candErr != nil {
			return dt, u, sPrime, false, candErr
		}
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.dist < bestDist {
			bestDist = r.dist
			sPrime = r.end
			u = r.u
			dt = r.dt
			found = true
		}
	}
	return dt, u, sPrime, found, nil
}

// segment builds the collision-query segment between two states' config
// projections, per spec §6 ("a 3D line segment built from the first
// three dimensions of the config projection").
func (e *Engine[S, U, C]) segment(from, to S) Segment {
	return Segment{Start: e.configPoint(e.caps.Project(from)), End: e.configPoint(e.caps.Project(to))}
}

func (e *Engine[S, U, C]) collidesSeg(seg Segment) (bool, error) {
	if e.oracle == nil {
		return false, nil
	}
	return collides(e.oracle, seg, e.narrow)
}

// Iterate performs a single search step, implementing spec §4.4 steps
// 1-10. It returns false once the run is finished (goal reached or
// iterations bound exhausted); the caller may stop calling Iterate at
// that point, per spec §4.4's "Termination".
func (e *Engine[S, U, C]) Iterate(ctx context.Context) (bool, error) {
	if e.idxReached != nil {
		return false, nil
	}
	if e.stats.IterExec >= e.param.IterationsBound {
		return false, nil
	}
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	e.stats.IterExec++

	nID, _, err := e.bestVicinity()
	if err != nil {
		return false, err
	}
	node, ok := e.tree.Node(nID)
	if !ok {
		return false, ErrInvariantViolation("best-vicinity returned dead node %d", nID)
	}

	var dt float64
	var u U
	var sPrime S
	kind := EdgeMonteCarlo

	if e.opts.MotionPrimitives && e.xform != nil &&
		e.lib.Len() >= e.opts.MoPrimMinLibrarySize && e.rng.Float64() < 0.5 &&
		e.caps.ConfigMetric(e.caps.Project(node.State), e.goalCfg) < e.opts.MoPrimThresh {
		var primOK bool
		dt, u, sPrime, primOK, err = e.tryMotionPrimitive(node.State)
		if err != nil {
			return false, err
		}
		if primOK {
			kind = EdgePrimitive
			e.stats.MotionPrimitives++
		}
	}

	if kind == EdgeMonteCarlo {
		if e.opts.BatchPropagateSample {
			dt, u, sPrime, err = e.batchPropagate(node.State)
			if err != nil {
				return false, err
			}
		} else {
			dt, u = e.generateMonteCarlo()
			sPrime = e.caps.Dynamics(node.State, u, dt)
		}
	}

	cPrime := e.caps.Project(sPrime)

	shouldRecord := e.lib.Len() < e.lib.Capacity || e.rng.Float64() > e.opts.MoPrimRecordProbability
	if shouldRecord {
		e.lib.AddMotion(node.State, sPrime, u, dt, dt)
	}

	witnessID, isNewWitness := e.witnessLookup(sPrime)
	if isNewWitness {
		e.windowNewWitness++
	}

	reached := e.caps.StopCondition(sPrime, cPrime, e.param.StatesGoal)

	e.updateDisturbance()

	cost := node.Cost + dt
	admittedID, admitted, err := e.admit(nID, node.State, sPrime, u, cost, kind, witnessID, reached)
	if err != nil {
		return false, err
	}

	if reached && admitted {
		e.onGoalReached(admittedID)
		return false, nil
	}

	return true, nil
}

// batchPropagate implements spec §4.4 step 6: draw up to 10 candidates,
// keep the collision-free one with the largest duration.
func (e *Engine[S, U, C]) batchPropagate(nState S) (float64, U, S, error) {
	type cand struct {
		dt  float64
		u   U
		end S
	}
	cands := make([]cand, batchCandidates)
	for i := range cands {
		dt, u := e.generateMonteCarlo()
		end := e.caps.Dynamics(nState, u, dt)
		cands[i] = cand{dt: dt, u: u, end: end}
	}

	bestDt := math.Inf(-1)
	var bestU U
	var bestEnd S
	found := false
	for _, c := range cands {
		seg := e.segment(nState, c.end)
		collided, err := e.collidesSeg(seg)
		if err != nil {
			return 0, bestU, bestEnd, err
		}
		if collided {
			continue
		}
		if c.dt > bestDt {
			bestDt = c.dt
			bestU = c.u
			bestEnd = c.end
			found = true
		}
	}
	if !found {
		// Nothing collision-free; fall back to the single last candidate
		// so the caller still has a proposal to admit/reject normally.
		last := cands[len(cands)-1]
		return last.dt, last.u, last.end, nil
	}
	return bestDt, bestU, bestEnd, nil
}

func (e *Engine[S, U, C]) witnessLookup(sPrime S) (int, bool) {
	within := e.witnessIndex.NearestWithin(sPrime, e.tp.DeltaS)
	if len(within) > 0 {
		return within[0].ID, false
	}
	return e.newWitness(sPrime), true
}

// updateDisturbance implements the witness-disturbance heuristic from
// spec §4.4.
func (e *Engine[S, U, C]) updateDisturbance() {
	if e.opts.DisableWitnessDisturbance {
		return
	}
	if e.stats.IterExec-e.windowStart < disturbanceWindow {
		return
	}
	rate := float64(e.windowNewWitness) / float64(disturbanceWindow)
	if e.stats.IterExec >= disturbanceMinIterations {
		e.disturbance = rate <= disturbanceRateThreshold
	}
	e.windowStart = e.stats.IterExec
	e.windowNewWitness = 0
}

// admit implements spec §4.4 step 9.
func (e *Engine[S, U, C]) admit(
	parentID int, parentState, sPrime S, u U, cost float64, kind EdgeKind, witnessID int, reached bool,
) (int, bool, error) {
	repr, hasRepr := e.witnessRepr[witnessID]

	attempt := !hasRepr
	if hasRepr {
		reprNode, ok := e.tree.Node(repr)
		if !ok {
			return 0, false, ErrInvariantViolation("witness %d representative %d is dead", witnessID, repr)
		}
		attempt = reprNode.Cost > cost || reached || (e.disturbance && e.rng.Float64() > 0.5)
	}

	if !attempt {
		e.stats.IterNoChange++
		return 0, false, nil
	}

	seg := e.segment(parentState, sPrime)
	collided, err := e.collidesSeg(seg)
	if err != nil {
		return 0, false, err
	}
	if collided {
		e.stats.IterCollision++
		e.stats.IterNoChange++
		return 0, false, nil
	}

	newID, err := e.tree.Insert(parentID, sPrime, u, cost, kind)
	if err != nil {
		return 0, false, err
	}
	e.nodeIndex.Add(sPrime, newID)
	e.stats.NodesTotal++

	if hasRepr {
		if err := e.tree.Inactivate(repr); err != nil {
			return 0, false, err
		}
		e.nodeIndex.Remove(repr)
		if !e.opts.DisablePruning {
			before := len(e.tree.freelist)
			e.tree.Prune(repr)
			e.stats.PrunedNodes += len(e.tree.freelist) - before
		}
	}
	e.witnessRepr[witnessID] = newID

	return newID, true, nil
}

// onGoalReached implements spec §4.4 step 10.
func (e *Engine[S, U, C]) onGoalReached(nodeID int) {
	e.idxReached = &nodeID

	path := e.tree.PathToRoot(nodeID)
	trajectory := make([]S, len(path))
	var cost float64
	for i, id := range path {
		n, _ := e.tree.Node(id)
		trajectory[i] = n.State
		cost = n.Cost
	}

	rebuilt := e.buf.Add(mixture.Entry[S]{Fitness: cost, Trajectory: trajectory}, e.mix)
	if rebuilt != nil {
		newGamma := e.buf.Gamma()
		if mixture.GammaConverged(e.gammaOld, newGamma) {
			e.logger.Infof("no quality improvement: gamma %v -> %v", e.gammaOld, newGamma)
		}
		e.gammaOld = newGamma
		e.mix = rebuilt
	}
}

// WriteStats appends the current batch's counters to sink, matching the
// reference's stat.txt line (spec §6).
func (e *Engine[S, U, C]) WriteStats(sink StatSink) error {
	return WriteStatLine(sink, e.tp.DeltaS, e.tp.DeltaV, e.stats)
}

// WriteOptimizeLog appends the current gamma to sink, matching
// optimize_log.txt (spec §6).
func (e *Engine[S, U, C]) WriteOptimizeLog(sink OptimizeLogSink) error {
	return WriteOptimizeLogLine(sink, e.buf.Gamma())
}
