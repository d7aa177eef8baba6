// Package primitive implements the motion-primitive library: a bounded
// set of previously observed (start, end, control, duration) motions that
// the search engine can reuse to shortcut toward a target under
// compatible dynamics, instead of resampling a fresh Monte-Carlo control.
// Grounded on the reference MoPrim/Motion type (capacity, probabilistic
// replacement, query_motion filtered by a displacement cost threshold)
// and on the teacher's PTG canonical-frame idiom in ptgSideS.go, where
// motions are compared by transforming them into a frame anchored at
// their own start state rather than the global frame.
package primitive

import "math/rand"

// Motion is a single recorded propagation.
type Motion[S, U any] struct {
	Start   S
	End     S
	Control U
	Dt      float64
	Cost    float64
}

// Transformer maps a state into (and back out of) the canonical frame
// motions are compared in, matching the PTG Transform/TransformInv
// idiom: a motion recorded from start A is comparable to a query from
// start B once both are expressed relative to their own start.
type Transformer[S any] interface {
	Transform(s S) S
	TransformInv(s S) S
}

// Library stores up to Capacity motions and answers nearest-displacement
// queries against them.
type Library[S, U any] struct {
	Capacity int

	xform  Transformer[S]
	metric func(a, b S) float64
	add    func(a, b S) S
	scale  func(s S, k float64) S
	rng    *rand.Rand

	motions []Motion[S, U]
}

// NewLibrary builds an empty library. metric, add, and scale come from
// the engine's Capabilities (StateMetric, Add, Scale); xform comes from
// the optional PrimitiveTransformer capability.
func NewLibrary[S, U any](
	capacity int,
	xform Transformer[S],
	metric func(a, b S) float64,
	add func(a, b S) S,
	scale func(s S, k float64) S,
	rng *rand.Rand,
) *Library[S, U] {
	return &Library[S, U]{
		Capacity: capacity,
		xform:    xform,
		metric:   metric,
		add:      add,
		scale:    scale,
		rng:      rng,
	}
}

// Len reports how many motions are currently stored.
func (l *Library[S, U]) Len() int {
	return len(l.motions)
}

// displacement returns end - start via Add/Scale, since Capabilities has
// no direct subtraction.
func (l *Library[S, U]) displacement(start, end S) S {
	return l.add(end, l.scale(start, -1))
}

// AddMotion records a motion regardless of whether its propagation
// collided, since the shape of the motion is reusable knowledge even
// when this particular instance was rejected (spec §4.4 step 5). Below
// capacity it always appends; at capacity it replaces a uniformly random
// existing slot, matching the reference's probabilistic replacement.
func (l *Library[S, U]) AddMotion(start, end S, u U, dt, cost float64) {
	m := Motion[S, U]{Start: start, End: end, Control: u, Dt: dt, Cost: cost}
	if len(l.motions) < l.Capacity {
		l.motions = append(l.motions, m)
		return
	}
	if l.Capacity == 0 {
		return
	}
	slot := l.rng.Intn(l.Capacity)
	l.motions[slot] = m
}

// Candidate is one query_motion result: the stored motion plus its
// displacement distance from the query's required displacement.
type Candidate[S, U any] struct {
	Motion[S, U]
	DisplacementDist float64
}

// QueryMotion returns every stored motion whose transform-invariant
// displacement is within costThreshold of the displacement required to
// get from `from` to `target`, sorted by increasing displacement
// distance. The engine is responsible for collision-checking and
// goal-progress filtering on the results; this library only knows about
// displacement similarity.
func (l *Library[S, U]) QueryMotion(from, target S, costThreshold float64) []Candidate[S, U] {
	required := l.displacement(from, target)
	if l.xform != nil {
		required = l.xform.Transform(required)
	}

	var out []Candidate[S, U]
	for _, m := range l.motions {
		disp := l.displacement(m.Start, m.End)
		if l.xform != nil {
			disp = l.xform.Transform(disp)
		}
		d := l.metric(required, disp)
		if d <= costThreshold {
			out = append(out, Candidate[S, U]{Motion: m, DisplacementDist: d})
		}
	}
	insertionSortByDist(out)
	return out
}

func insertionSortByDist[S, U any](c []Candidate[S, U]) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].DisplacementDist < c[j-1].DisplacementDist; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
