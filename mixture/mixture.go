// Package mixture implements the cross-entropy importance-sampling layer:
// a Gaussian mixture over elite feasible trajectories that reshapes the
// engine's seed sampler, and the importance-sample buffer that rebuilds
// the mixture once enough feasible trajectories have accumulated.
// Grounded on the reference Gaussian/SST::save_feasible_trajectory_state_space/
// generate_sampling_mixture_prob/sample_ss_from_mixture_model.
package mixture

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian is one mixture component: a mean state, a vicinity radius
// (the reference's sigma, initialised to the witness radius delta_s),
// and how many samples have informed its mean.
type Gaussian[S any] struct {
	Mu           S
	VicinityDist float64
	CountSamples int
}

// Codec lets the mixture operate on a state's numeric dimensions without
// knowing the concrete type S.
type Codec[S any] struct {
	ToSlice   func(S) []float64
	FromSlice func([]float64) S
}

// Mixture is zero or more Gaussian components plus a discrete
// probability over them. The zero value (no components) is valid and
// means "sample from the caller's unbiased state sampler instead".
type Mixture[S any] struct {
	Components []Gaussian[S]
	Prob       []float64 // parallel to Components, sums to 1
}

// Empty reports whether the mixture has no components, i.e. the seed
// sampler should fall back to Capabilities.SampleState.
func (m *Mixture[S]) Empty() bool {
	return m == nil || len(m.Components) == 0
}

// Sample draws a seed state: a component is picked by the discrete
// probability, then each dimension is drawn independently from
// Normal(mu_i, 2*vicinity_dist), matching spec §4.4 step 1.
func (m *Mixture[S]) Sample(codec Codec[S], rng *rand.Rand) S {
	comp := m.pickComponent(rng)
	mu := codec.ToSlice(comp.Mu)
	out := make([]float64, len(mu))
	for i, mui := range mu {
		n := distuv.Normal{Mu: mui, Sigma: 2 * comp.VicinityDist, Src: rngSource{rng}}
		out[i] = n.Rand()
	}
	return codec.FromSlice(out)
}

func (m *Mixture[S]) pickComponent(rng *rand.Rand) Gaussian[S] {
	r := rng.Float64()
	var cum float64
	for i, p := range m.Prob {
		cum += p
		if r <= cum {
			return m.Components[i]
		}
	}
	return m.Components[len(m.Components)-1]
}

// rngSource adapts *rand.Rand to gonum's rand.Source interface so the
// engine's single seedable generator (spec §9, "RNG discipline") is the
// only entropy source anywhere in the mixture layer.
type rngSource struct {
	rng *rand.Rand
}

func (s rngSource) Uint64() uint64 {
	return s.rng.Uint64()
}

// Entry is one feasible trajectory found during search, recorded with
// its cost at the goal node.
type Entry[S any] struct {
	Fitness    float64
	Trajectory []S
}

// Buffer accumulates feasible trajectories and rebuilds the mixture once
// it holds at least minEntries (spec §4.5: 20).
type Buffer[S any] struct {
	entries    []Entry[S]
	gamma      float64
	deltaSOrig float64
	minEntries int
	codec      Codec[S]
}

// NewBuffer creates an empty buffer. gamma starts at +Inf, matching the
// reference's initial acceptance threshold.
func NewBuffer[S any](deltaSOrig float64, codec Codec[S]) *Buffer[S] {
	return &Buffer[S]{
		gamma:      math.Inf(1),
		deltaSOrig: deltaSOrig,
		minEntries: 20,
		codec:      codec,
	}
}

// Gamma returns the current acceptance threshold.
func (b *Buffer[S]) Gamma() float64 {
	return b.gamma
}

// Add appends a newly found feasible trajectory. If the buffer has
// accumulated enough entries, it rebuilds and returns a fresh mixture;
// otherwise it returns nil.
//
// When the mixture was previously empty (first feasible trajectory ever
// found), the reference bootstraps one Gaussian per state of that single
// trajectory immediately rather than waiting for minEntries, since there
// is nothing to reshape from yet.
func (b *Buffer[S]) Add(entry Entry[S], current *Mixture[S]) *Mixture[S] {
	b.entries = append(b.entries, entry)

	if current.Empty() {
		return b.bootstrap(entry)
	}

	if len(b.entries) < b.minEntries {
		return nil
	}
	return b.rebuild()
}

func (b *Buffer[S]) bootstrap(entry Entry[S]) *Mixture[S] {
	m := &Mixture[S]{}
	for _, s := range entry.Trajectory {
		m.Components = append(m.Components, Gaussian[S]{Mu: s, VicinityDist: b.deltaSOrig, CountSamples: 1})
	}
	m.Prob = uniform(len(m.Components))
	return m
}

// rebuild implements spec §4.5 steps 1-6 / the reference
// save_feasible_trajectory_state_space rebuild path.
func (b *Buffer[S]) rebuild() *Mixture[S] {
	filtered := make([]Entry[S], 0, len(b.entries))
	for _, e := range b.entries {
		if e.Fitness < b.gamma {
			filtered = append(filtered, e)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Fitness > filtered[j].Fitness })

	idxSel := int(0.1 * float64(len(filtered)))

	// Open question (a) from the reference: when idxSel >= len(filtered)
	// (too few filtered entries), this is an intentional no-op that
	// holds gamma steady rather than falling through to the worst of
	// the filtered set.
	if idxSel >= len(filtered) {
		b.entries = nil
		return nil
	}

	newGamma := filtered[idxSel].Fitness
	elite := filtered[idxSel+1:]
	oldGamma := b.gamma
	b.gamma = newGamma

	m := &Mixture[S]{}
	var pooled [][]float64
	for _, e := range elite {
		for _, s := range e.Trajectory {
			pooled = append(pooled, b.codec.ToSlice(s))
		}
	}
	for _, e := range elite {
		for _, s := range e.Trajectory {
			mu := s
			g := Gaussian[S]{Mu: mu, VicinityDist: b.deltaSOrig, CountSamples: 1}
			g = updateParams(g, pooled, b.codec)
			m.Components = append(m.Components, g)
		}
	}
	m.Prob = uniform(len(m.Components))

	_ = oldGamma // convergence marker ("no quality improvement") is the caller's responsibility via GammaConverged
	b.entries = nil
	return m
}

// GammaConverged reports whether the most recent rebuild moved gamma by
// less than 1e-3, matching the reference's "no quality improvement"
// advisory log condition.
func GammaConverged(oldGamma, newGamma float64) bool {
	return math.Abs(newGamma-oldGamma) < 1e-3
}

// updateParams recomputes a component's mean as 0.9*mu + 0.1*mean(pooled
// samples within 2*vicinity_dist of mu), the reference Gaussian's
// exponential moving average update.
func updateParams[S any](g Gaussian[S], pooled [][]float64, codec Codec[S]) Gaussian[S] {
	muSlice := codec.ToSlice(g.Mu)
	var within [][]float64
	for _, p := range pooled {
		if l2Dist(muSlice, p) <= g.VicinityDist*2 {
			within = append(within, p)
		}
	}
	if len(within) == 0 {
		return g
	}
	mean := make([]float64, len(muSlice))
	for _, p := range within {
		for i, v := range p {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(within))
	}
	newMu := make([]float64, len(muSlice))
	for i := range newMu {
		newMu[i] = 0.9*muSlice[i] + 0.1*mean[i]
	}
	g.Mu = codec.FromSlice(newMu)
	g.CountSamples = len(within)
	return g
}

func l2Dist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// uniform builds a discrete probability vector split evenly across n
// components. The reference comments out a count_samples-weighted
// alternative (Open question (b)); this module follows the live code
// path, which is uniform.
func uniform(n int) []float64 {
	if n == 0 {
		return nil
	}
	p := make([]float64, n)
	for i := range p {
		p[i] = 1.0 / float64(n)
	}
	return p
}
