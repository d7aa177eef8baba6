package sst

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

// toyState is a bare position vector in R^3, mirroring the reference's
// States3D toy type used to exercise the search engine end to end
// without any real dynamics model in scope (spec §1 names concrete
// dynamics as out of scope; this is purely test scaffolding).
type toyState [3]float64

type toyCaps struct {
	rng *rand.Rand
}

func newToyCaps(seed int64) *toyCaps {
	return &toyCaps{rng: rand.New(rand.NewSource(seed))}
}

func (c *toyCaps) Dynamics(s toyState, u toyState, dt float64) toyState {
	return toyState{s[0] + u[0]*dt, s[1] + u[1]*dt, s[2] + u[2]*dt}
}

func (c *toyCaps) Project(s toyState) toyState {
	return s
}

func (c *toyCaps) StateMetric(a, b toyState) float64 {
	return euclid(a, b)
}

func (c *toyCaps) ConfigMetric(a, b toyState) float64 {
	return euclid(a, b)
}

func (c *toyCaps) Add(a, b toyState) toyState {
	return toyState{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (c *toyCaps) Scale(s toyState, k float64) toyState {
	return toyState{s[0] * k, s[1] * k, s[2] * k}
}

func (c *toyCaps) SampleState() toyState {
	return toyState{c.rng.Float64()*2 - 0.5, c.rng.Float64()*2 - 1, c.rng.Float64()*2 - 1}
}

func (c *toyCaps) SampleControl(dt float64) toyState {
	theta := c.rng.Float64() * 2 * math.Pi
	phi := c.rng.Float64() * math.Pi
	return toyState{math.Sin(phi) * math.Cos(theta), math.Sin(phi) * math.Sin(theta), math.Cos(phi)}
}

func (c *toyCaps) StopCondition(_ toyState, cfg toyState, goal toyState) bool {
	return euclid(cfg, goal) < 0.05
}

func (c *toyCaps) GenerateGoal() toyState {
	return toyState{1, 0, 0}
}

func (c *toyCaps) ToSlice(s toyState) []float64 {
	return []float64{s[0], s[1], s[2]}
}

func (c *toyCaps) FromSlice(v []float64) toyState {
	return toyState{v[0], v[1], v[2]}
}

func (c *toyCaps) Transform(s toyState) toyState {
	return s
}

func (c *toyCaps) TransformInv(s toyState) toyState {
	return s
}

func euclid(a, b toyState) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func toyConfigPoint(c toyState) r3.Vector {
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
}
