// Package obstacle provides a reference brute-force collision oracle:
// a flat list of axis-aligned boxes checked by a slab-method segment
// intersection test. This is test scaffolding, not a production
// collider — spec §1 keeps concrete obstacle geometry and any real BVH
// out of the engine's scope; this package exists only so the engine's
// own test suite can exercise the Oracle interface end to end.
package obstacle

import (
	"github.com/golang/geo/r3"

	"github.com/kinoplan/sst"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max r3.Vector
}

// BruteForceOracle scans every registered box on each query. All boxes
// are tagged sst.AABBBox; a production oracle backed by a real BVH would
// additionally support sst.TriPrism obstacles requiring narrow phase.
type BruteForceOracle struct {
	Boxes []Box
}

// NewBruteForceOracle builds an oracle over the given boxes.
func NewBruteForceOracle(boxes ...Box) *BruteForceOracle {
	return &BruteForceOracle{Boxes: boxes}
}

// Query returns the indices of every box whose bounds intersect seg,
// using the slab method for segment/AABB intersection.
func (o *BruteForceOracle) Query(seg sst.Segment) ([]int, error) {
	var hits []int
	for i, b := range o.Boxes {
		if segmentIntersectsBox(seg.Start, seg.End, b) {
			hits = append(hits, i)
		}
	}
	return hits, nil
}

// Variant always reports AABBBox; this oracle carries no TriPrism
// obstacles.
func (o *BruteForceOracle) Variant(_ int) sst.ObstacleVariant {
	return sst.AABBBox
}

// segmentIntersectsBox is the standard slab test: clamp the segment's
// parametric range [0,1] against each axis's pair of planes, and report
// a hit if the clamped range is still non-empty.
func segmentIntersectsBox(start, end r3.Vector, b Box) bool {
	dir := end.Sub(start)
	tMin, tMax := 0.0, 1.0

	axes := [3]struct{ o, d, lo, hi float64 }{
		{start.X, dir.X, b.Min.X, b.Max.X},
		{start.Y, dir.Y, b.Min.Y, b.Max.Y},
		{start.Z, dir.Z, b.Min.Z, b.Max.Z},
	}

	for _, a := range axes {
		if a.d == 0 {
			if a.o < a.lo || a.o > a.hi {
				return false
			}
			continue
		}
		t1 := (a.lo - a.o) / a.d
		t2 := (a.hi - a.o) / a.d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}
