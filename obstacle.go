package sst

import "github.com/golang/geo/r3"

// ObstacleVariant distinguishes the two obstacle shapes spec §6 names.
// AABBBox collisions are resolved by the broad phase alone; TriPrism
// requires the caller to run narrow-phase segment/prism intersection on
// the candidates the oracle's broad phase returns.
type ObstacleVariant int

const (
	AABBBox ObstacleVariant = iota
	TriPrism
)

// Segment is a 3D line segment built from the first three dimensions of
// a configuration projection, exactly as the reference `collision_check`
// builds its query line.
type Segment struct {
	Start, End r3.Vector
}

// Oracle is the collision query surface the engine consumes. A real
// deployment backs this with a pre-built BVH over obstacle indices; that
// BVH and the concrete obstacle geometry are out of scope per spec §1 and
// supplied by the caller. Query returns candidate obstacle indices whose
// broad-phase bound intersects seg; TriPrism-tagged obstacles still need
// narrow-phase confirmation by the caller's own geometry, since the
// engine only ever sees indices and variants.
type Oracle interface {
	Query(seg Segment) ([]int, error)
	Variant(idx int) ObstacleVariant
}

// collides is a convenience the engine uses internally: it treats any
// non-empty AABBBox hit as a collision, and defers to narrowPhase for
// TriPrism hits. narrowPhase may be nil if no TriPrism obstacles are
// registered with the oracle.
func collides(oracle Oracle, seg Segment, narrowPhase func(idx int, seg Segment) (bool, error)) (bool, error) {
	hits, err := oracle.Query(seg)
	if err != nil {
		return false, ErrObstacleOracle(err)
	}
	for _, idx := range hits {
		switch oracle.Variant(idx) {
		case AABBBox:
			return true, nil
		case TriPrism:
			if narrowPhase == nil {
				return true, nil
			}
			hit, err := narrowPhase(idx, seg)
			if err != nil {
				return false, ErrObstacleOracle(err)
			}
			if hit {
				return true, nil
			}
		}
	}
	return false, nil
}
