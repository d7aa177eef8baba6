// Package naive is the reference brute-force nearest-neighbour index:
// every query scans the full point set. Grounded on the reference
// implementation's nn_naive feature (`query_nearest_state_active`,
// `query_nearest_witness`), kept as the semantics every other strategy
// must agree with.
package naive

import (
	"sort"

	"github.com/kinoplan/sst/nnindex"
)

// Index is a brute-force nnindex.Index.
type Index[S any] struct {
	metric nnindex.Metric[S]
	points map[int]S
}

// New creates an empty naive index using the given distance metric.
func New[S any](metric nnindex.Metric[S]) *Index[S] {
	return &Index[S]{metric: metric, points: make(map[int]S)}
}

func (idx *Index[S]) Add(s S, id int) {
	idx.points[id] = s
}

func (idx *Index[S]) Remove(id int) {
	delete(idx.points, id)
}

func (idx *Index[S]) Len() int {
	return len(idx.points)
}

func (idx *Index[S]) scan(q S) []nnindex.Neighbor {
	out := make([]nnindex.Neighbor, 0, len(idx.points))
	for id, s := range idx.points {
		out = append(out, nnindex.Neighbor{ID: id, Dist: idx.metric(q, s)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dist < out[j].Dist })
	return out
}

func (idx *Index[S]) NearestWithin(q S, delta float64) []nnindex.Neighbor {
	all := idx.scan(q)
	out := all[:0:0]
	for _, n := range all {
		if n.Dist <= delta {
			out = append(out, n)
		}
	}
	return out
}

func (idx *Index[S]) NearestK(q S, k int) []nnindex.Neighbor {
	all := idx.scan(q)
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

// NeighbourhoodAvgDist averages the distance from q to each of the k
// nearest neighbours of the point stored at id (the point itself
// included), scoring how far q lies from that part of the index.
func (idx *Index[S]) NeighbourhoodAvgDist(q S, id int, k int) float64 {
	center, ok := idx.points[id]
	if !ok {
		return 0
	}
	neighbors := idx.NearestK(center, k)
	if len(neighbors) == 0 {
		return 0
	}
	var sum float64
	for _, n := range neighbors {
		sum += idx.metric(q, idx.points[n.ID])
	}
	return sum / float64(len(neighbors))
}
