// Package nnindex provides approximate nearest-neighbour indices over
// propagation nodes and witness states. Two interchangeable strategies
// satisfy the same Index interface: a brute-force scan (package naive)
// and a goroutine-parallel scan (package parallel) that only pays for
// concurrency once the candidate set is large enough to be worth it.
package nnindex

// Neighbor is one nearest-neighbour query result: the id it was recorded
// under via Add, and its distance from the query point.
type Neighbor struct {
	ID   int
	Dist float64
}

// Index is the nearest-neighbour surface the engine consumes, over
// whichever state type S the caller's Capabilities implementation uses.
// Both implementations in this module must satisfy: if NearestWithin(q,
// delta) returns a result r, then Dist(q, state(r)) <= delta; if it
// returns empty, NearestK(q, 1) returns a non-empty best-effort nearest
// whenever the index is non-empty.
type Index[S any] interface {
	// NearestWithin returns every indexed point within delta of q.
	NearestWithin(q S, delta float64) []Neighbor
	// NearestK returns the k closest indexed points to q.
	NearestK(q S, k int) []Neighbor
	// NeighbourhoodAvgDist returns the average distance from q to the k
	// nearest neighbours of the point stored at id, used to score how
	// sparse the region around a candidate seed is.
	NeighbourhoodAvgDist(q S, id int, k int) float64
	// Add registers state s under id. Re-adding an id overwrites its
	// stored state.
	Add(s S, id int)
	// Remove drops id from the index. Safe to call on an id that was
	// never added.
	Remove(id int)
	// Len reports how many points are currently indexed.
	Len() int
}

// Metric is the caller-supplied distance function an Index scans with.
type Metric[S any] func(a, b S) float64
