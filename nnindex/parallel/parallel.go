// Package parallel is a nearest-neighbour index that splits brute-force
// scans across goroutines once the candidate set is large enough to make
// it worthwhile. Grounded on the teacher's neighborManager (nCPU workers,
// a parallelNeighbors candidate-count threshold below which it falls back
// to a single-goroutine scan) and its use of utils.PanicCapturingGo so a
// panic in one scan worker surfaces instead of silently hanging the
// others.
package parallel

import (
	"runtime"
	"sort"
	"sync"

	"go.viam.com/utils"

	"github.com/kinoplan/sst/nnindex"
)

// parallelNeighbors is the candidate-count threshold above which scans
// fan out across workers, mirroring the teacher's neighborManager
// threshold of the same name.
const parallelNeighbors = 1000

// Index is a nnindex.Index that parallelizes its scan once the number of
// indexed points crosses parallelNeighbors.
type Index[S any] struct {
	metric nnindex.Metric[S]
	nCPU   int

	mu     sync.RWMutex
	points map[int]S
}

// New creates a parallel index using the given distance metric. nCPU
// defaults to runtime.NumCPU() when 0 is passed.
func New[S any](metric nnindex.Metric[S], nCPU int) *Index[S] {
	if nCPU <= 0 {
		nCPU = runtime.NumCPU()
	}
	return &Index[S]{metric: metric, nCPU: nCPU, points: make(map[int]S)}
}

func (idx *Index[S]) Add(s S, id int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.points[id] = s
}

func (idx *Index[S]) Remove(id int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.points, id)
}

func (idx *Index[S]) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.points)
}

// snapshot copies the current point set so a scan can run lock-free.
func (idx *Index[S]) snapshot() ([]int, []S) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]int, 0, len(idx.points))
	states := make([]S, 0, len(idx.points))
	for id, s := range idx.points {
		ids = append(ids, id)
		states = append(states, s)
	}
	return ids, states
}

func (idx *Index[S]) scan(q S) []nnindex.Neighbor {
	ids, states := idx.snapshot()
	if len(ids) < parallelNeighbors {
		out := make([]nnindex.Neighbor, len(ids))
		for i, id := range ids {
			out[i] = nnindex.Neighbor{ID: id, Dist: idx.metric(q, states[i])}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Dist < out[j].Dist })
		return out
	}

	workers := idx.nCPU
	if workers > len(ids) {
		workers = len(ids)
	}
	chunks := make([][]nnindex.Neighbor, workers)
	var wg sync.WaitGroup
	chunkSize := (len(ids) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		w := w
		start := start
		end := end
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			local := make([]nnindex.Neighbor, 0, end-start)
			for i := start; i < end; i++ {
				local = append(local, nnindex.Neighbor{ID: ids[i], Dist: idx.metric(q, states[i])})
			}
			chunks[w] = local
		})
	}
	wg.Wait()

	var out []nnindex.Neighbor
	for _, c := range chunks {
		out = append(out, c...)
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

func (idx *Index[S]) NeighbourhoodAvgDist(q S, id int, k int) float64 {
	idx.mu.RLock()
	center, ok := idx.points[id]
	idx.mu.RUnlock()
	if !ok {
		return 0
	}
	neighbors := idx.NearestK(center, k)
	if len(neighbors) == 0 {
		return 0
	}
	var sum float64
	idx.mu.RLock()
	for _, n := range neighbors {
		sum += idx.metric(q, idx.points[n.ID])
	}
	idx.mu.RUnlock()
	return sum / float64(len(neighbors))
}
