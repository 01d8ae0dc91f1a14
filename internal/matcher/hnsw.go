package matcher

import (
	"math"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-index/internal/constants"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/snapshot"
)

// Index is an approximate nearest-neighbor graph over one snapshot. Candidates
// from the graph are re-ranked with exact distances and the same
// tolerance/lowest-index rule as Classify, so results only differ from the
// exact scan when the graph misses the true nearest neighbor.
type Index struct {
	snap  *snapshot.Snapshot
	dim   int
	mu    sync.Mutex
	graph *hnsw.Graph[int]
}

// NewIndex builds the graph. Entries whose dimension differs from the first
// entry are left out of the graph.
func NewIndex(snap *snapshot.Snapshot) *Index {
	idx := &Index{snap: snap}
	if snap.Len() == 0 {
		return idx
	}

	g := hnsw.NewGraph[int]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = constants.HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance

	idx.dim = len(snap.Embedding(0))
	for i := range snap.Len() {
		emb := snap.Embedding(i)
		if len(emb) != idx.dim {
			continue
		}
		g.Add(hnsw.MakeNode(i, emb))
	}
	idx.graph = g
	return idx
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	if idx.graph == nil {
		return 0
	}
	return idx.graph.Len()
}

// Classify searches the graph and applies the threshold/arg-min rule to the candidates.
func (idx *Index) Classify(query []float32, tolerance float64) Match {
	if idx.graph == nil || len(query) != idx.dim {
		return unknown(math.Inf(1))
	}
	if tolerance <= 0 || math.IsNaN(tolerance) {
		tolerance = DefaultTolerance
	}

	idx.mu.Lock()
	neighbors := idx.graph.Search(query, constants.HNSWCandidates)
	idx.mu.Unlock()

	best := -1
	bestDist := math.Inf(1)
	for _, n := range neighbors {
		d := identity.EuclideanDistance(query, idx.snap.Embedding(n.Key))
		if d < bestDist || (d == bestDist && n.Key < best) {
			best, bestDist = n.Key, d
		}
	}

	if best < 0 || bestDist > tolerance {
		return unknown(bestDist)
	}
	return Match{Label: idx.snap.Label(best), Distance: bestDist, Index: best, Known: true}
}
