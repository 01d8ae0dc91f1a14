// Package matcher classifies a query embedding against an identity snapshot:
// candidates within tolerance are kept, and the nearest one wins.
package matcher

import (
	"math"
	"sync"

	"github.com/kozaktomas/face-index/internal/constants"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/snapshot"
)

// DefaultTolerance is the maximum Euclidean distance for two embeddings of the same person.
const DefaultTolerance = constants.DefaultTolerance

// Match is the outcome of a classification.
type Match struct {
	Label    string  // identity.Unknown when Known is false
	Distance float64 // distance to the nearest stored vector, +Inf for an empty snapshot
	Index    int     // snapshot index of the match, -1 when unknown
	Known    bool
}

func unknown(distance float64) Match {
	return Match{Label: identity.Unknown, Distance: distance, Index: -1}
}

// Classify scans every stored vector. A vector is a candidate when its distance
// is at or below tolerance; the candidate with the minimum distance is returned,
// ties going to the lowest snapshot index. A non-positive tolerance means
// DefaultTolerance. Classify never fails: no candidate is an Unknown match.
func Classify(query []float32, snap *snapshot.Snapshot, tolerance float64) Match {
	n := snap.Len()
	if n == 0 {
		return unknown(math.Inf(1))
	}
	if tolerance <= 0 || math.IsNaN(tolerance) {
		tolerance = DefaultTolerance
	}

	best := -1
	bestDist := math.Inf(1)
	for i := range n {
		d := identity.EuclideanDistance(query, snap.Embedding(i))
		// Strict less-than keeps the earliest index on ties.
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 || bestDist > tolerance {
		return unknown(bestDist)
	}
	return Match{Label: snap.Label(best), Distance: bestDist, Index: best, Known: true}
}

// Matcher classifies with a fixed tolerance and switches to an HNSW index for
// snapshots of at least hnswMin entries (0 disables the index). The index is
// rebuilt whenever a different snapshot is passed in.
//
// The indexed path is approximate: when the graph yields no candidate within
// tolerance the exact scan decides, so a known face is never reported as
// unknown, but a match found by the graph may not be the true nearest one.
type Matcher struct {
	tolerance float64
	hnswMin   int

	mu      sync.Mutex
	indexed *Index
}

// New creates a Matcher.
func New(tolerance float64, hnswMin int) *Matcher {
	if tolerance <= 0 || math.IsNaN(tolerance) {
		tolerance = DefaultTolerance
	}
	return &Matcher{tolerance: tolerance, hnswMin: hnswMin}
}

// Tolerance returns the configured tolerance.
func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// Classify returns the best match for query in snap.
func (m *Matcher) Classify(query []float32, snap *snapshot.Snapshot) Match {
	if m.hnswMin > 0 && snap.Len() >= m.hnswMin {
		if match := m.indexFor(snap).Classify(query, m.tolerance); match.Known {
			return match
		}
	}
	return Classify(query, snap, m.tolerance)
}

func (m *Matcher) indexFor(snap *snapshot.Snapshot) *Index {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexed == nil || m.indexed.snap != snap {
		m.indexed = NewIndex(snap)
	}
	return m.indexed
}
