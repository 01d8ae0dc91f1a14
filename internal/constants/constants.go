// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Matching constants
const (
	// DefaultTolerance is the maximum Euclidean distance between two embeddings
	// of the same person. Lower values = stricter matching
	DefaultTolerance = 0.5

	// DefaultRefreshInterval bounds how stale the recognition snapshot can get
	DefaultRefreshInterval = 30 * time.Second
)

// HNSW index parameters for face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	HNSWEfSearch = 100

	// HNSWCandidates is how many approximate neighbors are re-ranked with exact distances.
	HNSWCandidates = 32
)

// Processing constants
const (
	// BootstrapBatchSize is the number of embeddings buffered before each store append
	BootstrapBatchSize = 50

	// ExtractTimeout is the HTTP timeout for one embedding server request
	ExtractTimeout = 60 * time.Second
)

// Handler constants
const (
	// MaxUploadSize is the maximum image upload size in bytes (32MB)
	MaxUploadSize = 32 << 20
)
