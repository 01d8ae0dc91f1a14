// Package store persists the identity index: an append-only sequence of labeled
// face embeddings shared between ingestion writers and recognition readers.
package store

import (
	"context"
	"errors"

	"github.com/kozaktomas/face-index/internal/identity"
)

// ErrCorruptStore is returned when a persisted artifact cannot be decoded or
// violates the labels/embeddings length invariant.
var ErrCorruptStore = errors.New("identity store is corrupt")

// Reader provides read-only access to the identity index.
type Reader interface {
	// Load returns the full contents in stored order. A store that was never
	// written returns an empty slice and no error.
	Load(ctx context.Context) ([]identity.Entry, error)
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// Store is the durable identity index.
type Store interface {
	Reader

	// AppendAll atomically appends entries after the current contents.
	// Concurrent callers are serialized; a reader sees either the contents
	// before the append or after it, never a partial write.
	AppendAll(ctx context.Context, entries []identity.Entry) error
}

// validateBatch checks a batch against the store dimension and returns the
// dimension to use from now on. dim 0 means the store has not fixed one yet.
func validateBatch(entries []identity.Entry, dim int) (int, error) {
	if dim == 0 && len(entries) > 0 {
		dim = len(entries[0].Embedding)
	}
	for _, e := range entries {
		if err := e.Validate(dim); err != nil {
			return 0, err
		}
	}
	return dim, nil
}
