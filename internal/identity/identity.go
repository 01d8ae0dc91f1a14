// Package identity defines the labeled face embedding stored in the identity index
// and the helpers shared by ingestion and recognition.
package identity

import (
	"errors"
	"fmt"
)

// Unknown is the label reported when no stored identity is close enough to a query.
const Unknown = "unknown"

var (
	// ErrEmptyLabel is returned for entries without an identity label.
	ErrEmptyLabel = errors.New("identity label is empty")

	// ErrDimensionMismatch is returned when an embedding length differs from the store dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Entry is one face embedding stored under an identity label.
type Entry struct {
	Label     string
	Embedding []float32
}

// Validate checks the entry against the expected embedding dimension.
// A dim of 0 only requires a non-empty embedding.
func (e Entry) Validate(dim int) error {
	if e.Label == "" {
		return ErrEmptyLabel
	}
	if len(e.Embedding) == 0 {
		return fmt.Errorf("%w: empty embedding for %q", ErrDimensionMismatch, e.Label)
	}
	if dim > 0 && len(e.Embedding) != dim {
		return fmt.Errorf("%w: got %d, want %d for %q", ErrDimensionMismatch, len(e.Embedding), dim, e.Label)
	}
	return nil
}

// Clone returns a deep copy so stored vectors never alias caller memory.
func (e Entry) Clone() Entry {
	emb := make([]float32, len(e.Embedding))
	copy(emb, e.Embedding)
	return Entry{Label: e.Label, Embedding: emb}
}

// CloneAll deep-copies a slice of entries.
func CloneAll(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i := range entries {
		out[i] = entries[i].Clone()
	}
	return out
}
