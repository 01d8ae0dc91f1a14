package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/kozaktomas/face-index/internal/identity"
)

const artifactVersion = 1

// artifact is the on-disk form of the index: two parallel sequences of equal
// length, written as one gob value.
type artifact struct {
	Version    int
	Dim        int
	WrittenAt  time.Time
	Labels     []string
	Embeddings [][]float32
}

func newArtifact(entries []identity.Entry, dim int) *artifact {
	a := &artifact{
		Version:    artifactVersion,
		Dim:        dim,
		WrittenAt:  time.Now().UTC(),
		Labels:     make([]string, len(entries)),
		Embeddings: make([][]float32, len(entries)),
	}
	for i, e := range entries {
		a.Labels[i] = e.Label
		a.Embeddings[i] = e.Embedding
	}
	return a
}

func (a *artifact) entries() []identity.Entry {
	out := make([]identity.Entry, len(a.Labels))
	for i := range a.Labels {
		out[i] = identity.Entry{Label: a.Labels[i], Embedding: a.Embeddings[i]}
	}
	return out
}

func encodeArtifact(a *artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return nil, fmt.Errorf("failed to encode identities: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeArtifact(data []byte) (*artifact, error) {
	var a artifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if len(a.Labels) != len(a.Embeddings) {
		return nil, fmt.Errorf("%w: %d labels but %d embeddings", ErrCorruptStore, len(a.Labels), len(a.Embeddings))
	}
	if a.Version > artifactVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptStore, a.Version)
	}
	return &a, nil
}
