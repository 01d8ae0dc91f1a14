// Package ingest turns labeled images into identity entries and appends them
// to the identity store.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/store"
	"github.com/rs/zerolog/log"
)

// ErrNoFace is returned when the extractor finds no face in an image.
// The store is left unchanged; callers log it and move on.
var ErrNoFace = errors.New("no face found")

// Result describes one ingested image.
type Result struct {
	ID         string // ingestion ID for client correlation
	Label      string
	FacesFound int // faces detected; only the first is stored
}

// Writer is the ingestion side of the index.
type Writer struct {
	store     store.Store
	extractor extractor.Extractor
}

// NewWriter creates a Writer.
func NewWriter(s store.Store, ex extractor.Extractor) *Writer {
	return &Writer{store: s, extractor: ex}
}

// Ingest extracts faces from image and appends the first one under label.
// When several faces are detected only the first, in extractor order, is kept.
func (w *Writer) Ingest(ctx context.Context, label string, image []byte) (Result, error) {
	entry, found, err := w.extract(ctx, label, image)
	res := Result{Label: label, FacesFound: found}
	if err != nil {
		return res, err
	}

	if err := w.store.AppendAll(ctx, []identity.Entry{entry}); err != nil {
		return res, fmt.Errorf("failed to store identity %q: %w", label, err)
	}

	res.ID = uuid.New().String()
	log.Info().Str("label", label).Str("id", res.ID).Int("faces", found).Msg("added identity")
	return res, nil
}

// extract runs the extractor and builds the entry to store.
func (w *Writer) extract(ctx context.Context, label string, image []byte) (identity.Entry, int, error) {
	if label == "" {
		return identity.Entry{}, 0, identity.ErrEmptyLabel
	}

	faces, err := w.extractor.Extract(ctx, image)
	if err != nil {
		return identity.Entry{}, 0, fmt.Errorf("failed to extract faces for %q: %w", label, err)
	}
	if len(faces) == 0 {
		return identity.Entry{}, 0, fmt.Errorf("%w for %q", ErrNoFace, label)
	}

	return identity.Entry{Label: label, Embedding: faces[0].Embedding}, len(faces), nil
}
