package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/face-index/internal/capture"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/matcher"
	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/rs/zerolog/log"
)

// ClassifyHandler identifies the faces on an uploaded image.
type ClassifyHandler struct {
	extractor extractor.Extractor
	cache     *snapshot.Cache
	matcher   *matcher.Matcher
	now       func() time.Time
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(ex extractor.Extractor, cache *snapshot.Cache, m *matcher.Matcher) *ClassifyHandler {
	return &ClassifyHandler{extractor: ex, cache: cache, matcher: m, now: time.Now}
}

// ClassifyResponse lists one detection per face.
type ClassifyResponse struct {
	Faces      []capture.Detection `json:"faces"`
	Identities int                 `json:"identities"`
	LoadedAt   time.Time           `json:"loaded_at"`
}

// Classify handles POST /api/v1/classify.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	faces, err := h.extractor.Extract(r.Context(), image)
	if err != nil {
		log.Error().Err(err).Msg("face extraction failed")
		respondError(w, http.StatusBadGateway, "face extraction failed")
		return
	}

	if _, err := h.cache.RefreshIfDue(r.Context(), h.now()); err != nil {
		log.Error().Err(err).Msg("failed to refresh identities, keeping previous snapshot")
	}
	snap := h.cache.Current()

	resp := ClassifyResponse{
		Faces:      make([]capture.Detection, 0, len(faces)),
		Identities: snap.Len(),
		LoadedAt:   snap.LoadedAt,
	}
	for _, f := range faces {
		m := h.matcher.Classify(f.Embedding, snap)
		resp.Faces = append(resp.Faces, capture.Detection{
			Label:    m.Label,
			Distance: m.Distance,
			Known:    m.Known,
			Box:      f.Box,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}
