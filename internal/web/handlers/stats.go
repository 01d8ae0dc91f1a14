package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/kozaktomas/face-index/internal/store"
	"github.com/rs/zerolog/log"
)

// StatsHandler reports store and snapshot sizes.
type StatsHandler struct {
	reader store.Reader
	cache  *snapshot.Cache
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(reader store.Reader, cache *snapshot.Cache) *StatsHandler {
	return &StatsHandler{reader: reader, cache: cache}
}

// StatsResponse represents the stats response.
type StatsResponse struct {
	StoredEntries   int       `json:"stored_entries"`
	SnapshotEntries int       `json:"snapshot_entries"`
	SnapshotLabels  int       `json:"snapshot_labels"`
	LoadedAt        time.Time `json:"loaded_at"`
	RefreshInterval string    `json:"refresh_interval"`
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	count, err := h.reader.Count(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to count identities")
		respondError(w, http.StatusInternalServerError, "failed to read store")
		return
	}

	snap := h.cache.Current()
	respondJSON(w, http.StatusOK, StatsResponse{
		StoredEntries:   count,
		SnapshotEntries: snap.Len(),
		SnapshotLabels:  len(snap.Labels()),
		LoadedAt:        snap.LoadedAt,
		RefreshInterval: h.cache.Interval().String(),
	})
}
