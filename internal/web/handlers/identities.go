package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/ingest"
	"github.com/rs/zerolog/log"
)

// IdentitiesHandler accepts labeled images from the crawler.
type IdentitiesHandler struct {
	writer *ingest.Writer
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(w *ingest.Writer) *IdentitiesHandler {
	return &IdentitiesHandler{writer: w}
}

// CreateResponse is returned for an ingested image.
type CreateResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	FacesFound int    `json:"faces_found"`
}

// labelFromForm builds the label from either a "label" field with
// slash-separated segments or the state, county, city and person fields.
func labelFromForm(r *http.Request) (string, error) {
	if raw := strings.TrimSpace(r.FormValue("label")); raw != "" {
		return identity.BuildLabel(strings.Split(raw, identity.LabelSeparator)...)
	}

	segments := []string{r.FormValue("state"), r.FormValue("county"), r.FormValue("city"), r.FormValue("person")}
	if strings.TrimSpace(segments[3]) == "" {
		return "", identity.ErrEmptyLabel
	}
	return identity.BuildLabel(segments...)
}

// Create handles POST /api/v1/identities.
func (h *IdentitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	label, err := labelFromForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "label or person is required")
		return
	}

	res, err := h.writer.Ingest(r.Context(), label, image)
	switch {
	case errors.Is(err, ingest.ErrNoFace):
		log.Warn().Str("label", sanitizeForLog(label)).Msg("no face found in uploaded image")
		respondError(w, http.StatusUnprocessableEntity, "no face found")
		return
	case err != nil:
		log.Error().Err(err).Str("label", sanitizeForLog(label)).Msg("failed to ingest image")
		respondError(w, http.StatusInternalServerError, "failed to ingest image")
		return
	}

	respondJSON(w, http.StatusCreated, CreateResponse{
		ID:         res.ID,
		Label:      res.Label,
		FacesFound: res.FacesFound,
	})
}
