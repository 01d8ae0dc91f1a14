package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-index/internal/ingest"
	"github.com/kozaktomas/face-index/internal/web/handlers"
)

func (s *Server) setupRoutes(writer *ingest.Writer) {
	identitiesHandler := handlers.NewIdentitiesHandler(writer)
	classifyHandler := handlers.NewClassifyHandler(s.deps.Extractor, s.deps.Cache, s.deps.Matcher)
	statsHandler := handlers.NewStatsHandler(s.deps.Store, s.deps.Cache)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/stats", statsHandler.Get)
		r.Post("/identities", identitiesHandler.Create)
		r.Post("/classify", classifyHandler.Classify)
	})
}
