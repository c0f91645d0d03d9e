// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cvedix/edge-ai-api/internal/config"
	"github.com/cvedix/edge-ai-api/internal/instance"
	"github.com/cvedix/edge-ai-api/internal/nodes"
	"github.com/cvedix/edge-ai-api/internal/securt"
	"github.com/cvedix/edge-ai-api/internal/solution"
)

// Server bundles the handler dependencies. Construction is explicit;
// tests pass their own instances.
type Server struct {
	cfg       *config.Store
	manager   *instance.Manager
	facade    *securt.Manager
	pool      *nodes.Pool
	templates *nodes.Registry
	solutions *solution.Registry
}

func NewServer(cfg *config.Store, mgr *instance.Manager, facade *securt.Manager, pool *nodes.Pool, templates *nodes.Registry, solutions *solution.Registry) *Server {
	return &Server{
		cfg:       cfg,
		manager:   mgr,
		facade:    facade,
		pool:      pool,
		templates: templates,
		solutions: solutions,
	}
}

// Routes assembles the router: recoverer first so everything below it
// is caught, CORS before metrics so preflights stay cheap.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(cors)
	r.Use(httpMetrics)
	r.Use(accessLog)
	r.Use(rateLimit(600))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1/core", func(r chi.Router) {
		r.Post("/instance/quick", s.handleQuickCreate)
		r.Get("/instances", s.handleListInstances)
		r.Route("/instance/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetInstance)
			r.Delete("/", s.handleDeleteInstance)
			r.Post("/start", s.handleStartInstance)
			r.Post("/stop", s.handleStopInstance)
			r.Get("/stats", s.handleInstanceStats)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", s.handleConfigGet)
			r.Post("/", s.handleConfigMerge)
			r.Put("/", s.handleConfigReplace)
			r.Post("/reset", s.handleConfigReset)
			r.Get("/*", s.handleConfigGet)
			r.Post("/*", s.handleConfigMerge)
			r.Patch("/*", s.handleConfigMerge)
			r.Delete("/*", s.handleConfigDelete)
		})

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", s.handleListNodes)
			r.Post("/", s.handleCreateNode)
			r.Get("/stats", s.handleNodeStats)
			r.Get("/templates", s.handleListTemplates)
			r.Get("/templates/{id}", s.handleGetTemplate)
			r.Get("/{id}", s.handleGetNode)
			r.Put("/{id}", s.handleUpdateNode)
			r.Delete("/{id}", s.handleDeleteNode)
		})
	})

	r.Route("/v1/securt/instance", func(r chi.Router) {
		r.Post("/", s.handleSecurtCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSecurtGet)
			r.Put("/", s.handleSecurtUpdate)
			r.Patch("/", s.handleSecurtUpdate)
			r.Delete("/", s.handleSecurtDelete)
			r.Get("/stats", s.handleSecurtStats)
			r.Get("/analytics_entities", s.handleSecurtEntities)
			r.Get("/lines", s.handleSecurtLines)
			r.Post("/line/{kind}", s.handleSecurtAddLine)
			r.Delete("/line/{kind}/{lineId}", s.handleSecurtDeleteLine)
			for _, feature := range []string{
				"input", "output", "motion_area", "feature_extraction",
				"attributes_extraction", "performance_profile",
				"face_detection", "lpr", "pip", "masking_areas",
				"exclusion_areas",
			} {
				r.Post("/"+feature, s.handleSecurtFeature(feature))
			}
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"instances": s.manager.Count(),
	})
}
