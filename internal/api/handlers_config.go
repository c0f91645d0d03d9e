// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvedix/edge-ai-api/internal/core"
)

// configPath extracts the wildcard tail; the empty tail addresses the
// whole tree.
func configPath(r *http.Request) string {
	return chi.URLParam(r, "*")
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	v, err := s.cfg.Get(configPath(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleConfigMerge serves both POST (merge) and PATCH (section update);
// the store semantics are the same deep merge.
func (s *Server) handleConfigMerge(w http.ResponseWriter, r *http.Request) {
	var v any
	if err := decodeJSON(r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.cfg.SetMerge(configPath(r), v); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleConfigReplace(w http.ResponseWriter, r *http.Request) {
	var v map[string]any
	if err := decodeJSON(r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.cfg.SetReplace(v); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"replaced": true})
}

func (s *Server) handleConfigDelete(w http.ResponseWriter, r *http.Request) {
	path := configPath(r)
	if !s.cfg.Delete(path) {
		writeError(w, r, core.NotFoundf("config path %q not found", path))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleConfigReset(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.ResetDefaults(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}
