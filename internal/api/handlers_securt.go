// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/securt"
)

func (s *Server) handleSecurtCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateInstanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.facade.CreateInstance(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleSecurtGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mirror, err := s.facade.Mirror(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.manager.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instance": rec,
		"securt":   mirror,
	})
}

func (s *Server) handleSecurtUpdate(w http.ResponseWriter, r *http.Request) {
	var upd securt.UpdateRequest
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.facade.Update(r.Context(), chi.URLParam(r, "id"), &upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSecurtDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleSecurtStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.facade.Stats(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSecurtEntities(w http.ResponseWriter, r *http.Request) {
	doc, err := s.facade.AnalyticsEntities(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSecurtLines(w http.ResponseWriter, r *http.Request) {
	lines, err := s.facade.Lines(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// lineKinds maps the URL segment to the entity kind.
var lineKinds = map[string]string{
	"counting":   securt.KindCountingLine,
	"crossing":   securt.KindCrossingLine,
	"tailgating": securt.KindTailgatingLine,
}

func (s *Server) handleSecurtAddLine(w http.ResponseWriter, r *http.Request) {
	kind, ok := lineKinds[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, r, core.InvalidArgumentf("unknown line kind %q", chi.URLParam(r, "kind")))
		return
	}
	var line securt.Line
	if err := decodeJSON(r, &line); err != nil {
		writeError(w, r, err)
		return
	}
	line.Kind = kind
	lineID, err := s.facade.AddLine(r.Context(), chi.URLParam(r, "id"), line)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"lineId": lineID})
}

func (s *Server) handleSecurtDeleteLine(w http.ResponseWriter, r *http.Request) {
	if _, ok := lineKinds[chi.URLParam(r, "kind")]; !ok {
		writeError(w, r, core.InvalidArgumentf("unknown line kind %q", chi.URLParam(r, "kind")))
		return
	}
	err := s.facade.DeleteLine(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lineId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleSecurtFeature builds the handler for one feature sub-endpoint.
// Area features route into the entity set; the rest are stored as
// feature documents and may trigger a rebuild.
func (s *Server) handleSecurtFeature(feature string) http.HandlerFunc {
	areaKinds := map[string]string{
		"motion_area":     securt.KindMotionArea,
		"masking_areas":   securt.KindMaskingArea,
		"exclusion_areas": securt.KindExclusionArea,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if kind, ok := areaKinds[feature]; ok {
			var area securt.Area
			if err := decodeJSON(r, &area); err != nil {
				writeError(w, r, err)
				return
			}
			area.Kind = kind
			areaID, err := s.facade.AddArea(r.Context(), id, area)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"areaId": areaID})
			return
		}

		var doc map[string]any
		if err := decodeJSON(r, &doc); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.facade.ApplyFeature(r.Context(), id, feature, doc); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"applied": true})
	}
}
