// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/nodes"
)

// handleListNodes lists the pre-configured pool. With an empty pool (or
// an explicit type=templates) the template catalogue is returned
// instead, marked so clients can tell the two shapes apart.
func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	availableOnly := q.Get("available") == "true"
	category := q.Get("category")

	list := s.pool.List(availableOnly)
	if len(list) == 0 || q.Get("type") == "templates" {
		s.writeTemplateListing(w, category)
		return
	}

	if category != "" {
		filtered := list[:0]
		for _, rec := range list {
			tpl, ok := s.templates.Get(rec.TemplateID)
			if ok && string(tpl.Category) == category {
				filtered = append(filtered, rec)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":  "nodes",
		"total": len(list),
		"nodes": list,
	})
}

func (s *Server) writeTemplateListing(w http.ResponseWriter, category string) {
	var tpls []nodes.Template
	if category != "" {
		tpls = s.templates.ListByCategory(nodes.Category(category))
	} else {
		tpls = s.templates.List()
	}
	out := make([]map[string]any, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, map[string]any{
			"templateId":         t.TemplateID,
			"nodeType":           t.NodeType,
			"category":           t.Category,
			"displayName":        t.DisplayName,
			"defaultParameters":  t.DefaultParameters,
			"requiredParameters": t.RequiredParameters,
			"isTemplate":         true,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":  "templates",
		"total": len(out),
		"nodes": out,
	})
}

type createNodeRequest struct {
	TemplateID string            `json:"templateId"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var body createNodeRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.TemplateID == "" {
		writeError(w, r, core.InvalidArgumentf("templateId is required"))
		return
	}
	if _, ok := s.templates.Get(body.TemplateID); !ok {
		writeError(w, r, core.NotFoundf("template %q not found", body.TemplateID))
		return
	}
	id := s.pool.Create(body.TemplateID, body.Parameters)
	if id == "" {
		writeError(w, r, core.InvalidArgumentf("template %q: missing required parameters", body.TemplateID))
		return
	}
	rec, _ := s.pool.Get(id)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.pool.Get(id)
	if !ok {
		writeError(w, r, core.NotFoundf("node %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body createNodeRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if _, ok := s.pool.Get(id); !ok {
		writeError(w, r, core.NotFoundf("node %s not found", id))
		return
	}
	if !s.pool.Update(id, body.Parameters) {
		writeError(w, r, core.Conflictf("node %s is in use", id))
		return
	}
	rec, _ := s.pool.Get(id)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.pool.Get(id); !ok {
		writeError(w, r, core.NotFoundf("node %s not found", id))
		return
	}
	if !s.pool.Remove(id) {
		writeError(w, r, core.Conflictf("node %s is in use", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleNodeStats(w http.ResponseWriter, _ *http.Request) {
	total, inUse := s.pool.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     total,
		"inUse":     inUse,
		"available": total - inUse,
		"templates": s.templates.Count(),
	})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	s.writeTemplateListing(w, r.URL.Query().Get("category"))
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tpl, ok := s.templates.Get(id)
	if !ok {
		writeError(w, r, core.NotFoundf("template %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}
