// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvedix/edge-ai-api/internal/instance/model"
)

// quickCreateRequest is the simplified create body: the solution id is
// derived from solutionType plus the input type when absent.
type quickCreateRequest struct {
	Name                 string            `json:"name"`
	SolutionID           string            `json:"solutionId,omitempty"`
	SolutionType         string            `json:"solutionType,omitempty"`
	Group                string            `json:"group,omitempty"`
	Persistent           bool              `json:"persistent,omitempty"`
	AutoStart            bool              `json:"autoStart,omitempty"`
	FrameRateLimit       int               `json:"frameRateLimit,omitempty"`
	DetectionSensitivity string            `json:"detectionSensitivity,omitempty"`
	Input                *ioEndpoint       `json:"input,omitempty"`
	Output               *ioEndpoint       `json:"output,omitempty"`
	AdditionalParams     map[string]string `json:"additionalParams,omitempty"`
}

type ioEndpoint struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

func (s *Server) handleQuickCreate(w http.ResponseWriter, r *http.Request) {
	var body quickCreateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	req := &model.CreateInstanceRequest{
		Name:                 body.Name,
		SolutionID:           body.SolutionID,
		SolutionType:         body.SolutionType,
		Group:                body.Group,
		Persistent:           body.Persistent,
		AutoStart:            body.AutoStart,
		FrameRateLimit:       body.FrameRateLimit,
		DetectionSensitivity: body.DetectionSensitivity,
		AdditionalParams:     body.AdditionalParams,
	}
	if body.Input != nil {
		req.InputType = body.Input.Type
		req.InputURL = body.Input.URL
	}
	if body.Output != nil {
		req.OutputType = body.Output.Type
		req.OutputURL = body.Output.URL
	}

	rec, err := s.manager.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListInstances(w http.ResponseWriter, _ *http.Request) {
	list := s.manager.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     len(list),
		"instances": list,
	})
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	rec, err := s.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleStartInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Start(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.manager.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStopInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Stop(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.manager.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleInstanceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.Statistics(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
