// SPDX-License-Identifier: MIT

// Package solution holds pipeline recipes: ordered node lists with
// default parameters, looked up by id when an instance is created.
package solution

import (
	"strings"
	"sync"
)

// NodeSpec is one entry of a solution pipeline. NodeName may contain
// the literal token {instanceId}, substituted at build time.
type NodeSpec struct {
	NodeType   string            `json:"nodeType"`
	NodeName   string            `json:"nodeName"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Config is a solution recipe.
type Config struct {
	SolutionID   string     `json:"solutionId"`
	SolutionName string     `json:"solutionName"`
	SolutionType string     `json:"solutionType"`
	IsDefault    bool       `json:"isDefault"`
	Pipeline     []NodeSpec `json:"pipeline"`
}

// Registry is a thread-safe catalogue of solutions.
type Registry struct {
	mu        sync.RWMutex
	solutions map[string]Config
}

// NewRegistry returns a registry pre-seeded with the default solutions.
func NewRegistry() *Registry {
	r := &Registry{solutions: make(map[string]Config)}
	for _, s := range defaultSolutions() {
		r.solutions[s.SolutionID] = s
	}
	return r
}

// Register adds a solution. Returns false without mutation when the id
// already exists.
func (r *Registry) Register(s Config) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.solutions[s.SolutionID]; ok {
		return false
	}
	r.solutions[s.SolutionID] = s
	return true
}

// Get returns the solution for id.
func (r *Registry) Get(id string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.solutions[id]
	return s, ok
}

// List returns all solutions.
func (r *Registry) List() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Config, 0, len(r.solutions))
	for _, s := range r.solutions {
		out = append(out, s)
	}
	return out
}

// Defaults returns the solutions flagged as defaults.
func (r *Registry) Defaults() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Config
	for _, s := range r.solutions {
		if s.IsDefault {
			out = append(out, s)
		}
	}
	return out
}

// DeriveID maps a solution type plus input type to the default solution
// id used by quick create, e.g. ("face_detection", "file") ->
// "face_detection_file_default".
func DeriveID(solutionType, inputType string) string {
	if inputType == "" {
		inputType = "rtsp"
	}
	return strings.ToLower(solutionType) + "_" + strings.ToLower(inputType) + "_default"
}
