// SPDX-License-Identifier: MIT

// Package nodes holds the canonical node-type catalogue and the pool of
// pre-configured nodes built from it.
package nodes

import (
	"sync"
)

// Category classifies node templates.
type Category string

const (
	CategorySource      Category = "source"
	CategoryDetector    Category = "detector"
	CategoryProcessor   Category = "processor"
	CategoryDestination Category = "destination"
	CategoryBroker      Category = "broker"
	CategoryOther       Category = "other"
)

// Template is the immutable descriptor of a node type.
type Template struct {
	TemplateID         string            `json:"templateId"`
	NodeType           string            `json:"nodeType"`
	Category           Category          `json:"category"`
	DisplayName        string            `json:"displayName"`
	Description        string            `json:"description,omitempty"`
	DefaultParameters  map[string]string `json:"defaultParameters,omitempty"`
	RequiredParameters []string          `json:"requiredParameters,omitempty"`
	OptionalParameters []string          `json:"optionalParameters,omitempty"`
	PreConfigured      bool              `json:"preConfigured"`
}

// SelfSufficient reports whether every required parameter has a default,
// i.e. the node can be instantiated without user input.
func (t Template) SelfSufficient() bool {
	for _, p := range t.RequiredParameters {
		if _, ok := t.DefaultParameters[p]; !ok {
			return false
		}
	}
	return true
}

// Registry maps template ids to templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry imports the SDK catalogue, then overlays the special
// templates (richer defaults for a handful of types).
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template)}
	r.Import(catalogue())
	for _, t := range specialTemplates() {
		r.mu.Lock()
		r.templates[t.TemplateID] = t
		r.mu.Unlock()
	}
	return r
}

// Register adds a template. A second registration with an existing id
// returns false without mutation.
func (r *Registry) Register(t Template) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.TemplateID]; ok {
		return false
	}
	r.templates[t.TemplateID] = t
	return true
}

// Import registers every template in the batch, skipping existing ids.
// Returns the number imported.
func (r *Registry) Import(batch []Template) int {
	count := 0
	for _, t := range batch {
		if r.Register(t) {
			count++
		}
	}
	return count
}

// Get returns the template for id.
func (r *Registry) Get(id string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// List returns all templates. Insertion order is not preserved.
func (r *Registry) List() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	return out
}

// ListByCategory filters templates by category.
func (r *Registry) ListByCategory(c Category) []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Template
	for _, t := range r.templates {
		if t.Category == c {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of registered templates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}
