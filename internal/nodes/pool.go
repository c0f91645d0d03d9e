// SPDX-License-Identifier: MIT

package nodes

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/solution"
)

// PreConfigured is a template bound to a concrete parameter set. The
// pool exclusively owns the record; running pipelines only hold the
// opaque node handle built from Parameters.
type PreConfigured struct {
	NodeID     string            `json:"nodeId"`
	TemplateID string            `json:"templateId"`
	Parameters map[string]string `json:"parameters,omitempty"`
	InUse      bool              `json:"inUse"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Pool owns the pre-configured node records. Reads overlap; mutations
// are exclusive.
type Pool struct {
	mu        sync.RWMutex
	templates *Registry
	nodes     map[string]*PreConfigured
	now       func() time.Time
	logger    zerolog.Logger
}

// NewPool creates a pool over the given template registry.
func NewPool(templates *Registry) *Pool {
	return &Pool{
		templates: templates,
		nodes:     make(map[string]*PreConfigured),
		now:       time.Now,
		logger:    log.WithComponent("nodepool"),
	}
}

// Templates exposes the backing template registry.
func (p *Pool) Templates() *Registry { return p.templates }

// IsPlaceholder reports whether a parameter value is an unresolved
// ${TOKEN} placeholder.
func IsPlaceholder(v string) bool {
	return strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}")
}

// Create binds a template to parameters (defaults overlaid by the user
// overrides) and returns the new node id. Returns "" when the template
// is unknown or a required parameter is missing.
func (p *Pool) Create(templateID string, overrides map[string]string) string {
	tpl, ok := p.templates.Get(templateID)
	if !ok {
		p.logger.Warn().
			Str(log.FieldTemplateID, templateID).Msg("create: unknown template")
		return ""
	}

	params := make(map[string]string, len(tpl.DefaultParameters)+len(overrides))
	for k, v := range tpl.DefaultParameters {
		params[k] = v
	}
	for k, v := range overrides {
		params[k] = v
	}
	for _, req := range tpl.RequiredParameters {
		if v, ok := params[req]; !ok || v == "" {
			p.logger.Warn().
				Str(log.FieldTemplateID, templateID).Str("parameter", req).
				Msg("create: missing required parameter")
			return ""
		}
	}

	rec := &PreConfigured{
		NodeID:     uuid.NewString(),
		TemplateID: templateID,
		Parameters: params,
		CreatedAt:  p.now(),
	}
	p.mu.Lock()
	p.nodes[rec.NodeID] = rec
	p.mu.Unlock()
	return rec.NodeID
}

// Get returns a copy of the record for nodeID.
func (p *Pool) Get(nodeID string) (PreConfigured, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.nodes[nodeID]
	if !ok {
		return PreConfigured{}, false
	}
	return copyRecord(rec), true
}

// List returns copies of all records. When availableOnly is set, in-use
// nodes are filtered out.
func (p *Pool) List(availableOnly bool) []PreConfigured {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PreConfigured, 0, len(p.nodes))
	for _, rec := range p.nodes {
		if availableOnly && rec.InUse {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	return out
}

// MarkInUse flips the exclusion flag on. Rejects a node already in use.
func (p *Pool) MarkInUse(nodeID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.nodes[nodeID]
	if !ok || rec.InUse {
		return false
	}
	rec.InUse = true
	return true
}

// MarkAvailable flips the exclusion flag off. Rejects a node that is
// not in use.
func (p *Pool) MarkAvailable(nodeID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.nodes[nodeID]
	if !ok || !rec.InUse {
		return false
	}
	rec.InUse = false
	return true
}

// Update replaces the parameter overrides of an existing node, keeping
// template defaults underneath. Rejects in-use nodes.
func (p *Pool) Update(nodeID string, overrides map[string]string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.nodes[nodeID]
	if !ok || rec.InUse {
		return false
	}
	tpl, ok := p.templates.Get(rec.TemplateID)
	if !ok {
		return false
	}
	params := make(map[string]string, len(tpl.DefaultParameters)+len(overrides))
	for k, v := range tpl.DefaultParameters {
		params[k] = v
	}
	for k, v := range overrides {
		params[k] = v
	}
	rec.Parameters = params
	return true
}

// Remove deletes the record. Rejects in-use nodes.
func (p *Pool) Remove(nodeID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.nodes[nodeID]
	if !ok || rec.InUse {
		return false
	}
	delete(p.nodes, nodeID)
	return true
}

// Stats returns total and in-use counts.
func (p *Pool) Stats() (total, inUse int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total = len(p.nodes)
	for _, rec := range p.nodes {
		if rec.InUse {
			inUse++
		}
	}
	return total, inUse
}

// BuildSolutionFromNodes materialises a solution whose pipeline mirrors
// the supplied node ids, in order. Returns false on any missing node or
// template.
func (p *Pool) BuildSolutionFromNodes(ids []string, solutionID, solutionName string) (solution.Config, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cfg := solution.Config{
		SolutionID:   solutionID,
		SolutionName: solutionName,
		Pipeline:     make([]solution.NodeSpec, 0, len(ids)),
	}
	for _, id := range ids {
		rec, ok := p.nodes[id]
		if !ok {
			return solution.Config{}, false
		}
		tpl, ok := p.templates.Get(rec.TemplateID)
		if !ok {
			return solution.Config{}, false
		}
		params := make(map[string]string, len(rec.Parameters))
		for k, v := range rec.Parameters {
			params[k] = v
		}
		cfg.Pipeline = append(cfg.Pipeline, solution.NodeSpec{
			NodeType:   tpl.NodeType,
			NodeName:   tpl.NodeType + "_{instanceId}",
			Parameters: params,
		})
	}
	return cfg, true
}

// CreateNodesFromDefaultSolutions walks every node type referenced by
// the default solutions and creates a pre-configured node for each type
// that has none yet. Nodes whose parameters resolve to an unsubstituted
// ${TOKEN} placeholder with no template default for that slot are
// skipped with a warning. Returns the number created.
func (p *Pool) CreateNodesFromDefaultSolutions(solutions *solution.Registry) int {
	logger := log.WithComponent("nodepool")
	existing := map[string]bool{}
	p.mu.RLock()
	for _, rec := range p.nodes {
		existing[rec.TemplateID] = true
	}
	p.mu.RUnlock()

	created := 0
	for _, sol := range solutions.Defaults() {
		for _, spec := range sol.Pipeline {
			if existing[spec.NodeType] {
				continue
			}
			tpl, ok := p.templates.Get(spec.NodeType)
			if !ok {
				logger.Warn().Str(log.FieldTemplateID, spec.NodeType).
					Str(log.FieldSolutionID, sol.SolutionID).
					Msg("default solution references unknown template")
				continue
			}

			overrides := make(map[string]string, len(spec.Parameters))
			skip := false
			for k, v := range spec.Parameters {
				if !IsPlaceholder(v) {
					overrides[k] = v
					continue
				}
				// Placeholder: prefer the template default, otherwise the
				// node cannot be pre-configured for this slot.
				if def, ok := tpl.DefaultParameters[k]; ok {
					overrides[k] = def
					continue
				}
				if requiredSlot(tpl, k) {
					logger.Warn().Str(log.FieldTemplateID, spec.NodeType).
						Str("parameter", k).Str("value", v).
						Msg("skipping node with unresolved required placeholder")
					skip = true
					break
				}
				// Optional slot: drop the placeholder entirely.
			}
			if skip {
				continue
			}
			if id := p.Create(spec.NodeType, overrides); id != "" {
				existing[spec.NodeType] = true
				created++
			}
		}
	}
	return created
}

func requiredSlot(tpl Template, param string) bool {
	for _, req := range tpl.RequiredParameters {
		if req == param {
			return true
		}
	}
	return false
}

func copyRecord(rec *PreConfigured) PreConfigured {
	out := *rec
	out.Parameters = make(map[string]string, len(rec.Parameters))
	for k, v := range rec.Parameters {
		out.Parameters[k] = v
	}
	return out
}
