// SPDX-License-Identifier: MIT

// Package factory constructs opaque node handles from templates and
// resolved parameters, one constructor family per category.
//
// Constructor contract: a non-empty node name, a string parameter map,
// and, for request-aware nodes, the originating create request plus the
// target instance id. A nil node with a nil error means the node is
// deliberately elided (optional dependency absent); the builder drops
// it from the graph silently.
package factory

import (
	"github.com/rs/zerolog"

	"github.com/cvedix/edge-ai-api/internal/config"
	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/metrics"
	"github.com/cvedix/edge-ai-api/internal/models"
	"github.com/cvedix/edge-ai-api/internal/nodes"
	"github.com/cvedix/edge-ai-api/internal/platform"
)

// Factory builds node handles. One instance serves all categories.
type Factory struct {
	cfg      *config.Store
	probe    *platform.Probe
	resolver *models.Resolver
	logger   zerolog.Logger
}

// New wires the factory's dependencies.
func New(cfg *config.Store, probe *platform.Probe, resolver *models.Resolver) *Factory {
	return &Factory{
		cfg:      cfg,
		probe:    probe,
		resolver: resolver,
		logger:   log.WithComponent("factory"),
	}
}

// Build dispatches to the category-appropriate constructor.
// usedRTMPKeys is the set of stream keys already claimed by sibling
// instances; destination constructors consult and extend it.
func (f *Factory) Build(
	category nodes.Category,
	nodeType, name string,
	params map[string]string,
	req *model.CreateInstanceRequest,
	instanceID string,
	usedRTMPKeys map[string]struct{},
) (n engine.Node, err error) {
	if name == "" {
		return nil, core.InvalidArgumentf("node of type %s has empty name", nodeType)
	}
	defer func() {
		outcome := "built"
		switch {
		case err != nil:
			outcome = "failed"
		case n == nil:
			outcome = "skipped"
		}
		metrics.NodeBuildTotal.WithLabelValues(string(category), outcome).Inc()
	}()

	switch category {
	case nodes.CategorySource:
		return f.buildSource(nodeType, name, params, req)
	case nodes.CategoryDetector:
		return f.buildDetector(nodeType, name, params, req)
	case nodes.CategoryProcessor:
		return f.buildProcessor(nodeType, name, params, req)
	case nodes.CategoryDestination:
		return f.buildDestination(nodeType, name, params, req, instanceID, usedRTMPKeys)
	case nodes.CategoryBroker:
		return f.buildBroker(nodeType, name, params, instanceID)
	case nodes.CategoryOther:
		return newNode(nodeType, name, category, params), nil
	default:
		return nil, core.InvalidArgumentf("unknown node category %q", category)
	}
}
