// SPDX-License-Identifier: MIT

package factory

import (
	"os"
	"strconv"
	"sync"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/nodes"
)

func (f *Factory) buildProcessor(nodeType, name string, params map[string]string, req *model.CreateInstanceRequest) (engine.Node, error) {
	switch nodeType {
	case "tracker":
		if raw, ok := params["max_age"]; ok && raw != "" && !nodes.IsPlaceholder(raw) {
			if v, err := strconv.Atoi(raw); err != nil || v <= 0 {
				return nil, core.InvalidArgumentf("tracker %s: invalid max_age %q", name, raw)
			}
		}
		return newNode(nodeType, name, nodes.CategoryProcessor, params), nil

	case "osd":
		params["font_path"] = f.resolveFont(params, req)
		return newNode(nodeType, name, nodes.CategoryProcessor, params), nil

	case "crossline_analytics", "area_analytics":
		n := newNode(nodeType, name, nodes.CategoryProcessor, params)
		// Analytics nodes accept in-place entity updates while running;
		// the retained document survives restarts of the same graph.
		var mu sync.Mutex
		var current map[string]any
		n.applyFn = func(doc map[string]any) bool {
			mu.Lock()
			defer mu.Unlock()
			current = doc
			return true
		}
		n.configFn = func() map[string]any {
			mu.Lock()
			defer mu.Unlock()
			return current
		}
		return n, nil

	case "motion_detector":
		return newNode(nodeType, name, nodes.CategoryProcessor, params), nil

	default:
		return nil, core.InvalidArgumentf("unknown processor type %q", nodeType)
	}
}

// resolveFont applies the overlay font cascade: request override >
// parameter > production default > environment default > empty (engine
// default). A font path that does not exist falls back to empty with a
// warning, mirroring the engine's load-retry.
func (f *Factory) resolveFont(params map[string]string, req *model.CreateInstanceRequest) string {
	candidates := []string{}
	if req != nil && req.AdditionalParams["FONT_PATH"] != "" {
		candidates = append(candidates, req.AdditionalParams["FONT_PATH"])
	}
	if v := params["font_path"]; v != "" && !nodes.IsPlaceholder(v) {
		candidates = append(candidates, v)
	}
	if v := f.cfg.GetString("pipeline.default_font", ""); v != "" {
		candidates = append(candidates, v)
	}
	if v := os.Getenv("EDGE_AI_FONT"); v != "" {
		candidates = append(candidates, v)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	if len(candidates) > 0 {
		f.logger.Warn().Str(log.FieldPath, candidates[0]).
			Msg("no overlay font loadable, using engine default")
	}
	return ""
}
