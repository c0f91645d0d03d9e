// SPDX-License-Identifier: MIT

package factory

import (
	"strconv"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/models"
	"github.com/cvedix/edge-ai-api/internal/nodes"
)

func (f *Factory) buildDetector(nodeType, name string, params map[string]string, req *model.CreateInstanceRequest) (engine.Node, error) {
	// Motion detection needs no model file.
	if nodeType != "motion_detector" {
		ref := params["model"]
		if ref == "" || nodes.IsPlaceholder(ref) {
			return nil, core.InvalidArgumentf("detector %s: model is required", name)
		}
		resolved := f.resolver.ResolvePath(ref)
		if resolved == "" {
			category := "object"
			if nodeType == "face_detector" {
				category = "face"
			}
			resolved = f.resolver.ResolveName(ref, category)
		}
		if resolved == "" {
			return nil, core.DependencyUnavailablef("detector %s: model %q not found in search chain", name, ref)
		}
		params["model"] = resolved
		f.logger.Info().Str(log.FieldNode, name).Str(log.FieldModel, resolved).Msg("model resolved")
	}

	// The sensitivity knob sets the confidence threshold unless an
	// explicit threshold was supplied.
	if raw, ok := params["threshold"]; ok && raw != "" && !nodes.IsPlaceholder(raw) {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 1 {
			return nil, core.InvalidArgumentf("detector %s: invalid threshold %q", name, raw)
		}
	} else {
		sensitivity := ""
		if req != nil {
			sensitivity = req.DetectionSensitivity
		}
		params["threshold"] = strconv.FormatFloat(models.MapDetectionSensitivity(sensitivity), 'f', 1, 64)
	}

	return newNode(nodeType, name, nodes.CategoryDetector, params), nil
}
