// SPDX-License-Identifier: MIT

// Package builder materialises a solution recipe into an ordered list
// of concrete nodes: template lookup, placeholder resolution against
// the request, unique external resource allocation, then node
// construction and engine wiring.
package builder

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/factory"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/nodes"
	"github.com/cvedix/edge-ai-api/internal/solution"
)

// Builder realises instances from solution recipes.
type Builder struct {
	solutions *solution.Registry
	templates *nodes.Registry
	factory   *factory.Factory
	engine    engine.Engine
	logger    zerolog.Logger
}

// New wires the builder's dependencies.
func New(solutions *solution.Registry, templates *nodes.Registry, f *factory.Factory, e engine.Engine) *Builder {
	return &Builder{
		solutions: solutions,
		templates: templates,
		factory:   f,
		engine:    e,
		logger:    log.WithComponent("builder"),
	}
}

// Result is a realised instance graph plus the parameter binding that
// produced it, kept so later updates can be diffed.
type Result struct {
	Nodes   []engine.Node
	Graph   engine.GraphHandle
	Binding map[string]string
	RTMPURL string
	RTSPURL string
}

// Build realises the request's solution for instanceID. usedRTMPKeys
// is the stream-key set claimed by sibling instances; keys allocated
// during this build are added to it. On any failure every
// partially-built node is destroyed and every stream key claimed by
// this build is released before returning.
func (b *Builder) Build(ctx context.Context, req *model.CreateInstanceRequest, instanceID string, usedRTMPKeys map[string]struct{}) (*Result, error) {
	sol, ok := b.solutions.Get(req.SolutionID)
	if !ok {
		return nil, core.NotFoundf("solution %q not found", req.SolutionID)
	}
	logger := b.logger.With().
		Str(log.FieldInstanceID, instanceID).
		Str(log.FieldSolutionID, sol.SolutionID).Logger()

	if usedRTMPKeys == nil {
		usedRTMPKeys = map[string]struct{}{}
	}

	res := &Result{Binding: map[string]string{}}
	var claimedKeys []string
	fail := func(err error) (*Result, error) {
		for _, n := range res.Nodes {
			n.Destroy()
		}
		for _, k := range claimedKeys {
			delete(usedRTMPKeys, k)
		}
		return nil, err
	}

	for _, spec := range sol.Pipeline {
		name := strings.ReplaceAll(spec.NodeName, "{instanceId}", instanceID)

		tpl, ok := b.templates.Get(spec.NodeType)
		if !ok {
			return fail(core.InvalidArgumentf("solution %s references unknown node type %q", sol.SolutionID, spec.NodeType))
		}

		params := b.resolveParams(spec, tpl, req)

		node, err := b.factory.Build(tpl.Category, tpl.NodeType, name, params, req, instanceID, usedRTMPKeys)
		if err != nil {
			logger.Error().Err(err).
				Str(log.FieldTemplateID, tpl.TemplateID).
				Str(log.FieldNode, name).
				Msg("node build failed")
			return fail(err)
		}
		if node == nil {
			// Optional dependency absent; the node drops out silently.
			continue
		}
		res.Nodes = append(res.Nodes, node)

		for k, v := range params {
			if _, exists := res.Binding[k]; !exists {
				res.Binding[k] = v
			}
		}
		switch tpl.NodeType {
		case "rtmp_des":
			res.RTMPURL = params["RTMP_URL"]
			claimedKeys = append(claimedKeys, factory.StreamKey(res.RTMPURL))
		case "rtsp_des":
			res.RTSPURL = params["RTSP_DES_URL"]
		}
	}

	if len(res.Nodes) == 0 {
		return fail(core.InvalidArgumentf("solution %s produced an empty graph", sol.SolutionID))
	}

	graph, err := b.engine.Build(ctx, instanceID, res.Nodes)
	if err != nil {
		return fail(core.Wrap(core.KindDependencyUnavailable, "wire graph", err))
	}
	res.Graph = graph

	logger.Info().Int("nodes", len(res.Nodes)).Msg("pipeline built")
	return res, nil
}

// resolveParams merges recipe parameters with request overrides (the
// request side wins) and binds ${TOKEN} placeholders from the request,
// the environment, then template defaults. Unresolved placeholders stay
// in place; the factory decides skip-or-abort per category.
func (b *Builder) resolveParams(spec solution.NodeSpec, tpl nodes.Template, req *model.CreateInstanceRequest) map[string]string {
	params := make(map[string]string, len(tpl.DefaultParameters)+len(spec.Parameters))
	for k, v := range tpl.DefaultParameters {
		params[k] = v
	}
	for k, v := range spec.Parameters {
		params[k] = v
	}
	for k, v := range req.AdditionalParams {
		if _, known := params[k]; known || isWellKnownToken(k) {
			params[k] = v
		}
	}

	for k, v := range params {
		if !nodes.IsPlaceholder(v) {
			params[k] = rewriteDevPath(v)
			continue
		}
		token := strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}")
		if bound, ok := b.bindToken(token, tpl, req); ok {
			params[k] = rewriteDevPath(bound)
		}
	}
	return params
}

// bindToken resolves one ${TOKEN}: explicit request params, request
// fields, recognised environment variables, then template defaults.
func (b *Builder) bindToken(token string, tpl nodes.Template, req *model.CreateInstanceRequest) (string, bool) {
	if v, ok := req.AdditionalParams[token]; ok && v != "" {
		return v, true
	}
	switch token {
	case "FILE_PATH":
		if req.InputType == "file" && req.InputURL != "" {
			return req.InputURL, true
		}
	case "RTSP_URL":
		if req.InputType == "rtsp" && req.InputURL != "" {
			return req.InputURL, true
		}
		if v := firstEnv("RTSP_URL", "RTSP_SRC_URL"); v != "" {
			return v, true
		}
	case "RTMP_URL":
		if req.OutputType == "rtmp" && req.OutputURL != "" {
			return req.OutputURL, true
		}
		if v := firstEnv("RTMP_URL", "RTMP_DES_URL"); v != "" {
			return v, true
		}
	case "HLS_URL", "RTMP_SRC_URL", "UDP_PORT":
		if req.InputURL != "" {
			return req.InputURL, true
		}
	}
	if v, ok := tpl.DefaultParameters[token]; ok && v != "" {
		return v, true
	}
	return "", false
}

// isWellKnownToken lets request overrides introduce parameters the
// recipe did not declare.
func isWellKnownToken(k string) bool {
	switch k {
	case "FILE_PATH", "RTSP_URL", "RTMP_URL", "MQTT_URL", "KAFKA_BROKERS",
		"FONT_PATH", "RTSP_TRANSPORT", "resize_ratio", "threshold", "topic":
		return true
	}
	return false
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// devPathRewrites maps development prefixes to production locations,
// first match wins.
var devPathRewrites = [][2]string{
	{"./cvedix_data/test_video/", "/opt/edge_ai_api/videos/"},
	{"./cvedix_data/models/", "/opt/edge_ai_api/models/"},
	{"./cvedix_data/", "/opt/edge_ai_api/data/"},
}

func rewriteDevPath(v string) string {
	for _, rw := range devPathRewrites {
		if strings.HasPrefix(v, rw[0]) {
			return rw[1] + strings.TrimPrefix(v, rw[0])
		}
	}
	return v
}
