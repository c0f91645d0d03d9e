// SPDX-License-Identifier: MIT

package factory

import (
	"os"
	"strconv"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/nodes"
)

func (f *Factory) buildSource(nodeType, name string, params map[string]string, req *model.CreateInstanceRequest) (engine.Node, error) {
	ratio, err := f.resolveResizeRatio(nodeType, params)
	if err != nil {
		return nil, err
	}
	params["resize_ratio"] = strconv.FormatFloat(ratio, 'f', -1, 64)

	// Decoder selection: first supported tag from the configured
	// priority list wins; the fallback is software H.264.
	priority := f.cfg.GetStringSlice("pipeline.decoder_priority_list")
	decoder := f.probe.DefaultDecoder(priority)
	params["decoder"] = decoder
	f.logger.Debug().Str(log.FieldNode, name).Str(log.FieldDecoder, decoder).Msg("decoder selected")

	// Required source slots reject placeholder residue: an unbound
	// ${TOKEN} means the request never supplied the endpoint.
	missing := func(key string) bool {
		v := params[key]
		return v == "" || nodes.IsPlaceholder(v)
	}
	switch nodeType {
	case "file_src":
		if missing("FILE_PATH") {
			return nil, core.InvalidArgumentf("file source %s: FILE_PATH is required", name)
		}
	case "rtsp_src":
		if missing("RTSP_URL") {
			return nil, core.InvalidArgumentf("rtsp source %s: RTSP_URL is required", name)
		}
		f.applyRTSPTransport(params, req)
	case "rtmp_src":
		if missing("RTMP_SRC_URL") {
			return nil, core.InvalidArgumentf("rtmp source %s: RTMP_SRC_URL is required", name)
		}
	case "udp_src":
		port, err := strconv.Atoi(params["UDP_PORT"])
		if err != nil || port <= 0 || port > 65535 {
			return nil, core.InvalidArgumentf("udp source %s: invalid UDP_PORT %q", name, params["UDP_PORT"])
		}
	case "hls_src":
		if missing("HLS_URL") {
			return nil, core.InvalidArgumentf("hls source %s: HLS_URL is required", name)
		}
	default:
		return nil, core.InvalidArgumentf("unknown source type %q", nodeType)
	}

	return newNode(nodeType, name, nodes.CategorySource, params), nil
}

// resolveResizeRatio validates resize_ratio into (0, 1]. Strict input
// out of range is InvalidArgument; placeholder residue clamps to 1.0
// with a warning.
func (f *Factory) resolveResizeRatio(nodeType string, params map[string]string) (float64, error) {
	raw, ok := params["resize_ratio"]
	if !ok || raw == "" {
		return 1.0, nil
	}
	if nodes.IsPlaceholder(raw) {
		f.logger.Warn().Str("value", raw).Str("node_type", nodeType).
			Msg("resize_ratio placeholder residue, clamping to 1.0")
		return 1.0, nil
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, core.InvalidArgumentf("resize_ratio %q is not a number", raw)
	}
	if ratio <= 0 || ratio > 1 {
		return 0, core.InvalidArgumentf("resize_ratio %v out of range (0, 1]", ratio)
	}
	return ratio, nil
}

// applyRTSPTransport honours RTSP_TRANSPORT from the request, then the
// GST_RTSP_PROTOCOLS environment. Unset leaves the engine default.
func (f *Factory) applyRTSPTransport(params map[string]string, req *model.CreateInstanceRequest) {
	transport := ""
	if req != nil && req.RTSPTransport != "" {
		transport = req.RTSPTransport
	} else if v, ok := params["RTSP_TRANSPORT"]; ok && !nodes.IsPlaceholder(v) {
		transport = v
	} else if env := os.Getenv("GST_RTSP_PROTOCOLS"); env != "" {
		transport = env
	}
	if transport != "tcp" && transport != "udp" {
		delete(params, "RTSP_TRANSPORT")
		return
	}
	params["RTSP_TRANSPORT"] = transport
	// The engine reads the forced transport from the environment.
	if err := os.Setenv("GST_RTSP_PROTOCOLS", transport); err != nil {
		f.logger.Warn().Err(err).Msg("failed to set GST_RTSP_PROTOCOLS")
	}
}
