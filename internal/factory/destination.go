// SPDX-License-Identifier: MIT

package factory

import (
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/nodes"
)

func (f *Factory) buildDestination(nodeType, name string, params map[string]string, req *model.CreateInstanceRequest, instanceID string, usedRTMPKeys map[string]struct{}) (engine.Node, error) {
	switch nodeType {
	case "file_des":
		dir := params["OUTPUT_DIR"]
		if dir == "" || nodes.IsPlaceholder(dir) {
			return nil, core.InvalidArgumentf("file destination %s: OUTPUT_DIR is required", name)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, core.Wrap(core.KindDependencyUnavailable, "create output dir "+dir, err)
		}
		return newNode(nodeType, name, nodes.CategoryDestination, params), nil

	case "rtmp_des":
		rtmpURL := params["RTMP_URL"]
		if rtmpURL == "" || nodes.IsPlaceholder(rtmpURL) {
			// Optional dependency absent: elide the node.
			f.logger.Debug().Str(log.FieldNode, name).Msg("rtmp destination elided, no URL")
			return nil, nil
		}
		unique := UniqueRTMPURL(rtmpURL, instanceID, usedRTMPKeys)
		if unique != rtmpURL {
			f.logger.Info().Str(log.FieldNode, name).
				Str("requested", rtmpURL).Str(log.FieldURL, unique).
				Msg("rtmp stream key collision, suffixed with instance id")
		}
		params["RTMP_URL"] = unique
		if usedRTMPKeys != nil {
			usedRTMPKeys[StreamKey(unique)] = struct{}{}
		}
		return newNode(nodeType, name, nodes.CategoryDestination, params), nil

	case "rtsp_des":
		if params["RTSP_DES_URL"] == "" || nodes.IsPlaceholder(params["RTSP_DES_URL"]) {
			f.logger.Debug().Str(log.FieldNode, name).Msg("rtsp destination elided, no URL")
			return nil, nil
		}
		return newNode(nodeType, name, nodes.CategoryDestination, params), nil

	case "screen_des":
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			f.logger.Debug().Str(log.FieldNode, name).Msg("screen destination elided, no display")
			return nil, nil
		}
		return newNode(nodeType, name, nodes.CategoryDestination, params), nil

	default:
		return nil, core.InvalidArgumentf("unknown destination type %q", nodeType)
	}
}

// StreamKey extracts the RTMP stream key: the last path segment, with a
// trailing "_0" suffix stripped if present.
func StreamKey(rtmpURL string) string {
	key := rtmpURL
	if u, err := url.Parse(rtmpURL); err == nil && u.Path != "" {
		key = path.Base(u.Path)
	} else if idx := strings.LastIndex(rtmpURL, "/"); idx >= 0 {
		key = rtmpURL[idx+1:]
	}
	return strings.TrimSuffix(key, "_0")
}

// UniqueRTMPURL keeps the URL verbatim when its stream key is free. On
// a collision with the used set, a short prefix of the instance id is
// appended to the key.
func UniqueRTMPURL(rtmpURL, instanceID string, used map[string]struct{}) string {
	key := StreamKey(rtmpURL)
	if _, collides := used[key]; !collides {
		return rtmpURL
	}
	suffix := instanceID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	idx := strings.LastIndex(rtmpURL, key)
	if idx < 0 {
		return rtmpURL + "_" + suffix
	}
	return rtmpURL[:idx] + key + "_" + suffix + rtmpURL[idx+len(key):]
}
