// SPDX-License-Identifier: MIT

package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvedix/edge-ai-api/internal/config"
	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/models"
	"github.com/cvedix/edge-ai-api/internal/nodes"
	"github.com/cvedix/edge-ai-api/internal/platform"
)

func testFactory(t *testing.T) *Factory {
	t.Helper()
	modelRoot := t.TempDir()
	for _, rel := range []string{"models/face/yunet.onnx", "models/object/yolov8n.onnx"} {
		path := filepath.Join(modelRoot, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("m"), 0o644))
	}
	cfg := config.New("")
	return New(cfg, platform.NewProbe(), models.NewResolverWithRoots(modelRoot))
}

func TestBuildRejectsEmptyName(t *testing.T) {
	f := testFactory(t)
	_, err := f.Build(nodes.CategorySource, "file_src", "", map[string]string{"FILE_PATH": "/tmp/a.mp4"}, nil, "i1", nil)
	assert.True(t, core.IsKind(err, core.KindInvalidArgument))
}

func TestFileSource(t *testing.T) {
	f := testFactory(t)
	n, err := f.Build(nodes.CategorySource, "file_src", "file_src_i1",
		map[string]string{"FILE_PATH": "/tmp/in.mp4"}, nil, "i1", nil)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "file_src_i1", n.Name())
	assert.Equal(t, "source", n.Category())

	// decoder bound from the priority list (software fallback in CI)
	fn := n.(interface{ Parameters() map[string]string })
	assert.NotEmpty(t, fn.Parameters()["decoder"])

	_, err = f.Build(nodes.CategorySource, "file_src", "x", map[string]string{}, nil, "i1", nil)
	assert.True(t, core.IsKind(err, core.KindInvalidArgument))
}

func TestResizeRatioValidation(t *testing.T) {
	f := testFactory(t)
	base := func(extra map[string]string) map[string]string {
		p := map[string]string{"FILE_PATH": "/tmp/in.mp4"}
		for k, v := range extra {
			p[k] = v
		}
		return p
	}

	// strict out-of-range values fail
	for _, bad := range []string{"0", "-0.5", "1.5", "abc"} {
		_, err := f.Build(nodes.CategorySource, "file_src", "n", base(map[string]string{"resize_ratio": bad}), nil, "i1", nil)
		assert.True(t, core.IsKind(err, core.KindInvalidArgument), "resize_ratio=%s", bad)
	}

	// valid value passes through
	n, err := f.Build(nodes.CategorySource, "file_src", "n", base(map[string]string{"resize_ratio": "0.5"}), nil, "i1", nil)
	require.NoError(t, err)
	assert.Equal(t, "0.5", n.(interface{ Parameters() map[string]string }).Parameters()["resize_ratio"])

	// placeholder residue clamps with a warning instead of failing
	n, err = f.Build(nodes.CategorySource, "file_src", "n", base(map[string]string{"resize_ratio": "${RESIZE}"}), nil, "i1", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", n.(interface{ Parameters() map[string]string }).Parameters()["resize_ratio"])
}

func TestRTSPTransportFromRequest(t *testing.T) {
	f := testFactory(t)
	t.Setenv("GST_RTSP_PROTOCOLS", "")
	req := &model.CreateInstanceRequest{RTSPTransport: "tcp"}
	n, err := f.Build(nodes.CategorySource, "rtsp_src", "rtsp_src_i1",
		map[string]string{"RTSP_URL": "rtsp://cam/1"}, req, "i1", nil)
	require.NoError(t, err)
	assert.Equal(t, "tcp", n.(interface{ Parameters() map[string]string }).Parameters()["RTSP_TRANSPORT"])
	assert.Equal(t, "tcp", os.Getenv("GST_RTSP_PROTOCOLS"))
}

func TestDetectorResolvesModel(t *testing.T) {
	f := testFactory(t)
	n, err := f.Build(nodes.CategoryDetector, "face_detector", "det_i1",
		map[string]string{"model": "models/face/yunet.onnx"},
		&model.CreateInstanceRequest{DetectionSensitivity: "High"}, "i1", nil)
	require.NoError(t, err)
	params := n.(interface{ Parameters() map[string]string }).Parameters()
	assert.True(t, filepath.IsAbs(params["model"]))
	assert.Equal(t, "0.9", params["threshold"])
}

func TestDetectorMissingModel(t *testing.T) {
	f := testFactory(t)
	_, err := f.Build(nodes.CategoryDetector, "face_detector", "det",
		map[string]string{"model": "models/face/nope.onnx"}, nil, "i1", nil)
	assert.True(t, core.IsKind(err, core.KindDependencyUnavailable))

	_, err = f.Build(nodes.CategoryDetector, "face_detector", "det",
		map[string]string{"model": "${MODEL}"}, nil, "i1", nil)
	assert.True(t, core.IsKind(err, core.KindInvalidArgument))
}

func TestFileDestinationCreatesDir(t *testing.T) {
	f := testFactory(t)
	out := filepath.Join(t.TempDir(), "clips", "i1")
	n, err := f.Build(nodes.CategoryDestination, "file_des", "file_des_i1",
		map[string]string{"OUTPUT_DIR": out}, nil, "i1", nil)
	require.NoError(t, err)
	require.NotNil(t, n)
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRTMPDestinationElidedWithoutURL(t *testing.T) {
	f := testFactory(t)
	n, err := f.Build(nodes.CategoryDestination, "rtmp_des", "rtmp_des_i1",
		map[string]string{}, nil, "i1", nil)
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = f.Build(nodes.CategoryDestination, "rtmp_des", "rtmp_des_i1",
		map[string]string{"RTMP_URL": "${RTMP_URL}"}, nil, "i1", nil)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestScreenDestinationElidedWithoutDisplay(t *testing.T) {
	f := testFactory(t)
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	n, err := f.Build(nodes.CategoryDestination, "screen_des", "screen_i1", map[string]string{}, nil, "i1", nil)
	require.NoError(t, err)
	assert.Nil(t, n)

	t.Setenv("DISPLAY", ":0")
	n, err = f.Build(nodes.CategoryDestination, "screen_des", "screen_i1", map[string]string{}, nil, "i1", nil)
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestBrokersElidedWithoutURL(t *testing.T) {
	f := testFactory(t)
	n, err := f.Build(nodes.CategoryBroker, "mqtt_broker", "mqtt_i1",
		map[string]string{"MQTT_URL": "${MQTT_URL}"}, nil, "i1", nil)
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = f.Build(nodes.CategoryBroker, "kafka_broker", "kafka_i1", map[string]string{}, nil, "i1", nil)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestConsoleBrokerPublishes(t *testing.T) {
	f := testFactory(t)
	n, err := f.Build(nodes.CategoryBroker, "console_broker", "console_i1", nil, nil, "i1", nil)
	require.NoError(t, err)
	pub, ok := n.(Publisher)
	require.True(t, ok)
	assert.NoError(t, pub.Publish("events", []byte(`{"kind":"test"}`)))
}

func TestAnalyticsNodeAppliesConfigInPlace(t *testing.T) {
	f := testFactory(t)
	n, err := f.Build(nodes.CategoryProcessor, "crossline_analytics", "cl_i1", nil, nil, "i1", nil)
	require.NoError(t, err)
	upd, ok := n.(interface{ ApplyConfig(map[string]any) bool })
	require.True(t, ok)
	doc := map[string]any{"lines": []any{map[string]any{"name": "gate"}}}
	assert.True(t, upd.ApplyConfig(doc))

	// the applied document is retained on the node
	cfg, ok := n.(interface{ Config() map[string]any })
	require.True(t, ok)
	assert.Equal(t, doc, cfg.Config())

	// a second apply replaces it
	assert.True(t, upd.ApplyConfig(map[string]any{"lines": []any{}}))
	assert.Equal(t, map[string]any{"lines": []any{}}, cfg.Config())

	// tracker does not support in-place updates and retains nothing
	tr, err := f.Build(nodes.CategoryProcessor, "tracker", "tr_i1", nil, nil, "i1", nil)
	require.NoError(t, err)
	assert.False(t, tr.(interface{ ApplyConfig(map[string]any) bool }).ApplyConfig(nil))
	assert.Nil(t, tr.(interface{ Config() map[string]any }).Config())
}
