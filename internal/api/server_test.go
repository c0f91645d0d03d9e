// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvedix/edge-ai-api/internal/builder"
	"github.com/cvedix/edge-ai-api/internal/config"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/factory"
	"github.com/cvedix/edge-ai-api/internal/instance"
	"github.com/cvedix/edge-ai-api/internal/models"
	"github.com/cvedix/edge-ai-api/internal/nodes"
	"github.com/cvedix/edge-ai-api/internal/platform"
	"github.com/cvedix/edge-ai-api/internal/securt"
	"github.com/cvedix/edge-ai-api/internal/solution"
)

type testEnv struct {
	srv     *httptest.Server
	cfg     *config.Store
	manager *instance.Manager
	pool    *nodes.Pool
	outDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	modelRoot := t.TempDir()
	for _, rel := range []string{"models/face/yunet.onnx", "models/object/yolov8n.onnx"} {
		path := filepath.Join(modelRoot, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("m"), 0o644))
	}
	cfg := config.New("")
	templates := nodes.NewRegistry()
	solutions := solution.NewRegistry()
	pool := nodes.NewPool(templates)
	f := factory.New(cfg, platform.NewProbe(), models.NewResolverWithRoots(modelRoot))
	b := builder.New(solutions, templates, f, engine.NewInProc())
	mgr := instance.NewManager(cfg, b, instance.NewRegistry())
	facade := securt.NewManager(mgr)
	mgr.SetOnDelete(facade.OnCoreDelete)

	srv := httptest.NewServer(NewServer(cfg, mgr, facade, pool, templates, solutions).Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, cfg: cfg, manager: mgr, pool: pool, outDir: t.TempDir()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (e *testEnv) quickBody() map[string]any {
	return map[string]any{
		"name":         "t1",
		"solutionType": "face_detection",
		"input":        map[string]any{"type": "file"},
		"additionalParams": map[string]any{
			"OUTPUT_DIR": e.outDir,
		},
	}
}

func TestQuickCreateFaceDetectionFile(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/v1/core/instance/quick", env.quickBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, _ := body["instanceId"].(string)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "instanceId %q should be a UUID", id)
	assert.Equal(t, "face_detection_file_default", body["solutionId"])
	assert.Equal(t, false, body["running"])

	params, _ := body["additionalParams"].(map[string]any)
	assert.Equal(t, "/opt/edge_ai_api/videos/face.mp4", params["FILE_PATH"])
}

func TestQuickCreateAdmissionDenied(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.cfg.SetMerge("system.max_running_instances", float64(1)))

	resp, _ := env.do(t, http.MethodPost, "/v1/core/instance/quick", env.quickBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/v1/core/instance/quick", env.quickBody())
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too Many Requests", body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestQuickCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/v1/core/instance/quick", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Bad Request", body["error"])
}

func TestInstanceLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.do(t, http.MethodPost, "/v1/core/instance/quick", env.quickBody())
	id := created["instanceId"].(string)

	resp, body := env.do(t, http.MethodPost, "/v1/core/instance/"+id+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["running"])

	resp, body = env.do(t, http.MethodGet, "/v1/core/instance/"+id+"/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["isRunning"])

	resp, body = env.do(t, http.MethodPost, "/v1/core/instance/"+id+"/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["running"])

	resp, body = env.do(t, http.MethodGet, "/v1/core/instances", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])

	resp, _ = env.do(t, http.MethodDelete, "/v1/core/instance/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/v1/core/instance/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", body["error"])
}

func TestConfigPathCRUD(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPatch, "/v1/core/config/system/web_server",
		map[string]any{"port": 4000})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/v1/core/config/system/web_server/port", nil)
	require.NoError(t, err)
	raw, err := env.srv.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	var port float64
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&port))
	assert.Equal(t, float64(4000), port)

	resp, _ = env.do(t, http.MethodDelete, "/v1/core/config/system/web_server", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/v1/core/config/system/web_server", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// reset restores the defaults
	resp, _ = env.do(t, http.MethodPost, "/v1/core/config/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/v1/core/config/system/web_server", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNodesListFallsBackToTemplates(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/v1/core/nodes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "templates", body["type"])
	assert.NotZero(t, body["total"])

	list := body["nodes"].([]any)
	for _, n := range list {
		assert.Equal(t, true, n.(map[string]any)["isTemplate"])
	}
}

func TestNodeCRUD(t *testing.T) {
	env := newTestEnv(t)
	resp, created := env.do(t, http.MethodPost, "/v1/core/nodes",
		map[string]any{"templateId": "file_src"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["nodeId"].(string)

	resp, body := env.do(t, http.MethodGet, "/v1/core/nodes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nodes", body["type"])
	assert.EqualValues(t, 1, body["total"])

	resp, _ = env.do(t, http.MethodPut, "/v1/core/nodes/"+id,
		map[string]any{"parameters": map[string]any{"FILE_PATH": "/tmp/x.mp4"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// in-use nodes refuse mutation
	require.True(t, env.pool.MarkInUse(id))
	resp, body = env.do(t, http.MethodDelete, "/v1/core/nodes/"+id, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Conflict", body["error"])
	require.True(t, env.pool.MarkAvailable(id))

	resp, _ = env.do(t, http.MethodDelete, "/v1/core/nodes/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/v1/core/nodes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/v1/core/nodes/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["total"])
}

func TestTemplateEndpoints(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/v1/core/nodes/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "templates", body["type"])

	resp, body = env.do(t, http.MethodGet, "/v1/core/nodes/templates/face_detector", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "face_detector", body["templateId"])

	resp, _ = env.do(t, http.MethodGet, "/v1/core/nodes/templates/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSecurtLineEndpoints(t *testing.T) {
	env := newTestEnv(t)
	resp, created := env.do(t, http.MethodPost, "/v1/securt/instance", map[string]any{
		"name":       "s1",
		"solutionId": "securt_rtsp_default",
		"inputType":  "rtsp",
		"inputUrl":   "rtsp://cam/1",
		"autoStart":  true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["instanceId"].(string)

	resp, line := env.do(t, http.MethodPost,
		fmt.Sprintf("/v1/securt/instance/%s/line/crossing", id),
		map[string]any{
			"coordinates": []map[string]any{{"x": 0, "y": 0}, {"x": 100, "y": 100}},
			"direction":   "Both",
			"classes":     []string{"Vehicle"},
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	lineID := line["lineId"].(string)
	require.NotEmpty(t, lineID)

	// the instance is still running after the mutation
	rec, err := env.manager.Get(id)
	require.NoError(t, err)
	assert.True(t, rec.Running)

	resp, lines := env.do(t, http.MethodGet, "/v1/securt/instance/"+id+"/lines", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	crossing := lines["crossing"].([]any)
	require.Len(t, crossing, 1)
	assert.Equal(t, lineID, crossing[0].(map[string]any)["lineId"])

	resp, entities := env.do(t, http.MethodGet, "/v1/securt/instance/"+id+"/analytics_entities", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, entities["lines"], 1)

	resp, _ = env.do(t, http.MethodDelete,
		fmt.Sprintf("/v1/securt/instance/%s/line/crossing/%s", id, lineID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/v1/securt/instance/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/v1/securt/instance/"+id+"/lines", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSecurtUnknownInstance(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/v1/securt/instance/nope/stats", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/v1/core/instances", nil)
	require.NoError(t, err)
	resp, err := env.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRequestIDPropagated(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "rid-123")
	resp, err := env.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "rid-123", resp.Header.Get("X-Request-ID"))
}
