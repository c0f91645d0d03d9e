// SPDX-License-Identifier: MIT

package config

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvedix/edge-ai-api/internal/core"
)

func newMemStore() *Store {
	return &Store{root: Defaults()}
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, []string{"system", "web_server", "port"}, ParsePath("system.web_server.port"))
	assert.Equal(t, []string{"system", "web_server", "port"}, ParsePath("system/web_server/port"))
	assert.Equal(t, []string{"a", "b"}, ParsePath("a./b/"))
	assert.Empty(t, ParsePath(""))
}

func TestPathSeparatorRoundTrip(t *testing.T) {
	s := newMemStore()
	require.NoError(t, s.SetMerge("a.b.c", float64(42)))

	v, err := s.Get("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, float64(42), v)

	require.NoError(t, s.SetMerge("x/y", "hello"))
	v, err = s.Get("x.y")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestMergeIdempotence(t *testing.T) {
	s := newMemStore()
	patch := map[string]any{"port": float64(4000), "host": "127.0.0.1"}
	require.NoError(t, s.SetMerge("system.web_server", patch))
	first := s.Snapshot()

	require.NoError(t, s.SetMerge("system.web_server", patch))
	assert.Equal(t, first, s.Snapshot())
}

func TestMergeDescendsIntoSubObjects(t *testing.T) {
	s := newMemStore()
	require.NoError(t, s.SetMerge("system.web_server", map[string]any{"port": float64(4000)}))

	// host from defaults survives the merge
	v, err := s.Get("system.web_server.host")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", v)

	v, err = s.Get("system.web_server.port")
	require.NoError(t, err)
	assert.Equal(t, float64(4000), v)
}

func TestReplaceDominance(t *testing.T) {
	s := newMemStore()
	require.NoError(t, s.SetMerge("system.web_server.port", float64(4000)))

	next := map[string]any{"only": "this"}
	require.NoError(t, s.SetReplace(next))

	v, err := s.Get("")
	require.NoError(t, err)
	assert.Equal(t, next, v)

	_, err = s.Get("system")
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestRootMergeRejectsNonObject(t *testing.T) {
	s := newMemStore()
	err := s.SetMerge("", "scalar")
	assert.True(t, core.IsKind(err, core.KindInvalidArgument))
}

func TestDeleteAbsentPath(t *testing.T) {
	s := newMemStore()
	assert.False(t, s.Delete("no.such.path"))
	assert.False(t, s.Delete(""))

	require.NoError(t, s.SetMerge("system.web_server.port", float64(4000)))
	assert.True(t, s.Delete("system.web_server"))
	_, err := s.Get("system.web_server")
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestResetDefaults(t *testing.T) {
	s := newMemStore()
	require.NoError(t, s.SetReplace(map[string]any{"stray": true}))
	require.NoError(t, s.ResetDefaults())
	assert.Equal(t, Defaults(), s.Snapshot())
}

func TestGetReturnsCopy(t *testing.T) {
	s := newMemStore()
	v, err := s.Get("system")
	require.NoError(t, err)
	v.(map[string]any)["mutated"] = true

	_, err = s.Get("system.mutated")
	assert.Error(t, err)
}

func TestPersistenceAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := New(path)
	require.NoError(t, s.SetMerge("system.web_server.port", float64(9000)))

	// A second store over the same file sees the persisted state.
	s2 := New(path)
	assert.Equal(t, 9000, s2.GetInt("system.web_server.port", 0))

	// External change, then reload.
	require.NoError(t, s.SetMerge("system.web_server.port", float64(9100)))
	require.NoError(t, s2.Reload())
	assert.Equal(t, 9100, s2.GetInt("system.web_server.port", 0))
}

func TestConcurrentReadersWriters(t *testing.T) {
	s := newMemStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.SetMerge("system.counter", float64(j))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = s.Get("system.counter")
				_ = s.GetInt("system.web_server.port", 0)
			}
		}()
	}
	wg.Wait()
}

func TestTypedGetters(t *testing.T) {
	s := newMemStore()
	assert.Equal(t, 8080, s.GetInt("system.web_server.port", 1))
	assert.Equal(t, "0.0.0.0", s.GetString("system.web_server.host", ""))
	assert.Equal(t, 7, s.GetInt("missing", 7))
	assert.True(t, s.GetBool("pipeline.rtsp.drop_on_latency", false))
	assert.Equal(t,
		[]string{"jetson", "nvidia", "msdk", "vaapi", "software"},
		s.GetStringSlice("pipeline.decoder_priority_list"))
}
