// SPDX-License-Identifier: MIT

package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("model"), 0o644))
	return path
}

func TestResolvePathPrecedence(t *testing.T) {
	dataRoot := t.TempDir()
	shareDir := t.TempDir()
	writeModel(t, dataRoot, "models/face/yunet.onnx")
	writeModel(t, shareDir, "models/face/yunet.onnx")

	r := NewResolverWithRoots(dataRoot, shareDir)
	got := r.ResolvePath("models/face/yunet.onnx")
	require.NotEmpty(t, got)
	assert.Contains(t, got, dataRoot)

	// With the first root empty, the share dir serves.
	r2 := NewResolverWithRoots(t.TempDir(), shareDir)
	got = r2.ResolvePath("models/face/yunet.onnx")
	assert.Contains(t, got, shareDir)
}

func TestResolvePathMiss(t *testing.T) {
	r := NewResolverWithRoots(t.TempDir())
	assert.Empty(t, r.ResolvePath("models/nope.onnx"))
	assert.Empty(t, r.ResolvePath(""))
}

func TestEnvRootsAreFirst(t *testing.T) {
	dataRoot := t.TempDir()
	t.Setenv("CVEDIX_DATA_ROOT", dataRoot)
	t.Setenv("CVEDIX_SDK_ROOT", "")
	writeModel(t, dataRoot, "models/face/yunet.onnx")

	r := NewResolver()
	got := r.ResolvePath("models/face/yunet.onnx")
	assert.Contains(t, got, dataRoot)
}

func TestResolveNamePatterns(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "models/face/yunet.onnx")
	r := NewResolverWithRoots(root)

	// category-qualified
	assert.NotEmpty(t, r.ResolveName("yunet", "face"))
	// extension already present
	assert.NotEmpty(t, r.ResolveName("yunet.onnx", "face"))
	// contains-match fallback, case-insensitive
	assert.NotEmpty(t, r.ResolveName("YUNET", ""))
	// miss
	assert.Empty(t, r.ResolveName("resnet", "face"))
}

func TestList(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeModel(t, rootA, "face/yunet.onnx")
	writeModel(t, rootB, "face/yunet.onnx") // shadowed duplicate
	writeModel(t, rootB, "lpr/plates.rknn")
	writeModel(t, rootB, "notes.txt") // not a model

	r := NewResolverWithRoots(rootA, rootB)
	list := r.List()
	assert.ElementsMatch(t, []string{
		filepath.Join("face", "yunet.onnx"),
		filepath.Join("lpr", "plates.rknn"),
	}, list)
}

func TestMapDetectionSensitivity(t *testing.T) {
	assert.Equal(t, 0.5, MapDetectionSensitivity("Low"))
	assert.Equal(t, 0.7, MapDetectionSensitivity("Medium"))
	assert.Equal(t, 0.9, MapDetectionSensitivity("High"))
	assert.Equal(t, 0.7, MapDetectionSensitivity("bogus"))
	assert.Equal(t, 0.7, MapDetectionSensitivity(""))
}
