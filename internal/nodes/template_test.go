// SPDX-License-Identifier: MIT

package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryImportAndOverlay(t *testing.T) {
	r := NewRegistry()

	// Overlay from specialTemplates wins over the plain catalogue entry.
	tpl, ok := r.Get("file_src")
	require.True(t, ok)
	assert.Equal(t, "/opt/edge_ai_api/videos/face.mp4", tpl.DefaultParameters["FILE_PATH"])
	assert.True(t, tpl.PreConfigured)

	// Catalogue entry without an overlay keeps its shape.
	tpl, ok = r.Get("rtsp_src")
	require.True(t, ok)
	assert.Empty(t, tpl.DefaultParameters)
	assert.Equal(t, CategorySource, tpl.Category)
}

func TestRegisterIdempotence(t *testing.T) {
	r := NewRegistry()
	custom := Template{TemplateID: "my_node", NodeType: "my_node", Category: CategoryOther}
	assert.True(t, r.Register(custom))
	assert.False(t, r.Register(custom))

	before := r.Count()
	assert.Zero(t, r.Import([]Template{custom}))
	assert.Equal(t, before, r.Count())
}

func TestSelfSufficient(t *testing.T) {
	withDefault := Template{
		RequiredParameters: []string{"model"},
		DefaultParameters:  map[string]string{"model": "m.onnx"},
	}
	assert.True(t, withDefault.SelfSufficient())

	missing := Template{RequiredParameters: []string{"RTSP_URL"}}
	assert.False(t, missing.SelfSufficient())

	noRequired := Template{}
	assert.True(t, noRequired.SelfSufficient())
}

func TestListByCategory(t *testing.T) {
	r := NewRegistry()
	sources := r.ListByCategory(CategorySource)
	require.NotEmpty(t, sources)
	for _, tpl := range sources {
		assert.Equal(t, CategorySource, tpl.Category)
	}
	brokers := r.ListByCategory(CategoryBroker)
	assert.NotEmpty(t, brokers)
}
