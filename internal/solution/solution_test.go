// SPDX-License-Identifier: MIT

package solution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySeedsDefaults(t *testing.T) {
	r := NewRegistry()
	s, ok := r.Get("face_detection_file_default")
	require.True(t, ok)
	assert.True(t, s.IsDefault)
	assert.Equal(t, "face_detection", s.SolutionType)
	require.NotEmpty(t, s.Pipeline)
	assert.Equal(t, "file_src", s.Pipeline[0].NodeType)
	assert.Contains(t, s.Pipeline[0].NodeName, "{instanceId}")

	assert.NotEmpty(t, r.Defaults())
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	custom := Config{SolutionID: "custom_1", SolutionName: "Custom"}
	assert.True(t, r.Register(custom))
	assert.False(t, r.Register(custom))
	assert.False(t, r.Register(Config{SolutionID: "face_detection_file_default"}))
}

func TestDeriveID(t *testing.T) {
	assert.Equal(t, "face_detection_file_default", DeriveID("face_detection", "file"))
	assert.Equal(t, "securt_rtsp_default", DeriveID("SecuRT", "RTSP"))
	// empty input type defaults to rtsp
	assert.Equal(t, "object_detection_rtsp_default", DeriveID("object_detection", ""))
}
