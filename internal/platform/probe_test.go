// SPDX-License-Identifier: MIT

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeProbe(present map[string]bool, model string) *Probe {
	return &Probe{
		statFn:     func(p string) bool { return present[p] },
		lookPathFn: func(bin string) bool { return present[bin] },
		readFileFn: func(p string) string {
			if p == "/proc/device-tree/model" {
				return model
			}
			return ""
		},
	}
}

func TestDetectPlatformPriority(t *testing.T) {
	cases := []struct {
		name    string
		present map[string]bool
		model   string
		want    string
	}{
		{"jetson wins over everything", map[string]bool{
			"/etc/nv_tegra_release":    true,
			"/proc/driver/nvidia/version": true,
			"/dev/dri/renderD128":      true,
		}, "", "jetson"},
		{"jetson via device tree", nil, "NVIDIA Jetson Orin NX", "jetson"},
		{"nvidia over msdk", map[string]bool{
			"nvidia-smi":          true,
			"/opt/intel/mediasdk": true,
		}, "", "nvidia"},
		{"msdk over vaapi", map[string]bool{
			"/opt/intel/mediasdk": true,
			"/dev/dri/renderD128": true,
		}, "", "msdk"},
		{"vaapi alone", map[string]bool{
			"/dev/dri/renderD128": true,
		}, "", "vaapi"},
		{"bare host", nil, "", "auto"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := fakeProbe(tc.present, tc.model)
			assert.Equal(t, tc.want, p.DetectPlatform())
		})
	}
}

func TestProbeCachesResult(t *testing.T) {
	calls := 0
	p := &Probe{
		statFn:     func(string) bool { calls++; return false },
		lookPathFn: func(string) bool { return false },
		readFileFn: func(string) string { return "" },
	}
	_ = p.DetectPlatform()
	first := calls
	_ = p.DetectPlatform()
	_ = p.Capabilities()
	assert.Equal(t, first, calls)
}

func TestDefaultDecoderFollowsPriorityList(t *testing.T) {
	p := fakeProbe(map[string]bool{"/dev/dri/renderD128": true}, "")
	assert.Equal(t, "vaapih264dec",
		p.DefaultDecoder([]string{"jetson", "nvidia", "msdk", "vaapi", "software"}))

	bare := fakeProbe(nil, "")
	assert.Equal(t, "avdec_h264",
		bare.DefaultDecoder([]string{"jetson", "nvidia"}))
	assert.Equal(t, "x264enc", bare.DefaultEncoder(nil))
}
