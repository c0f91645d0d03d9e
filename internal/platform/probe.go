// SPDX-License-Identifier: MIT

// Package platform detects host acceleration capabilities.
//
// The probe runs once per process and caches four booleans (Jetson,
// NVIDIA dGPU, Intel MSDK, VAAPI). Each check stats a small set of
// well-known filesystem indicators; absence of an indicator means
// absence of the capability, and a failing check is treated as "not
// present". The control plane must never fail to start because a probe
// errored.
package platform

import (
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/cvedix/edge-ai-api/internal/log"
)

// Capabilities holds the cached probe results.
type Capabilities struct {
	Jetson bool
	NVIDIA bool
	MSDK   bool
	VAAPI  bool
}

// Probe enumerates the host once and answers capability queries.
type Probe struct {
	once sync.Once
	caps Capabilities

	// overridable for tests
	statFn     func(string) bool
	lookPathFn func(string) bool
	readFileFn func(string) string
}

// NewProbe returns a probe using the real filesystem.
func NewProbe() *Probe {
	return &Probe{
		statFn: func(p string) bool {
			_, err := os.Stat(p)
			return err == nil
		},
		lookPathFn: func(bin string) bool {
			_, err := exec.LookPath(bin)
			return err == nil
		},
		readFileFn: func(p string) string {
			data, err := os.ReadFile(p)
			if err != nil {
				return ""
			}
			return string(data)
		},
	}
}

// Capabilities returns the cached probe results, probing on first use.
func (p *Probe) Capabilities() Capabilities {
	p.once.Do(p.detect)
	return p.caps
}

func (p *Probe) detect() {
	p.caps = Capabilities{
		Jetson: p.statFn("/etc/nv_tegra_release") ||
			strings.Contains(p.readFileFn("/proc/device-tree/model"), "NVIDIA Jetson"),
		NVIDIA: p.statFn("/proc/driver/nvidia/version") || p.lookPathFn("nvidia-smi"),
		MSDK: p.statFn("/opt/intel/mediasdk") ||
			p.statFn("/usr/lib/x86_64-linux-gnu/libmfx.so.1"),
		VAAPI: p.statFn("/dev/dri/renderD128"),
	}
	logger := log.WithComponent("platform")
	logger.Info().
		Bool("jetson", p.caps.Jetson).
		Bool("nvidia", p.caps.NVIDIA).
		Bool("msdk", p.caps.MSDK).
		Bool("vaapi", p.caps.VAAPI).
		Msg("platform probe complete")
}

// DetectPlatform returns the highest-priority platform label:
// jetson > nvidia > msdk > vaapi > auto.
func (p *Probe) DetectPlatform() string {
	caps := p.Capabilities()
	switch {
	case caps.Jetson:
		return "jetson"
	case caps.NVIDIA:
		return "nvidia"
	case caps.MSDK:
		return "msdk"
	case caps.VAAPI:
		return "vaapi"
	default:
		return "auto"
	}
}

// Has reports whether the given priority tag is available on this host.
// "software" is always available.
func (p *Probe) Has(tag string) bool {
	caps := p.Capabilities()
	switch tag {
	case "jetson":
		return caps.Jetson
	case "nvidia":
		return caps.NVIDIA
	case "msdk":
		return caps.MSDK
	case "vaapi":
		return caps.VAAPI
	case "software", "auto":
		return true
	default:
		return false
	}
}

// decoders maps a platform tag to its H.264 decoder element.
var decoders = map[string]string{
	"jetson":   "nvv4l2decoder",
	"nvidia":   "nvh264dec",
	"msdk":     "msdkh264dec",
	"vaapi":    "vaapih264dec",
	"software": "avdec_h264",
}

// encoders maps a platform tag to its H.264 encoder element.
var encoders = map[string]string{
	"jetson":   "nvv4l2h264enc",
	"nvidia":   "nvh264enc",
	"msdk":     "msdkh264enc",
	"vaapi":    "vaapih264enc",
	"software": "x264enc",
}

// DecoderFor returns the decoder element for a priority tag, or "" for
// an unknown tag.
func DecoderFor(tag string) string { return decoders[tag] }

// EncoderFor returns the encoder element for a priority tag, or "" for
// an unknown tag.
func EncoderFor(tag string) string { return encoders[tag] }

// DefaultDecoder walks the priority list and returns the decoder of the
// first tag this host supports, falling back to software H.264.
func (p *Probe) DefaultDecoder(priority []string) string {
	for _, tag := range priority {
		if p.Has(tag) {
			if dec := DecoderFor(tag); dec != "" {
				return dec
			}
		}
	}
	return decoders["software"]
}

// DefaultEncoder mirrors DefaultDecoder for the encode side.
func (p *Probe) DefaultEncoder(priority []string) string {
	for _, tag := range priority {
		if p.Has(tag) {
			if enc := EncoderFor(tag); enc != "" {
				return enc
			}
		}
	}
	return encoders["software"]
}
