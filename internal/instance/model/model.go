// SPDX-License-Identifier: MIT

// Package model holds the instance domain types shared between the
// factory, the builder and the manager.
package model

import "time"

// CreateInstanceRequest carries everything needed to realise an
// instance from a solution recipe.
type CreateInstanceRequest struct {
	// InstanceID is optional; the manager mints a UUID when empty.
	InstanceID   string `json:"instanceId,omitempty"`
	Name         string `json:"name"`
	Group        string `json:"group,omitempty"`
	SolutionID   string `json:"solutionId,omitempty"`
	SolutionType string `json:"solutionType,omitempty"`

	InputType  string `json:"inputType,omitempty"`  // file|rtsp|rtmp|udp|hls
	InputURL   string `json:"inputUrl,omitempty"`   // path or stream URL
	OutputType string `json:"outputType,omitempty"` // file|rtmp|rtsp|screen
	OutputURL  string `json:"outputUrl,omitempty"`

	Persistent  bool `json:"persistent,omitempty"`
	AutoStart   bool `json:"autoStart,omitempty"`
	AutoRestart bool `json:"autoRestart,omitempty"`

	FrameRateLimit       int    `json:"frameRateLimit,omitempty"`
	DetectorMode         string `json:"detectorMode,omitempty"`
	DetectionSensitivity string `json:"detectionSensitivity,omitempty"`
	MovementSensitivity  string `json:"movementSensitivity,omitempty"`
	SensorModality       string `json:"sensorModality,omitempty"`
	MetadataMode         string `json:"metadataMode,omitempty"`
	StatisticsMode       string `json:"statisticsMode,omitempty"`
	DiagnosticsMode      string `json:"diagnosticsMode,omitempty"`
	DebugMode            bool   `json:"debugMode,omitempty"`

	RTSPTransport string `json:"rtspTransport,omitempty"` // tcp|udp

	// AdditionalParams override recipe parameters and bind ${TOKEN}
	// placeholders; the right side wins on merge.
	AdditionalParams map[string]string `json:"additionalParams,omitempty"`
}

// Record is the runtime unit owned by the registry.
// Invariant: Running implies Loaded.
type Record struct {
	InstanceID  string `json:"instanceId"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group,omitempty"`
	SolutionID  string `json:"solutionId"`

	Persistent  bool `json:"persistent"`
	AutoStart   bool `json:"autoStart"`
	AutoRestart bool `json:"autoRestart"`

	Loaded  bool `json:"loaded"`
	Running bool `json:"running"`

	FrameRateLimit       int    `json:"frameRateLimit,omitempty"`
	DetectorMode         string `json:"detectorMode,omitempty"`
	DetectionSensitivity string `json:"detectionSensitivity,omitempty"`
	MovementSensitivity  string `json:"movementSensitivity,omitempty"`
	SensorModality       string `json:"sensorModality,omitempty"`
	MetadataMode         string `json:"metadataMode,omitempty"`
	StatisticsMode       string `json:"statisticsMode,omitempty"`
	DiagnosticsMode      string `json:"diagnosticsMode,omitempty"`
	DebugMode            bool   `json:"debugMode,omitempty"`

	FPS     float64 `json:"fps"`
	RTSPURL string  `json:"rtspUrl,omitempty"`
	RTMPURL string  `json:"rtmpUrl,omitempty"`

	// AdditionalParams is the full parameter binding the build resolved,
	// kept so updates can be diffed against the current state.
	AdditionalParams map[string]string `json:"additionalParams,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	out.AdditionalParams = make(map[string]string, len(r.AdditionalParams))
	for k, v := range r.AdditionalParams {
		out.AdditionalParams[k] = v
	}
	return &out
}

// UpdatePatch is a partial record; only non-nil fields apply.
type UpdatePatch struct {
	DisplayName          *string           `json:"displayName,omitempty"`
	Group                *string           `json:"group,omitempty"`
	SolutionID           *string           `json:"solutionId,omitempty"`
	Persistent           *bool             `json:"persistent,omitempty"`
	AutoStart            *bool             `json:"autoStart,omitempty"`
	AutoRestart          *bool             `json:"autoRestart,omitempty"`
	FrameRateLimit       *int              `json:"frameRateLimit,omitempty"`
	DetectorMode         *string           `json:"detectorMode,omitempty"`
	DetectionSensitivity *string           `json:"detectionSensitivity,omitempty"`
	MovementSensitivity  *string           `json:"movementSensitivity,omitempty"`
	SensorModality       *string           `json:"sensorModality,omitempty"`
	MetadataMode         *string           `json:"metadataMode,omitempty"`
	StatisticsMode       *string           `json:"statisticsMode,omitempty"`
	DiagnosticsMode      *string           `json:"diagnosticsMode,omitempty"`
	DebugMode            *bool             `json:"debugMode,omitempty"`
	InputURL             *string           `json:"inputUrl,omitempty"`
	AdditionalParams     map[string]string `json:"additionalParams,omitempty"`
}

// RequiresRebuild reports whether the patch touches fields that bind at
// build time (source URL, solution, model-affecting knobs).
func (p *UpdatePatch) RequiresRebuild() bool {
	if p.SolutionID != nil || p.InputURL != nil {
		return true
	}
	if p.DetectorMode != nil || p.DetectionSensitivity != nil ||
		p.MovementSensitivity != nil || p.SensorModality != nil {
		return true
	}
	return len(p.AdditionalParams) > 0
}
