// SPDX-License-Identifier: MIT

// Package engine defines the narrow contracts between the control plane
// and the video pipeline runtime. The core never inspects node
// internals: nodes are opaque handles with lifecycle methods, and the
// engine wires an ordered node list into a running graph.
package engine

import "context"

// Node is an opaque handle to one processing stage. Implementations
// come from the node factory; the engine treats adjacent nodes in the
// build order as producer/consumer pairs.
type Node interface {
	// ID returns the engine-level identifier (unique per graph).
	ID() string
	// Name returns the addressable node name from the solution recipe.
	Name() string
	// Category returns the factory category (source/detector/...).
	Category() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Destroy releases node resources. Idempotent.
	Destroy()
}

// Updatable is implemented by nodes that accept in-place configuration
// pushes without a graph rebuild.
type Updatable interface {
	// ApplyConfig pushes a configuration document into the running node.
	// Returns false when the mutation is not supported in place.
	ApplyConfig(doc map[string]any) bool
}

// Stats is one statistics snapshot for a running graph.
type Stats struct {
	StartTimeMs     int64   `json:"startTimeMs"`
	FrameRate       float64 `json:"frameRate"`
	LatencyMs       float64 `json:"latencyMs"`
	FramesProcessed uint64  `json:"framesProcessed"`
	TrackCount      int     `json:"trackCount"`
	IsRunning       bool    `json:"isRunning"`
}

// GraphHandle refers to a wired graph owned by the engine.
type GraphHandle interface {
	// Start runs the graph. Idempotent on an already-running graph.
	Start(ctx context.Context) error
	// Stop halts the graph but keeps it wired for a later Start.
	Stop(ctx context.Context) error
	Running() bool
	Stats() Stats
	// Destroy stops the graph and releases every node.
	Destroy()
}

// Engine wires an ordered node list into a graph.
type Engine interface {
	Build(ctx context.Context, instanceID string, nodes []Node) (GraphHandle, error)
}
