// SPDX-License-Identifier: MIT

package factory

import (
	"context"

	"github.com/google/uuid"

	"github.com/cvedix/edge-ai-api/internal/nodes"
)

// node is the concrete handle behind every constructor. Behaviour is
// injected through the hook funcs; the engine only sees the lifecycle
// surface.
type node struct {
	id       string
	name     string
	nodeType string
	category nodes.Category
	params   map[string]string

	startFn   func(ctx context.Context) error
	stopFn    func(ctx context.Context) error
	destroyFn func()
	applyFn   func(doc map[string]any) bool
	configFn  func() map[string]any

	destroyed bool
}

func newNode(nodeType, name string, category nodes.Category, params map[string]string) *node {
	if params == nil {
		params = map[string]string{}
	}
	return &node{
		id:       uuid.NewString(),
		name:     name,
		nodeType: nodeType,
		category: category,
		params:   params,
	}
}

func (n *node) ID() string       { return n.id }
func (n *node) Name() string     { return n.name }
func (n *node) Category() string { return string(n.category) }

// NodeType returns the factory discriminant this node was built from.
func (n *node) NodeType() string { return n.nodeType }

// Parameters returns the resolved parameter binding.
func (n *node) Parameters() map[string]string { return n.params }

func (n *node) Start(ctx context.Context) error {
	if n.startFn == nil {
		return nil
	}
	return n.startFn(ctx)
}

func (n *node) Stop(ctx context.Context) error {
	if n.stopFn == nil {
		return nil
	}
	return n.stopFn(ctx)
}

func (n *node) Destroy() {
	if n.destroyed {
		return
	}
	n.destroyed = true
	if n.destroyFn != nil {
		n.destroyFn()
	}
}

// ApplyConfig pushes a configuration document into the running node.
// Returns false when the node does not support in-place updates.
func (n *node) ApplyConfig(doc map[string]any) bool {
	if n.applyFn == nil {
		return false
	}
	return n.applyFn(doc)
}

// Config returns the last document applied in place, or nil for nodes
// without in-place updates.
func (n *node) Config() map[string]any {
	if n.configFn == nil {
		return nil
	}
	return n.configFn()
}
