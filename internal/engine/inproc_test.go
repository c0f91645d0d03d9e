// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeNode struct {
	mu       sync.Mutex
	name     string
	startErr error
	started  int
	stopped  int
}

func (n *fakeNode) ID() string       { return "fake-" + n.name }
func (n *fakeNode) Name() string     { return n.name }
func (n *fakeNode) Category() string { return "other" }

func (n *fakeNode) Start(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.startErr != nil {
		return n.startErr
	}
	n.started++
	return nil
}

func (n *fakeNode) Stop(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped++
	return nil
}

func (n *fakeNode) Destroy() {}

func TestBuildRequiresNodes(t *testing.T) {
	e := NewInProc()
	_, err := e.Build(context.Background(), "i1", nil)
	assert.Error(t, err)
}

func TestGraphLifecycle(t *testing.T) {
	e := &InProc{TickInterval: 5 * time.Millisecond}
	a := &fakeNode{name: "src"}
	b := &fakeNode{name: "sink"}

	g, err := e.Build(context.Background(), "i1", []Node{a, b})
	require.NoError(t, err)
	assert.False(t, g.Running())

	require.NoError(t, g.Start(context.Background()))
	assert.True(t, g.Running())
	// idempotent start
	require.NoError(t, g.Start(context.Background()))
	assert.Equal(t, 1, a.started)

	// stats advance monotonically
	time.Sleep(30 * time.Millisecond)
	s1 := g.Stats()
	time.Sleep(30 * time.Millisecond)
	s2 := g.Stats()
	assert.True(t, s1.IsRunning)
	assert.GreaterOrEqual(t, s2.FramesProcessed, s1.FramesProcessed)
	assert.Equal(t, s1.StartTimeMs, s2.StartTimeMs)

	require.NoError(t, g.Stop(context.Background()))
	assert.False(t, g.Running())
	// idempotent stop
	require.NoError(t, g.Stop(context.Background()))
	assert.Equal(t, 1, a.stopped)
	assert.False(t, g.Stats().IsRunning)

	// stop-then-start reuses the wired graph
	require.NoError(t, g.Start(context.Background()))
	assert.True(t, g.Running())
	g.Destroy()
	assert.False(t, g.Running())
}

func TestStartUnwindsOnNodeFailure(t *testing.T) {
	e := &InProc{TickInterval: time.Millisecond}
	ok1 := &fakeNode{name: "src"}
	bad := &fakeNode{name: "det", startErr: errors.New("model missing")}
	ok2 := &fakeNode{name: "sink"}

	g, err := e.Build(context.Background(), "i1", []Node{ok1, bad, ok2})
	require.NoError(t, err)

	err = g.Start(context.Background())
	require.Error(t, err)
	assert.False(t, g.Running())
	// the node that had started gets stopped again
	assert.Equal(t, 1, ok1.started)
	assert.Equal(t, 1, ok1.stopped)
	// the node after the failure never started
	assert.Zero(t, ok2.started)
}
