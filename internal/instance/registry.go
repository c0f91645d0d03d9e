// SPDX-License-Identifier: MIT

// Package instance owns the instance lifecycle: the record registry,
// admission against the global cap, graph build/rebuild and the
// start/stop/delete state machine.
package instance

import (
	"sort"
	"sync"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/metrics"
)

// Registry is the authoritative instance record store. All reads return
// deep copies; mutation goes through Apply so the gauges stay in sync.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*model.Record
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*model.Record)}
}

// Add registers a new record. A duplicate id is a conflict.
func (r *Registry) Add(rec *model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.InstanceID]; exists {
		return core.Conflictf("instance %s already exists", rec.InstanceID)
	}
	r.records[rec.InstanceID] = rec.Clone()
	r.updateGaugesLocked()
	return nil
}

// Get returns a copy of the record.
func (r *Registry) Get(id string) (*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, core.NotFoundf("instance %s not found", id)
	}
	return rec.Clone(), nil
}

// Apply mutates the record under the write lock.
func (r *Registry) Apply(id string, fn func(*model.Record)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return core.NotFoundf("instance %s not found", id)
	}
	fn(rec)
	r.updateGaugesLocked()
	return nil
}

// Delete removes the record, reporting whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[id]
	delete(r.records, id)
	r.updateGaugesLocked()
	return ok
}

// List returns copies of every record, ordered by creation time with the
// id as tiebreaker.
func (r *Registry) List() []*model.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].InstanceID < out[j].InstanceID
	})
	return out
}

// Count returns the number of loaded instances.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// RunningCount returns the number of running instances.
func (r *Registry) RunningCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.records {
		if rec.Running {
			n++
		}
	}
	return n
}

func (r *Registry) updateGaugesLocked() {
	running := 0
	for _, rec := range r.records {
		if rec.Running {
			running++
		}
	}
	metrics.SetInstancesLoaded(float64(len(r.records)))
	metrics.SetInstancesRunning(float64(running))
}
