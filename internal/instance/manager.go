// SPDX-License-Identifier: MIT

package instance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cvedix/edge-ai-api/internal/builder"
	"github.com/cvedix/edge-ai-api/internal/config"
	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/factory"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/metrics"
	"github.com/cvedix/edge-ai-api/internal/solution"
)

// runtime pairs a record with its realised graph. Owned by the manager
// mutex; the registry only ever sees the record.
type runtime struct {
	req   *model.CreateInstanceRequest
	nodes []engine.Node
	graph engine.GraphHandle
}

// Manager drives the instance lifecycle. One mutex serialises every
// structural mutation (create, rebuild, delete); reads go through the
// registry's own lock.
type Manager struct {
	mu       sync.Mutex
	cfg      *config.Store
	builder  *builder.Builder
	registry *Registry
	runtimes map[string]*runtime
	usedRTMP map[string]struct{}
	onDelete func(instanceID string)
	logger   zerolog.Logger
}

func NewManager(cfg *config.Store, b *builder.Builder, reg *Registry) *Manager {
	return &Manager{
		cfg:      cfg,
		builder:  b,
		registry: reg,
		runtimes: make(map[string]*runtime),
		usedRTMP: make(map[string]struct{}),
		logger:   log.WithComponent("instance"),
	}
}

// SetOnDelete installs a hook invoked after an instance is removed, so
// dependent facades can drop their mirror state.
func (m *Manager) SetOnDelete(fn func(instanceID string)) {
	m.onDelete = fn
}

// Create admits, builds and registers a new instance. The instance id
// is minted unless the request carries one.
func (m *Manager) Create(ctx context.Context, req *model.CreateInstanceRequest) (*model.Record, error) {
	if req.Name == "" {
		metrics.InstanceCreateTotal.WithLabelValues("invalid").Inc()
		return nil, core.InvalidArgumentf("instance name is required")
	}
	if req.SolutionID == "" {
		if req.SolutionType == "" {
			metrics.InstanceCreateTotal.WithLabelValues("invalid").Inc()
			return nil, core.InvalidArgumentf("either solutionId or solutionType is required")
		}
		req.SolutionID = solution.DeriveID(req.SolutionType, req.InputType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// The cap is re-read on every create so config changes apply without
	// a restart. Zero disables admission.
	if limit := m.cfg.GetInt("system.max_running_instances", 0); limit > 0 {
		if current := m.registry.Count(); current >= limit {
			metrics.AdmissionRejectTotal.Inc()
			metrics.InstanceCreateTotal.WithLabelValues("rejected").Inc()
			return nil, core.AdmissionDenied(limit, current)
		}
	}

	id := req.InstanceID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := m.runtimes[id]; exists {
		metrics.InstanceCreateTotal.WithLabelValues("conflict").Inc()
		return nil, core.Conflictf("instance %s already exists", id)
	}

	res, err := m.builder.Build(ctx, req, id, m.usedRTMP)
	if err != nil {
		metrics.InstanceCreateTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	rec := recordFromRequest(req, id, res)
	if err := m.registry.Add(rec); err != nil {
		res.Graph.Destroy()
		m.releaseRTMPKeyLocked(res.RTMPURL)
		metrics.InstanceCreateTotal.WithLabelValues("conflict").Inc()
		return nil, err
	}
	m.runtimes[id] = &runtime{req: req, nodes: res.Nodes, graph: res.Graph}

	if req.AutoStart {
		if err := m.startLocked(ctx, id); err != nil {
			m.logger.Error().Err(err).Str(log.FieldInstanceID, id).Msg("auto-start failed")
		}
	}

	metrics.InstanceCreateTotal.WithLabelValues("created").Inc()
	m.logger.Info().
		Str(log.FieldInstanceID, id).
		Str(log.FieldSolutionID, req.SolutionID).
		Bool("autoStart", req.AutoStart).
		Msg("instance created")
	return m.registry.Get(id)
}

func recordFromRequest(req *model.CreateInstanceRequest, id string, res *builder.Result) *model.Record {
	return &model.Record{
		InstanceID:           id,
		DisplayName:          req.Name,
		Group:                req.Group,
		SolutionID:           req.SolutionID,
		Persistent:           req.Persistent,
		AutoStart:            req.AutoStart,
		AutoRestart:          req.AutoRestart,
		Loaded:               true,
		FrameRateLimit:       req.FrameRateLimit,
		DetectorMode:         req.DetectorMode,
		DetectionSensitivity: req.DetectionSensitivity,
		MovementSensitivity:  req.MovementSensitivity,
		SensorModality:       req.SensorModality,
		MetadataMode:         req.MetadataMode,
		StatisticsMode:       req.StatisticsMode,
		DiagnosticsMode:      req.DiagnosticsMode,
		DebugMode:            req.DebugMode,
		RTSPURL:              res.RTSPURL,
		RTMPURL:              res.RTMPURL,
		AdditionalParams:     res.Binding,
		CreatedAt:            time.Now().UTC(),
	}
}

// Get returns the record for id.
func (m *Manager) Get(id string) (*model.Record, error) {
	return m.registry.Get(id)
}

// List returns all records.
func (m *Manager) List() []*model.Record {
	return m.registry.List()
}

// Count returns the number of loaded instances.
func (m *Manager) Count() int {
	return m.registry.Count()
}

// Start runs the instance graph. Starting a running instance is a no-op.
func (m *Manager) Start(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx, id)
}

// startLocked is entered and left with m.mu held, but releases it
// around the engine call: a slow or hung start must not block
// lifecycle operations on other instances.
func (m *Manager) startLocked(ctx context.Context, id string) error {
	rt, ok := m.runtimes[id]
	if !ok {
		return core.NotFoundf("instance %s not found", id)
	}
	graph := rt.graph

	m.mu.Unlock()
	err := graph.Start(ctx)
	m.mu.Lock()

	if err != nil {
		return core.Wrap(core.KindDependencyUnavailable, "start graph", err)
	}
	// The instance may have been deleted or rebuilt while unlocked; the
	// graph we started is then no longer the live one.
	cur, ok := m.runtimes[id]
	if !ok {
		_ = graph.Stop(ctx)
		return core.NotFoundf("instance %s not found", id)
	}
	if cur.graph != graph {
		_ = graph.Stop(ctx)
		return core.Conflictf("instance %s changed during start", id)
	}
	return m.registry.Apply(id, func(rec *model.Record) { rec.Running = true })
}

// Stop halts the instance graph but keeps it loaded. Stopping a stopped
// instance is a no-op.
func (m *Manager) Stop(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx, id)
}

func (m *Manager) stopLocked(ctx context.Context, id string) error {
	rt, ok := m.runtimes[id]
	if !ok {
		return core.NotFoundf("instance %s not found", id)
	}
	if err := rt.graph.Stop(ctx); err != nil {
		return core.Wrap(core.KindDependencyUnavailable, "stop graph", err)
	}
	return m.registry.Apply(id, func(rec *model.Record) { rec.Running = false })
}

// Update patches the record. Patches touching build-time bindings tear
// the graph down and rebuild it, restoring the previous running state.
func (m *Manager) Update(ctx context.Context, id string, patch *model.UpdatePatch) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, ok := m.runtimes[id]
	if !ok {
		return nil, core.NotFoundf("instance %s not found", id)
	}

	applyPatchToRequest(rt.req, patch)
	if err := m.registry.Apply(id, func(rec *model.Record) { applyPatchToRecord(rec, patch) }); err != nil {
		return nil, err
	}

	if patch.RequiresRebuild() {
		if err := m.rebuildLocked(ctx, id, "update", nil); err != nil {
			return nil, err
		}
	}
	return m.registry.Get(id)
}

// Rebuild tears down and rebuilds the instance graph under the same id,
// optionally mutating the build request first. The previous running
// state is restored.
func (m *Manager) Rebuild(ctx context.Context, id, trigger string, mutate func(*model.CreateInstanceRequest)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuildLocked(ctx, id, trigger, mutate)
}

func (m *Manager) rebuildLocked(ctx context.Context, id, trigger string, mutate func(*model.CreateInstanceRequest)) error {
	rt, ok := m.runtimes[id]
	if !ok {
		return core.NotFoundf("instance %s not found", id)
	}
	wasRunning := rt.graph.Running()

	rt.graph.Destroy()
	rec, err := m.registry.Get(id)
	if err == nil {
		m.releaseRTMPKeyLocked(rec.RTMPURL)
	}

	if mutate != nil {
		mutate(rt.req)
	}

	res, err := m.builder.Build(ctx, rt.req, id, m.usedRTMP)
	if err != nil {
		// The old graph is gone; the record stays loaded but stopped so
		// the caller can retry with a corrected request, which rebuilds
		// again from scratch.
		_ = m.registry.Apply(id, func(rec *model.Record) { rec.Running = false })
		return err
	}
	rt.nodes = res.Nodes
	rt.graph = res.Graph

	if err := m.registry.Apply(id, func(rec *model.Record) {
		rec.RTSPURL = res.RTSPURL
		rec.RTMPURL = res.RTMPURL
		rec.AdditionalParams = res.Binding
		rec.Running = false
	}); err != nil {
		return err
	}

	metrics.PipelineRebuildTotal.WithLabelValues(trigger).Inc()
	m.logger.Info().Str(log.FieldInstanceID, id).Str("trigger", trigger).Msg("pipeline rebuilt")

	if wasRunning {
		return m.startLocked(ctx, id)
	}
	return nil
}

// Delete stops the instance, releases every node and removes the
// record. The on-delete hook fires after the lock is released.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	rt, ok := m.runtimes[id]
	if !ok {
		m.mu.Unlock()
		return core.NotFoundf("instance %s not found", id)
	}
	rt.graph.Destroy()
	if rec, err := m.registry.Get(id); err == nil {
		m.releaseRTMPKeyLocked(rec.RTMPURL)
	}
	delete(m.runtimes, id)
	m.registry.Delete(id)
	hook := m.onDelete
	m.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	m.logger.Info().Str(log.FieldInstanceID, id).Msg("instance deleted")
	return nil
}

// Statistics returns the live statistics snapshot for id.
func (m *Manager) Statistics(id string) (engine.Stats, error) {
	m.mu.Lock()
	rt, ok := m.runtimes[id]
	m.mu.Unlock()
	if !ok {
		return engine.Stats{}, core.NotFoundf("instance %s not found", id)
	}
	return rt.graph.Stats(), nil
}

// ApplyNodeConfig pushes a configuration document into the first node
// of the given type. Returns false when the node is absent or rejects
// the in-place update, in which case the caller should rebuild.
func (m *Manager) ApplyNodeConfig(id, nodeType string, doc map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.runtimes[id]
	if !ok {
		return false, core.NotFoundf("instance %s not found", id)
	}
	for _, n := range rt.nodes {
		typed, ok := n.(interface{ NodeType() string })
		if !ok || typed.NodeType() != nodeType {
			continue
		}
		upd, ok := n.(engine.Updatable)
		if !ok {
			return false, nil
		}
		return upd.ApplyConfig(doc), nil
	}
	return false, nil
}

func (m *Manager) releaseRTMPKeyLocked(rtmpURL string) {
	if rtmpURL == "" {
		return
	}
	delete(m.usedRTMP, factory.StreamKey(rtmpURL))
}

func applyPatchToRecord(rec *model.Record, p *model.UpdatePatch) {
	if p.DisplayName != nil {
		rec.DisplayName = *p.DisplayName
	}
	if p.Group != nil {
		rec.Group = *p.Group
	}
	if p.SolutionID != nil {
		rec.SolutionID = *p.SolutionID
	}
	if p.Persistent != nil {
		rec.Persistent = *p.Persistent
	}
	if p.AutoStart != nil {
		rec.AutoStart = *p.AutoStart
	}
	if p.AutoRestart != nil {
		rec.AutoRestart = *p.AutoRestart
	}
	if p.FrameRateLimit != nil {
		rec.FrameRateLimit = *p.FrameRateLimit
	}
	if p.DetectorMode != nil {
		rec.DetectorMode = *p.DetectorMode
	}
	if p.DetectionSensitivity != nil {
		rec.DetectionSensitivity = *p.DetectionSensitivity
	}
	if p.MovementSensitivity != nil {
		rec.MovementSensitivity = *p.MovementSensitivity
	}
	if p.SensorModality != nil {
		rec.SensorModality = *p.SensorModality
	}
	if p.MetadataMode != nil {
		rec.MetadataMode = *p.MetadataMode
	}
	if p.StatisticsMode != nil {
		rec.StatisticsMode = *p.StatisticsMode
	}
	if p.DiagnosticsMode != nil {
		rec.DiagnosticsMode = *p.DiagnosticsMode
	}
	if p.DebugMode != nil {
		rec.DebugMode = *p.DebugMode
	}
	if rec.AdditionalParams == nil {
		rec.AdditionalParams = map[string]string{}
	}
	for k, v := range p.AdditionalParams {
		rec.AdditionalParams[k] = v
	}
}

func applyPatchToRequest(req *model.CreateInstanceRequest, p *model.UpdatePatch) {
	if p.DisplayName != nil {
		req.Name = *p.DisplayName
	}
	if p.Group != nil {
		req.Group = *p.Group
	}
	if p.SolutionID != nil {
		req.SolutionID = *p.SolutionID
	}
	if p.Persistent != nil {
		req.Persistent = *p.Persistent
	}
	if p.AutoStart != nil {
		req.AutoStart = *p.AutoStart
	}
	if p.AutoRestart != nil {
		req.AutoRestart = *p.AutoRestart
	}
	if p.FrameRateLimit != nil {
		req.FrameRateLimit = *p.FrameRateLimit
	}
	if p.DetectorMode != nil {
		req.DetectorMode = *p.DetectorMode
	}
	if p.DetectionSensitivity != nil {
		req.DetectionSensitivity = *p.DetectionSensitivity
	}
	if p.MovementSensitivity != nil {
		req.MovementSensitivity = *p.MovementSensitivity
	}
	if p.SensorModality != nil {
		req.SensorModality = *p.SensorModality
	}
	if p.MetadataMode != nil {
		req.MetadataMode = *p.MetadataMode
	}
	if p.StatisticsMode != nil {
		req.StatisticsMode = *p.StatisticsMode
	}
	if p.DiagnosticsMode != nil {
		req.DiagnosticsMode = *p.DiagnosticsMode
	}
	if p.DebugMode != nil {
		req.DebugMode = *p.DebugMode
	}
	if p.InputURL != nil {
		req.InputURL = *p.InputURL
	}
	if req.AdditionalParams == nil {
		req.AdditionalParams = map[string]string{}
	}
	for k, v := range p.AdditionalParams {
		req.AdditionalParams[k] = v
	}
}
