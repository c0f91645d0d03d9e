// SPDX-License-Identifier: MIT

package securt

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/instance"
	"github.com/cvedix/edge-ai-api/internal/instance/model"
	"github.com/cvedix/edge-ai-api/internal/log"
)

// compatibleTokens marks core solutions the facade may adopt. Matching
// is by substring so custom solution ids built from these families
// qualify too.
var compatibleTokens = []string{
	"securt", "ba_crossline", "ba_jam", "ba_stop", "ba_area_enter_exit",
}

// IsCompatibleSolution reports whether a core solution id belongs to a
// facade-compatible family.
func IsCompatibleSolution(solutionID string) bool {
	s := strings.ToLower(solutionID)
	for _, tok := range compatibleTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// Mirror is the facade-side view of one core instance.
type Mirror struct {
	InstanceID           string `json:"instanceId"`
	FrameRateLimit       int    `json:"frameRateLimit,omitempty"`
	DetectorMode         string `json:"detectorMode,omitempty"`
	DetectionSensitivity string `json:"detectionSensitivity,omitempty"`
	MovementSensitivity  string `json:"movementSensitivity,omitempty"`
	SensorModality       string `json:"sensorModality,omitempty"`
}

// UpdateRequest patches the mirror knobs; nil fields are absent.
type UpdateRequest struct {
	FrameRateLimit       *int    `json:"frameRateLimit,omitempty"`
	DetectorMode         *string `json:"detectorMode,omitempty"`
	DetectionSensitivity *string `json:"detectionSensitivity,omitempty"`
	MovementSensitivity  *string `json:"movementSensitivity,omitempty"`
	SensorModality       *string `json:"sensorModality,omitempty"`
}

// Manager keeps the mirror registry and the per-instance entity sets.
// Keys are always the core instance id.
type Manager struct {
	mu       sync.RWMutex
	core     *instance.Manager
	mirrors  map[string]*Mirror
	entities map[string]*EntitySet
	features map[string]map[string]map[string]any
	logger   zerolog.Logger
}

func NewManager(core *instance.Manager) *Manager {
	return &Manager{
		core:     core,
		mirrors:  make(map[string]*Mirror),
		entities: make(map[string]*EntitySet),
		features: make(map[string]map[string]map[string]any),
		logger:   log.WithComponent("securt"),
	}
}

// CreateInstance delegates to the core and records a mirror. The core
// mints its own UUID; a caller-supplied id that does not survive is
// adopted with a warning.
func (m *Manager) CreateInstance(ctx context.Context, req *model.CreateInstanceRequest) (*model.Record, error) {
	if req.SolutionID == "" && req.SolutionType == "" {
		req.SolutionType = "securt"
	}
	requested := req.InstanceID

	rec, err := m.core.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if requested != "" && requested != rec.InstanceID {
		m.logger.Warn().
			Str("requested", requested).
			Str(log.FieldInstanceID, rec.InstanceID).
			Msg("core assigned a different instance id, adopting")
	}

	m.mu.Lock()
	m.mirrors[rec.InstanceID] = &Mirror{
		InstanceID:           rec.InstanceID,
		FrameRateLimit:       rec.FrameRateLimit,
		DetectorMode:         rec.DetectorMode,
		DetectionSensitivity: rec.DetectionSensitivity,
		MovementSensitivity:  rec.MovementSensitivity,
		SensorModality:       rec.SensorModality,
	}
	m.entities[rec.InstanceID] = NewEntitySet()
	m.mu.Unlock()
	return rec, nil
}

// HasInstance checks the mirror first, then probes the core and
// auto-adopts compatible instances.
func (m *Manager) HasInstance(id string) bool {
	m.mu.RLock()
	_, ok := m.mirrors[id]
	m.mu.RUnlock()
	if ok {
		return true
	}

	rec, err := m.core.Get(id)
	if err != nil || !IsCompatibleSolution(rec.SolutionID) {
		return false
	}
	m.adopt(rec)
	return true
}

func (m *Manager) adopt(rec *model.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mirrors[rec.InstanceID]; ok {
		return
	}
	m.mirrors[rec.InstanceID] = &Mirror{
		InstanceID:           rec.InstanceID,
		FrameRateLimit:       rec.FrameRateLimit,
		DetectorMode:         rec.DetectorMode,
		DetectionSensitivity: rec.DetectionSensitivity,
		MovementSensitivity:  rec.MovementSensitivity,
		SensorModality:       rec.SensorModality,
	}
	m.entities[rec.InstanceID] = NewEntitySet()
	m.logger.Info().
		Str(log.FieldInstanceID, rec.InstanceID).
		Str(log.FieldSolutionID, rec.SolutionID).
		Msg("adopted compatible core instance")
}

// Mirror returns the facade view of id, or a not-found error.
func (m *Manager) Mirror(id string) (*Mirror, error) {
	if !m.HasInstance(id) {
		return nil, core.NotFoundf("securt instance %s not found", id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Re-check under the lock: a concurrent delete may have dropped the
	// mirror since the presence check.
	mr, ok := m.mirrors[id]
	if !ok {
		return nil, core.NotFoundf("securt instance %s not found", id)
	}
	cp := *mr
	return &cp, nil
}

// Update applies the present fields to the mirror and forwards the
// corresponding patch to the core, which rebuilds as needed.
func (m *Manager) Update(ctx context.Context, id string, upd *UpdateRequest) (*model.Record, error) {
	if !m.HasInstance(id) {
		return nil, core.NotFoundf("securt instance %s not found", id)
	}

	patch := &model.UpdatePatch{
		FrameRateLimit:       upd.FrameRateLimit,
		DetectorMode:         upd.DetectorMode,
		DetectionSensitivity: upd.DetectionSensitivity,
		MovementSensitivity:  upd.MovementSensitivity,
		SensorModality:       upd.SensorModality,
	}
	rec, err := m.core.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if mr, ok := m.mirrors[id]; ok {
		if upd.FrameRateLimit != nil {
			mr.FrameRateLimit = *upd.FrameRateLimit
		}
		if upd.DetectorMode != nil {
			mr.DetectorMode = *upd.DetectorMode
		}
		if upd.DetectionSensitivity != nil {
			mr.DetectionSensitivity = *upd.DetectionSensitivity
		}
		if upd.MovementSensitivity != nil {
			mr.MovementSensitivity = *upd.MovementSensitivity
		}
		if upd.SensorModality != nil {
			mr.SensorModality = *upd.SensorModality
		}
	}
	m.mu.Unlock()
	return rec, nil
}

// Delete removes the core instance; the cascade hook clears the mirror
// and entities.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if !m.HasInstance(id) {
		return core.NotFoundf("securt instance %s not found", id)
	}
	return m.core.Delete(ctx, id)
}

// OnCoreDelete drops facade state for a removed core instance. Wired
// as the core manager's delete hook.
func (m *Manager) OnCoreDelete(id string) {
	m.mu.Lock()
	delete(m.mirrors, id)
	delete(m.entities, id)
	delete(m.features, id)
	m.mu.Unlock()
}

// Stats returns the live statistics snapshot.
func (m *Manager) Stats(id string) (engine.Stats, error) {
	if !m.HasInstance(id) {
		return engine.Stats{}, core.NotFoundf("securt instance %s not found", id)
	}
	return m.core.Statistics(id)
}

// AnalyticsEntities renders the entity document. An instance with no
// entities yields the empty document rather than an error.
func (m *Manager) AnalyticsEntities(id string) (map[string]any, error) {
	set, err := m.entitySet(id)
	if err != nil {
		return nil, err
	}
	return set.Document(), nil
}

// Lines returns the instance's lines grouped by kind.
func (m *Manager) Lines(id string) (map[string][]Line, error) {
	set, err := m.entitySet(id)
	if err != nil {
		return nil, err
	}
	return set.LinesByKind(), nil
}

// AddLine stores a line and synchronises the graph: in-place when the
// analytics nodes accept it, otherwise a rebuild that preserves the
// instance id.
func (m *Manager) AddLine(ctx context.Context, id string, l Line) (string, error) {
	switch l.Kind {
	case KindCountingLine, KindCrossingLine, KindTailgatingLine:
	default:
		return "", core.InvalidArgumentf("unknown line kind %q", l.Kind)
	}
	if len(l.Coordinates) < 2 {
		return "", core.InvalidArgumentf("a line needs at least two points")
	}
	set, err := m.entitySet(id)
	if err != nil {
		return "", err
	}
	lineID := set.AddLine(l)
	if err := m.sync(ctx, id, set); err != nil {
		return "", err
	}
	return lineID, nil
}

// DeleteLine removes a line and synchronises the graph.
func (m *Manager) DeleteLine(ctx context.Context, id, lineID string) error {
	set, err := m.entitySet(id)
	if err != nil {
		return err
	}
	if !set.DeleteLine(lineID) {
		return core.NotFoundf("line %s not found", lineID)
	}
	return m.sync(ctx, id, set)
}

// AddArea stores an area (masking, exclusion or motion) and
// synchronises the graph.
func (m *Manager) AddArea(ctx context.Context, id string, a Area) (string, error) {
	switch a.Kind {
	case KindExclusionArea, KindMaskingArea, KindMotionArea:
	default:
		return "", core.InvalidArgumentf("unknown area kind %q", a.Kind)
	}
	if len(a.Coordinates) < 3 {
		return "", core.InvalidArgumentf("an area needs at least three points")
	}
	set, err := m.entitySet(id)
	if err != nil {
		return "", err
	}
	areaID := set.AddArea(a)
	if err := m.sync(ctx, id, set); err != nil {
		return "", err
	}
	return areaID, nil
}

// DeleteArea removes an area and synchronises the graph.
func (m *Manager) DeleteArea(ctx context.Context, id, areaID string) error {
	set, err := m.entitySet(id)
	if err != nil {
		return err
	}
	if !set.DeleteArea(areaID) {
		return core.NotFoundf("area %s not found", areaID)
	}
	return m.sync(ctx, id, set)
}

// ApplyFeature stores a feature document. Input and output features
// bind at build time and force a rebuild; the rest apply in place or on
// the next start.
func (m *Manager) ApplyFeature(ctx context.Context, id, feature string, doc map[string]any) error {
	if !m.HasInstance(id) {
		return core.NotFoundf("securt instance %s not found", id)
	}
	m.mu.Lock()
	if m.features[id] == nil {
		m.features[id] = make(map[string]map[string]any)
	}
	m.features[id][feature] = doc
	m.mu.Unlock()

	switch feature {
	case "input", "output":
		return m.core.Rebuild(ctx, id, "feature", func(req *model.CreateInstanceRequest) {
			applyIOFeature(req, feature, doc)
		})
	}
	return nil
}

// Features returns the stored feature documents for id.
func (m *Manager) Features(id string) (map[string]map[string]any, error) {
	if !m.HasInstance(id) {
		return nil, core.NotFoundf("securt instance %s not found", id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]map[string]any, len(m.features[id]))
	for k, v := range m.features[id] {
		out[k] = v
	}
	return out, nil
}

// EntityState reports the synchronisation state of id's entity set.
func (m *Manager) EntityState(id string) (EntityState, error) {
	set, err := m.entitySet(id)
	if err != nil {
		return "", err
	}
	return set.State(), nil
}

func (m *Manager) entitySet(id string) (*EntitySet, error) {
	if !m.HasInstance(id) {
		return nil, core.NotFoundf("securt instance %s not found", id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Re-check under the lock: a concurrent delete may have dropped the
	// set since the presence check.
	set, ok := m.entities[id]
	if !ok {
		return nil, core.NotFoundf("securt instance %s not found", id)
	}
	return set, nil
}

// sync pushes the entity document into the analytics nodes. When no
// node accepts the in-place update the set goes Dirty; a running
// instance is then rebuilt under the same id.
func (m *Manager) sync(ctx context.Context, id string, set *EntitySet) error {
	doc := set.Document()
	applied := false
	for _, nodeType := range []string{"crossline_analytics", "area_analytics"} {
		ok, err := m.core.ApplyNodeConfig(id, nodeType, doc)
		if err != nil {
			return err
		}
		applied = applied || ok
	}
	if applied {
		set.setState(StateClean)
		return nil
	}

	set.setState(StateDirty)
	rec, err := m.core.Get(id)
	if err != nil {
		return err
	}
	if !rec.Running {
		// Applied on next start via the rebuilt graph.
		return nil
	}

	set.setState(StateRebuilding)
	if err := m.core.Rebuild(ctx, id, "analytics", nil); err != nil {
		set.setState(StateDirty)
		return err
	}
	// Push again into the fresh nodes.
	for _, nodeType := range []string{"crossline_analytics", "area_analytics"} {
		if _, err := m.core.ApplyNodeConfig(id, nodeType, doc); err != nil {
			return err
		}
	}
	set.setState(StateClean)
	return nil
}

func applyIOFeature(req *model.CreateInstanceRequest, feature string, doc map[string]any) {
	str := func(key string) string {
		if v, ok := doc[key].(string); ok {
			return v
		}
		return ""
	}
	switch feature {
	case "input":
		if v := str("type"); v != "" {
			req.InputType = v
		}
		if v := str("url"); v != "" {
			req.InputURL = v
		}
	case "output":
		if v := str("type"); v != "" {
			req.OutputType = v
		}
		if v := str("url"); v != "" {
			req.OutputURL = v
		}
	}
}
