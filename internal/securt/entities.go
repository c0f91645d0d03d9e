// SPDX-License-Identifier: MIT

// Package securt is the analytics facade: a mirror registry over the
// core instance manager with sensitivity/modality knobs, plus the
// per-instance line and area entities that configure the analytics
// pipeline stages.
package securt

import (
	"sync"

	"github.com/google/uuid"
)

// Line kinds.
const (
	KindCountingLine   = "countingLine"
	KindCrossingLine   = "crossingLine"
	KindTailgatingLine = "tailgatingLine"
)

// Area kinds.
const (
	KindExclusionArea = "exclusionArea"
	KindMaskingArea   = "maskingArea"
	KindMotionArea    = "motionArea"
)

// Direction constrains line crossing detection.
type Direction string

const (
	DirectionUp   Direction = "Up"
	DirectionDown Direction = "Down"
	DirectionBoth Direction = "Both"
)

// Point is one vertex of a line or polygon.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is a polyline entity owned by exactly one instance.
type Line struct {
	LineID      string    `json:"lineId"`
	Name        string    `json:"name,omitempty"`
	Kind        string    `json:"kind"`
	Coordinates []Point   `json:"coordinates"`
	Direction   Direction `json:"direction,omitempty"`
	Classes     []string  `json:"classes,omitempty"`
	Color       []int     `json:"color,omitempty"` // RGBA
}

// Area is a polygon entity owned by exactly one instance.
type Area struct {
	AreaID      string   `json:"areaId"`
	Name        string   `json:"name,omitempty"`
	Kind        string   `json:"kind"`
	Coordinates []Point  `json:"coordinates"`
	Classes     []string `json:"classes,omitempty"`
	Color       []int    `json:"color,omitempty"` // RGBA
}

// EntityState tracks whether the running graph reflects the entity set.
type EntityState string

const (
	StateClean      EntityState = "clean"
	StateDirty      EntityState = "dirty"
	StateRebuilding EntityState = "rebuilding"
)

// EntitySet holds every line and area of one instance. Deleting the
// instance drops the whole set.
type EntitySet struct {
	mu    sync.RWMutex
	lines map[string]*Line
	areas map[string]*Area
	state EntityState
}

func NewEntitySet() *EntitySet {
	return &EntitySet{
		lines: make(map[string]*Line),
		areas: make(map[string]*Area),
		state: StateClean,
	}
}

// AddLine stores the line, minting an id when absent, and returns it.
func (s *EntitySet) AddLine(l Line) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.LineID == "" {
		l.LineID = uuid.NewString()
	}
	s.lines[l.LineID] = &l
	return l.LineID
}

// GetLine returns a copy of the line.
func (s *EntitySet) GetLine(id string) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lines[id]
	if !ok {
		return Line{}, false
	}
	return *l, true
}

// DeleteLine removes the line, reporting whether it existed.
func (s *EntitySet) DeleteLine(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lines[id]
	delete(s.lines, id)
	return ok
}

// LinesByKind groups lines under counting/crossing/tailgating keys.
func (s *EntitySet) LinesByKind() map[string][]Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string][]Line{
		"counting":   {},
		"crossing":   {},
		"tailgating": {},
	}
	for _, l := range s.lines {
		switch l.Kind {
		case KindCountingLine:
			out["counting"] = append(out["counting"], *l)
		case KindCrossingLine:
			out["crossing"] = append(out["crossing"], *l)
		case KindTailgatingLine:
			out["tailgating"] = append(out["tailgating"], *l)
		}
	}
	return out
}

// AddArea stores the area, minting an id when absent, and returns it.
func (s *EntitySet) AddArea(a Area) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.AreaID == "" {
		a.AreaID = uuid.NewString()
	}
	s.areas[a.AreaID] = &a
	return a.AreaID
}

// DeleteArea removes the area, reporting whether it existed.
func (s *EntitySet) DeleteArea(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.areas[id]
	delete(s.areas, id)
	return ok
}

// Areas returns copies of every area.
func (s *EntitySet) Areas() []Area {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Area, 0, len(s.areas))
	for _, a := range s.areas {
		out = append(out, *a)
	}
	return out
}

// Empty reports whether the set holds no entities.
func (s *EntitySet) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines) == 0 && len(s.areas) == 0
}

// Document renders the set as the configuration document the analytics
// nodes consume.
func (s *EntitySet) Document() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]any, 0, len(s.lines))
	for _, l := range s.lines {
		lines = append(lines, map[string]any{
			"lineId":      l.LineID,
			"name":        l.Name,
			"kind":        l.Kind,
			"coordinates": l.Coordinates,
			"direction":   string(l.Direction),
			"classes":     l.Classes,
			"color":       l.Color,
		})
	}
	areas := make([]any, 0, len(s.areas))
	for _, a := range s.areas {
		areas = append(areas, map[string]any{
			"areaId":      a.AreaID,
			"name":        a.Name,
			"kind":        a.Kind,
			"coordinates": a.Coordinates,
			"classes":     a.Classes,
			"color":       a.Color,
		})
	}
	return map[string]any{"lines": lines, "areas": areas}
}

// State returns the current synchronisation state.
func (s *EntitySet) State() EntityState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *EntitySet) setState(st EntityState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
