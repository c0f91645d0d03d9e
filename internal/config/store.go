// SPDX-License-Identifier: MIT

// Package config implements the process-wide system configuration store:
// a JSON-shaped tree addressed by dotted or slash-separated paths, safe
// under concurrent readers and writers, persisted atomically to disk.
package config

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/log"
)

// Store guards one JSON tree. Writers take the exclusive lock, readers
// the shared lock; all mutations are atomic with respect to reads.
type Store struct {
	mu   sync.RWMutex
	root map[string]any
	path string // persistent file; empty disables persistence
}

// New creates a store backed by the given file. A missing or unreadable
// file seeds the defaults and writes them out.
func New(path string) *Store {
	s := &Store{path: path, root: Defaults()}
	if path == "" {
		return s
	}
	logger := log.WithComponent("config")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Info().Str(log.FieldPath, path).
			Msg("config file missing, seeding defaults")
		if err := s.save(s.root); err != nil {
			logger.Warn().Err(err).Msg("failed to persist seeded defaults")
		}
		return s
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		logger.Error().Err(err).Str(log.FieldPath, path).
			Msg("config file unparseable, falling back to defaults")
		return s
	}
	s.root = tree
	return s
}

// ParsePath splits a dotted or slash-separated path into keys. Empty
// segments are dropped; an empty path addresses the root.
func ParsePath(path string) []string {
	raw := strings.FieldsFunc(path, func(r rune) bool {
		return r == '.' || r == '/'
	})
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Get returns the value at path, or the whole tree for an empty path.
func (s *Store) Get(path string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := ParsePath(path)
	var cur any = s.root
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, core.NotFoundf("config path %q not found", path)
		}
		cur, ok = obj[k]
		if !ok {
			return nil, core.NotFoundf("config path %q not found", path)
		}
	}
	return clone(cur), nil
}

// SetMerge overlays value onto the subtree at path, descending into
// existing sub-objects. Creating intermediate objects as needed.
func (s *Store) SetMerge(path string, value any) error {
	keys := ParsePath(path)
	if len(keys) == 0 {
		obj, ok := value.(map[string]any)
		if !ok {
			return core.InvalidArgumentf("root config value must be an object")
		}
		s.mu.Lock()
		s.root = merge(s.root, obj)
		err := s.save(s.root)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.root
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[k] = next
		}
		cur = next
	}
	leaf := keys[len(keys)-1]
	if obj, ok := value.(map[string]any); ok {
		if existing, ok := cur[leaf].(map[string]any); ok {
			cur[leaf] = merge(existing, obj)
		} else {
			cur[leaf] = clone(obj)
		}
	} else {
		cur[leaf] = clone(value)
	}
	return s.save(s.root)
}

// SetReplace substitutes the whole tree.
func (s *Store) SetReplace(value map[string]any) error {
	if value == nil {
		return core.InvalidArgumentf("root config value must be an object")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = cloneMap(value)
	return s.save(s.root)
}

// Delete removes the subtree at path. Returns false when the path is
// absent; callers surface that as 404.
func (s *Store) Delete(path string) bool {
	keys := ParsePath(path)
	if len(keys) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.root
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}
	leaf := keys[len(keys)-1]
	if _, ok := cur[leaf]; !ok {
		return false
	}
	delete(cur, leaf)
	if err := s.save(s.root); err != nil {
		logger := log.WithComponent("config")
		logger.Warn().Err(err).Msg("failed to persist after delete")
	}
	return true
}

// ResetDefaults restores and persists the default tree.
func (s *Store) ResetDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = Defaults()
	return s.save(s.root)
}

// Reload re-reads the persistent file. The file read happens without
// the lock held so a slow disk cannot stall readers, and so Reload can
// never self-deadlock with a writer.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return core.Wrap(core.KindTransientIO, "reload config", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return core.Wrap(core.KindInvalidArgument, "reload config", err)
	}
	s.mu.Lock()
	s.root = tree
	s.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the whole tree.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMap(s.root)
}

// save persists the tree. Callers must hold the exclusive lock (or be
// the only owner during construction).
func (s *Store) save(tree map[string]any) error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return core.Wrap(core.KindInternal, "marshal config", err)
	}
	if err := renameio.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return core.Wrap(core.KindTransientIO, "write config", err)
	}
	return nil
}

// merge deep-merges src into dst and returns dst. Matching keys whose
// values are both objects merge recursively; everything else is replaced.
func merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				dst[k] = merge(dv, sv)
				continue
			}
		}
		dst[k] = clone(v)
	}
	return dst
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = clone(e)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}
