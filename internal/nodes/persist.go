// SPDX-License-Identifier: MIT

package nodes

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/log"
)

const snapshotVersion = "1.0"

// snapshot is the on-disk schema of <storage_dir>/nodes.json.
type snapshot struct {
	Version string          `json:"version"`
	Total   int             `json:"total"`
	Nodes   []PreConfigured `json:"nodes"`
}

// Save writes the pool state to <dir>/nodes.json atomically.
func (p *Pool) Save(dir string) error {
	p.mu.RLock()
	snap := snapshot{Version: snapshotVersion, Total: len(p.nodes)}
	for _, rec := range p.nodes {
		snap.Nodes = append(snap.Nodes, copyRecord(rec))
	}
	p.mu.RUnlock()

	// Stable output for diffs and tests.
	sort.Slice(snap.Nodes, func(i, j int) bool {
		return snap.Nodes[i].NodeID < snap.Nodes[j].NodeID
	})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.Wrap(core.KindTransientIO, "create storage dir", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return core.Wrap(core.KindInternal, "marshal node snapshot", err)
	}
	path := filepath.Join(dir, "nodes.json")
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return core.Wrap(core.KindTransientIO, "write node snapshot", err)
	}
	return nil
}

// Load restores pool state from <dir>/nodes.json. A missing file is not
// an error. Records whose template no longer exists are dropped with a
// warning.
func (p *Pool) Load(dir string) error {
	path := filepath.Join(dir, "nodes.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return core.Wrap(core.KindTransientIO, "read node snapshot", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Wrap(core.KindInvalidArgument, "parse node snapshot", err)
	}

	logger := log.WithComponent("nodepool")
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range snap.Nodes {
		rec := snap.Nodes[i]
		if _, ok := p.templates.Get(rec.TemplateID); !ok {
			logger.Warn().Str(log.FieldNodeID, rec.NodeID).
				Str(log.FieldTemplateID, rec.TemplateID).
				Msg("dropping persisted node with unknown template")
			continue
		}
		// Persisted in-use flags do not survive a restart: no pipeline
		// holds these nodes anymore.
		rec.InUse = false
		p.nodes[rec.NodeID] = &rec
	}
	return nil
}
