// SPDX-License-Identifier: MIT

// Package models resolves relative model references to absolute file
// paths using an ordered search chain over data roots, install roots
// and development fallbacks.
package models

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cvedix/edge-ai-api/internal/log"
)

// Known model file extensions, tried in order for bare-name lookups.
var extensions = []string{".onnx", ".rknn", ".weights", ".pt", ".pth", ".pb", ".tflite"}

// Resolver maps model references to files on disk.
type Resolver struct {
	roots  []string
	logger zerolog.Logger
}

// NewResolver builds the search chain. First existing file wins:
//
//  1. $CVEDIX_DATA_ROOT
//  2. $CVEDIX_SDK_ROOT/cvedix_data
//  3. production install root
//  4. system data dirs
//  5. SDK source-tree relatives
//  6. working-directory development fallback
func NewResolver() *Resolver {
	var roots []string
	if v := os.Getenv("CVEDIX_DATA_ROOT"); v != "" {
		roots = append(roots, v)
	}
	if v := os.Getenv("CVEDIX_SDK_ROOT"); v != "" {
		roots = append(roots, filepath.Join(v, "cvedix_data"))
	}
	roots = append(roots,
		"/opt/edge_ai_api/models",
		"/usr/share/edge_ai_api",
		"/usr/local/share/edge_ai_api",
		"../edge_ai_sdk/cvedix_data",
		"./cvedix_data",
	)
	return &Resolver{roots: roots, logger: log.WithComponent("models")}
}

// NewResolverWithRoots builds a resolver over an explicit chain. Used by
// tests and embedded deployments.
func NewResolverWithRoots(roots ...string) *Resolver {
	return &Resolver{roots: roots, logger: log.WithComponent("models")}
}

// ResolvePath resolves a relative reference like
// "models/face/yunet.onnx". Returns "" on miss.
func (r *Resolver) ResolvePath(ref string) string {
	if ref == "" {
		return ""
	}
	if filepath.IsAbs(ref) {
		if fileExists(ref) {
			return ref
		}
		return ""
	}
	for _, root := range r.roots {
		candidate := filepath.Join(root, ref)
		if fileExists(candidate) {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				abs = candidate
			}
			r.logger.Debug().
				Str(log.FieldModel, ref).Str(log.FieldPath, abs).Msg("model resolved")
			return abs
		}
	}
	return ""
}

// ResolveName resolves a bare model name plus category, iterating the
// known extensions and a small set of name patterns under each root.
// A case-insensitive contains-match is accepted as a last resort.
func (r *Resolver) ResolveName(name, category string) string {
	if name == "" {
		return ""
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, root := range r.roots {
		dirs := []string{root}
		if category != "" {
			dirs = append(dirs, filepath.Join(root, category), filepath.Join(root, "models", category))
		}
		for _, dir := range dirs {
			for _, ext := range extensions {
				for _, candidate := range []string{
					base + ext,
					"cvedix_" + base + ext,
					base + "_model" + ext,
				} {
					path := filepath.Join(dir, candidate)
					if fileExists(path) {
						abs, err := filepath.Abs(path)
						if err != nil {
							abs = path
						}
						r.logger.Debug().
							Str(log.FieldModel, name).Str(log.FieldPath, abs).Msg("model resolved by name")
						return abs
					}
				}
			}
		}
	}
	// Last resort: scan each root for a file containing the name.
	lower := strings.ToLower(base)
	for _, root := range r.roots {
		match := ""
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() || match != "" {
				return nil
			}
			if strings.Contains(strings.ToLower(d.Name()), lower) && hasModelExt(d.Name()) {
				match = path
			}
			return nil
		})
		if match != "" {
			abs, err := filepath.Abs(match)
			if err != nil {
				abs = match
			}
			r.logger.Debug().
				Str(log.FieldModel, name).Str(log.FieldPath, abs).Msg("model resolved by contains-match")
			return abs
		}
	}
	return ""
}

// List enumerates model files available under the search chain,
// relative to their root. Duplicate relative paths keep the
// first-chain occurrence.
func (r *Resolver) List() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, root := range r.roots {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() || !hasModelExt(d.Name()) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			if _, ok := seen[rel]; ok {
				return nil
			}
			seen[rel] = struct{}{}
			out = append(out, rel)
			return nil
		})
	}
	return out
}

// MapDetectionSensitivity converts the categorical knob to the numeric
// confidence threshold. Unknown values default to Medium.
func MapDetectionSensitivity(s string) float64 {
	switch strings.ToLower(s) {
	case "low":
		return 0.5
	case "high":
		return 0.9
	default:
		return 0.7
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func hasModelExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
