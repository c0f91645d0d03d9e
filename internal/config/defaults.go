// SPDX-License-Identifier: MIT

package config

// Defaults returns a fresh copy of the seed configuration tree.
func Defaults() map[string]any {
	return map[string]any{
		"system": map[string]any{
			"max_running_instances": float64(0), // 0 disables the cap
			"web_server": map[string]any{
				"host": "0.0.0.0",
				"port": float64(8080),
			},
			"storage_dir": "/opt/edge_ai_api/storage",
		},
		"pipeline": map[string]any{
			"decoder_priority_list": []any{"jetson", "nvidia", "msdk", "vaapi", "software"},
			"default_font":          "/opt/edge_ai_api/fonts/default.ttf",
			"rtsp": map[string]any{
				"latency_ms":      float64(200),
				"timeout_ms":      float64(5000),
				"drop_on_latency": true,
			},
		},
	}
}

// GetString reads a string leaf, returning fallback on miss or type
// mismatch.
func (s *Store) GetString(path, fallback string) string {
	v, err := s.Get(path)
	if err != nil {
		return fallback
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fallback
}

// GetInt reads a numeric leaf. JSON numbers decode as float64.
func (s *Store) GetInt(path string, fallback int) int {
	v, err := s.Get(path)
	if err != nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return fallback
}

// GetBool reads a boolean leaf.
func (s *Store) GetBool(path string, fallback bool) bool {
	v, err := s.Get(path)
	if err != nil {
		return fallback
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

// GetStringSlice reads a list of strings, skipping non-string elements.
func (s *Store) GetStringSlice(path string) []string {
	v, err := s.Get(path)
	if err != nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if str, ok := e.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
