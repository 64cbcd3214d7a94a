// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func LoadRegistry(path string) (*ModeRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ModeRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON, creating the directory if needed.
func (r *ModeRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Validate rejects registries that could not serve a request for every mode.
func (r *ModeRegistry) Validate() error {
	if len(r.Modes) == 0 {
		return fmt.Errorf("registry contains no modes")
	}

	ids := make(map[string]bool, len(r.Modes))
	for _, mode := range r.Modes {
		if strings.TrimSpace(mode.ID) == "" {
			return fmt.Errorf("mode missing required field: id")
		}
		if ids[mode.ID] {
			return fmt.Errorf("duplicate mode id: %s", mode.ID)
		}
		ids[mode.ID] = true

		if strings.TrimSpace(mode.Prompt) == "" {
			return fmt.Errorf("mode %s missing required field: prompt", mode.ID)
		}
		if err := mode.Schema().Validate(); err != nil {
			return fmt.Errorf("mode %s: %w", mode.ID, err)
		}
	}
	return nil
}

// Find returns the mode with the given id.
func (r *ModeRegistry) Find(id string) (Mode, bool) {
	for _, mode := range r.Modes {
		if mode.ID == id {
			return mode, true
		}
	}
	return Mode{}, false
}
