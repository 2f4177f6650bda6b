package worldmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a map definition from a YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse map %s: %w", path, err)
	}
	if d.MapName == "" {
		return nil, fmt.Errorf("map %s: missing name", path)
	}
	d.init()
	return &d, nil
}

// LoadOrDefault loads a map definition, falling back to Default on any
// failure. A broken map file degrades the game, it does not stop it; the
// returned error is informational.
func LoadOrDefault(path string) (*Definition, error) {
	if path == "" {
		return Default(), nil
	}
	d, err := Load(path)
	if err != nil {
		return Default(), err
	}
	return d, nil
}
