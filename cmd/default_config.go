package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/queue-sim/sim"
)

// DefaultsConfig represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type DefaultsConfig struct {
	Version   string                        `yaml:"version"`
	Scenarios map[string]sim.ScenarioBundle `yaml:"scenarios"`
}

// loadDefaultsConfig parses defaults.yaml with strict field checking.
func loadDefaultsConfig(path string) (DefaultsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultsConfig{}, fmt.Errorf("reading defaults file: %w", err)
	}
	var cfg DefaultsConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return DefaultsConfig{}, fmt.Errorf("parsing defaults YAML: %w", err)
	}
	return cfg, nil
}

// Preset returns the named scenario from the defaults file.
func (d DefaultsConfig) Preset(name string) (*sim.ScenarioBundle, error) {
	b, ok := d.Scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, d.PresetNames())
	}
	return &b, nil
}

// PresetNames returns the scenario names in sorted order.
func (d DefaultsConfig) PresetNames() []string {
	names := make([]string, 0, len(d.Scenarios))
	for name := range d.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
