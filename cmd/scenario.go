package cmd

import (
	"fmt"

	"github.com/inference-sim/queue-sim/sim"
)

// scenarioSources names where a run's configuration comes from. Later sources
// override earlier ones: built-in defaults, then the preset, then the file.
type scenarioSources struct {
	DefaultsPath string
	Preset       string
	ConfigPath   string
}

// resolveScenario builds the SimConfig and shop overrides from every source.
func resolveScenario(src scenarioSources) (sim.SimConfig, map[string]sim.ShopItemBundle, error) {
	cfg := sim.DefaultSimConfig()
	shopOverrides := make(map[string]sim.ShopItemBundle)

	apply := func(b *sim.ScenarioBundle, origin string) error {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%s: %w", origin, err)
		}
		b.Apply(&cfg)
		for id, item := range b.Shop {
			shopOverrides[id] = item
		}
		return nil
	}

	if src.Preset != "" {
		defaults, err := loadDefaultsConfig(src.DefaultsPath)
		if err != nil {
			return cfg, nil, err
		}
		b, err := defaults.Preset(src.Preset)
		if err != nil {
			return cfg, nil, err
		}
		if err := apply(b, "preset "+src.Preset); err != nil {
			return cfg, nil, err
		}
	}
	if src.ConfigPath != "" {
		b, err := sim.LoadScenarioBundle(src.ConfigPath)
		if err != nil {
			return cfg, nil, err
		}
		if err := apply(b, src.ConfigPath); err != nil {
			return cfg, nil, err
		}
	}
	return cfg, shopOverrides, nil
}
