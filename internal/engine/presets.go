package engine

import (
	"fmt"
	"sort"
)

// Named weight presets for common breeding objectives.
const (
	PresetBalanced = "balanced"
	PresetMeat     = "meat"
	PresetWool     = "wool"
	PresetWorm     = "worm"
)

// presets is a read-only registry constructed once at process start.
// Callers receive copies; the registry itself is never handed out.
var presets = map[string]Weights{
	PresetBalanced: {
		Growth:       0.30,
		Wool:         0.20,
		Reproduction: 0.20,
		Health:       0.20,
		Temperament:  0.10,
	},
	PresetMeat: {
		Growth:       0.50,
		Wool:         0.10,
		Reproduction: 0.20,
		Health:       0.15,
		Temperament:  0.05,
	},
	PresetWool: {
		Growth:       0.20,
		Wool:         0.40,
		Reproduction: 0.20,
		Health:       0.15,
		Temperament:  0.05,
	},
	PresetWorm: {
		Growth:       0.25,
		Wool:         0.15,
		Reproduction: 0.20,
		Health:       0.35,
		Temperament:  0.05,
	},
}

// PresetWeights returns the weight set for a named preset.
func PresetWeights(name string) (Weights, error) {
	w, ok := presets[name]
	if !ok {
		return Weights{}, fmt.Errorf("unknown preset %q, available: %v", name, PresetNames())
	}
	return w, nil
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
