package mapgen

import (
	"errors"
	"fmt"
	"math"
)

// Layer count bounds every map must satisfy.
const (
	MinLayers = 6
	MaxLayers = 7
)

// Config contains parameters for map generation
type Config struct {
	SinLayers        int         `yaml:"sin_layers"`         // Layers drawn from the sins
	FinalLayerChance float64     `yaml:"final_layer_chance"` // Probability of appending the final boss layer
	MinPaths         int         `yaml:"min_paths"`          // Parallel paths per layer
	MaxPaths         int         `yaml:"max_paths"`
	MinPathNodes     int         `yaml:"min_path_nodes"` // Non-boss nodes per path
	MaxPathNodes     int         `yaml:"max_path_nodes"`
	Weights          NodeWeights `yaml:"weights"`
}

// NodeWeights are the relative odds of each non-boss node type.
type NodeWeights struct {
	Encounter float64 `yaml:"encounter"`
	RestShop  float64 `yaml:"rest_shop"`
	Event     float64 `yaml:"event"`
}

// DefaultConfig returns reasonable defaults for map generation
func DefaultConfig() Config {
	return Config{
		SinLayers:        6,
		FinalLayerChance: 0.5,
		MinPaths:         1,
		MaxPaths:         3,
		MinPathNodes:     2,
		MaxPathNodes:     4,
		Weights: NodeWeights{
			Encounter: 5,
			RestShop:  2,
			Event:     3,
		},
	}
}

// Validate reports every inconsistency in the config.
func (c Config) Validate() error {
	var errs []error

	if c.SinLayers < MinLayers || c.SinLayers > MaxLayers {
		errs = append(errs, fmt.Errorf("sin_layers = %d, must be in [%d, %d]", c.SinLayers, MinLayers, MaxLayers))
	}
	if math.IsNaN(c.FinalLayerChance) || c.FinalLayerChance < 0 || c.FinalLayerChance > 1 {
		errs = append(errs, fmt.Errorf("final_layer_chance = %v, must be in [0, 1]", c.FinalLayerChance))
	}
	if c.FinalLayerChance > 0 && c.SinLayers+1 > MaxLayers {
		errs = append(errs, fmt.Errorf("sin_layers = %d leaves no room for the final layer", c.SinLayers))
	}
	if c.MinPaths < 1 || c.MaxPaths < c.MinPaths {
		errs = append(errs, fmt.Errorf("paths range [%d, %d] is invalid", c.MinPaths, c.MaxPaths))
	}
	if c.MinPathNodes < 0 || c.MaxPathNodes < c.MinPathNodes {
		errs = append(errs, fmt.Errorf("path nodes range [%d, %d] is invalid", c.MinPathNodes, c.MaxPathNodes))
	}
	w := c.Weights
	if !finite(w.Encounter) || !finite(w.RestShop) || !finite(w.Event) {
		errs = append(errs, errors.New("node weights must be finite numbers"))
	} else if w.Encounter < 0 || w.RestShop < 0 || w.Event < 0 {
		errs = append(errs, errors.New("node weights must not be negative"))
	} else if c.MaxPathNodes > 0 && w.Encounter+w.RestShop+w.Event <= 0 {
		errs = append(errs, errors.New("node weights must not all be zero"))
	}

	return errors.Join(errs...)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
