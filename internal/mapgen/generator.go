package mapgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/lawnchairsociety/mysticalmap/internal/logger"
	"github.com/lawnchairsociety/mysticalmap/internal/seedrand"
)

// ErrInvalidConfig is returned when a generator is built from an inconsistent
// config or roster.
var ErrInvalidConfig = errors.New("mapgen: invalid generator config")

var (
	encounterTypes = []string{"Skirmish", "Ambush", "Horde", "Elite"}
	eventTypes     = []string{"Shrine", "Treasure", "Curse", "Stranger", "Riddle", "Omen"}
)

// Generator builds maps from seeds. A Generator holds no mutable state and
// may be shared between goroutines.
type Generator struct {
	config  Config
	roster  Roster
	weights []seedrand.Weighted[NodeType]
}

// NewGenerator creates a generator for the given config and roster
func NewGenerator(config Config, roster Roster) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := validateRoster(roster, config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Generator{
		config:  config,
		roster:  roster,
		weights: nodeWeights(config.Weights),
	}, nil
}

// validateRoster checks the roster can fill every layer the config asks for
func validateRoster(roster Roster, config Config) error {
	if len(roster.Sins) < config.SinLayers {
		return fmt.Errorf("roster has %d sins, need %d", len(roster.Sins), config.SinLayers)
	}

	entries := roster.Sins
	if config.FinalLayerChance > 0 {
		entries = append(entries[:len(entries):len(entries)], roster.Final)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Name == "" {
			return errors.New("roster entry has an empty name")
		}
		if seen[e.Name] {
			return fmt.Errorf("roster name %q is duplicated", e.Name)
		}
		seen[e.Name] = true
		if len(e.Locations) == 0 {
			return fmt.Errorf("roster entry %q has no locations", e.Name)
		}
		for _, loc := range e.Locations {
			if loc == "" {
				return fmt.Errorf("roster entry %q has an empty location", e.Name)
			}
		}
	}
	return nil
}

// DefaultGenerator returns a generator with the default config and roster.
func DefaultGenerator() *Generator {
	config := DefaultConfig()
	roster := DefaultRoster()
	return &Generator{
		config:  config,
		roster:  roster,
		weights: nodeWeights(config.Weights),
	}
}

func nodeWeights(w NodeWeights) []seedrand.Weighted[NodeType] {
	return []seedrand.Weighted[NodeType]{
		{Item: NodeEncounter, Weight: w.Encounter},
		{Item: NodeRestShop, Weight: w.RestShop},
		{Item: NodeEvent, Weight: w.Event},
	}
}

// GenerateMap builds a map from seed text with the default generator.
func GenerateMap(seedText string) (*MysticalMap, error) {
	return DefaultGenerator().Generate(seedText)
}

// Config returns the generator's config.
func (g *Generator) Config() Config {
	return g.config
}

// Roster returns the generator's roster.
func (g *Generator) Roster() Roster {
	return g.roster
}

// Generate builds a map from seed text. Blank text gets a freshly minted
// seed; any other text is used verbatim. The error is only non-nil for a
// generator whose config cannot be satisfied.
func (g *Generator) Generate(seedText string) (*MysticalMap, error) {
	return g.GenerateFrom(seedrand.New(seedText))
}

// GenerateFrom builds a map drawing from the given source.
func (g *Generator) GenerateFrom(src *seedrand.Source) (*MysticalMap, error) {
	d := &drawer{src: src}

	// Draw order is part of the seed contract; reordering changes every map
	includeFinal := d.float() < g.config.FinalLayerChance

	sins := make([]BossEntry, len(g.roster.Sins))
	copy(sins, g.roster.Sins)
	src.Shuffle(len(sins), func(i, j int) {
		sins[i], sins[j] = sins[j], sins[i]
	})

	bosses := make([]BossEntry, 0, g.config.SinLayers+1)
	bosses = append(bosses, sins[:g.config.SinLayers]...)
	if includeFinal {
		bosses = append(bosses, g.roster.Final)
	}

	m := &MysticalMap{
		Seed:   src.Seed(),
		Layers: make([]MapLayer, 0, len(bosses)),
	}
	for i, boss := range bosses {
		final := includeFinal && i == len(bosses)-1
		m.Layers = append(m.Layers, g.generateLayer(d, i, boss, final))
	}

	if d.err != nil {
		return nil, fmt.Errorf("generate map: %w", d.err)
	}

	logger.Debug("Map generated",
		"seed", abbreviate(m.Seed),
		"seed_generated", src.Generated(),
		"layers", len(m.Layers),
		"nodes", m.NodeCount())

	return m, nil
}

// generateLayer builds one layer: location, paths, then nodes per path
func (g *Generator) generateLayer(d *drawer, layerIndex int, boss BossEntry, final bool) MapLayer {
	layer := MapLayer{
		LayerIndex: layerIndex,
		Boss:       boss.Name,
		Location:   d.pick(boss.Locations),
	}

	pathCount := d.intn(g.config.MinPaths, g.config.MaxPaths+1)
	for p := 0; p < pathCount; p++ {
		length := d.intn(g.config.MinPathNodes, g.config.MaxPathNodes+1)
		for n := 0; n < length; n++ {
			nodeType := d.nodeType(g.weights)
			layer.Nodes = append(layer.Nodes, MapNode{
				ID:         NodeID(layerIndex, p, n),
				Type:       nodeType,
				LayerIndex: layerIndex,
				PathIndex:  p,
				NodeIndex:  n,
				Properties: g.nodeProperties(d, nodeType, layerIndex),
			})
		}

		// Every path ends at the layer's boss
		layer.Nodes = append(layer.Nodes, MapNode{
			ID:         NodeID(layerIndex, p, length),
			Type:       NodeBoss,
			LayerIndex: layerIndex,
			PathIndex:  p,
			NodeIndex:  length,
			Properties: g.bossProperties(d, layer, final),
		})
	}

	return layer
}

// nodeProperties draws the type-specific properties of a non-boss node
func (g *Generator) nodeProperties(d *drawer, nodeType NodeType, layerIndex int) Properties {
	switch nodeType {
	case NodeEncounter:
		encounterType := d.pick(encounterTypes)
		elite := encounterType == "Elite"
		enemies := d.intn(1+layerIndex/2, 4+layerIndex/2)
		reward := 1.0 + 0.15*float64(layerIndex) + 0.5*d.float()
		if elite {
			reward *= 1.5
		}
		return Properties{
			KeyEncounterType:    StringValue(encounterType),
			KeyEnemyCount:       IntValue(int64(enemies)),
			KeyRewardMultiplier: FloatValue(round2(reward)),
			KeyIsElite:          BoolValue(elite),
		}

	case NodeRestShop:
		return Properties{
			KeyRestEfficiency: FloatValue(round2(0.5 + 0.5*d.float())),
			KeyShopQuality:    IntValue(int64(d.intn(1, 6))),
		}

	case NodeEvent:
		return Properties{
			KeyEventType: StringValue(d.pick(eventTypes)),
			KeyRiskLevel: IntValue(int64(d.intn(1, 6))),
		}
	}

	return Properties{}
}

// bossProperties draws the properties of a layer's terminal boss node
func (g *Generator) bossProperties(d *drawer, layer MapLayer, final bool) Properties {
	base := 3 + 2*layer.LayerIndex
	return Properties{
		KeyBossName:    StringValue(layer.Boss),
		KeyLocation:    StringValue(layer.Location),
		KeyDifficulty:  IntValue(int64(d.intn(base, base+3))),
		KeyIsFinalBoss: BoolValue(final),
	}
}

// drawer wraps a source and keeps the first draw error so generation code
// can read straight through. After an error every draw returns a zero value.
type drawer struct {
	src *seedrand.Source
	err error
}

func (d *drawer) intn(minInclusive, maxExclusive int) int {
	if d.err != nil {
		return minInclusive
	}
	v, err := d.src.NextInt(minInclusive, maxExclusive)
	if err != nil {
		d.err = err
		return minInclusive
	}
	return v
}

func (d *drawer) float() float64 {
	if d.err != nil {
		return 0
	}
	return d.src.NextFloat()
}

func (d *drawer) pick(options []string) string {
	i := d.intn(0, len(options))
	if d.err != nil {
		return ""
	}
	return options[i]
}

func (d *drawer) nodeType(weights []seedrand.Weighted[NodeType]) NodeType {
	if d.err != nil {
		return NodeEncounter
	}
	t, err := seedrand.Choice(d.src, weights)
	if err != nil {
		d.err = err
		return NodeEncounter
	}
	return t
}

// round2 rounds to two decimal places
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// abbreviate shortens long seeds for log output
func abbreviate(s string) string {
	const limit = 64
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
