package main

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"github.com/lawnchairsociety/mysticalmap/internal/scenemap"
)

func renderMap(output *strings.Builder, m *mapgen.MysticalMap, showDetails bool) {
	final := "no"
	if m.HasFinalLayer() {
		final = "yes"
	}
	output.WriteString(fmt.Sprintf("Mystical Map (Seed: %q)\n", m.Seed))
	output.WriteString(fmt.Sprintf("Layers: %d, Nodes: %d, Final layer: %s\n", len(m.Layers), m.NodeCount(), final))
	output.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, layer := range m.Layers {
		renderLayer(output, layer, showDetails)
		output.WriteString("\n")
	}
}

func renderLayer(output *strings.Builder, layer mapgen.MapLayer, showDetails bool) {
	output.WriteString(fmt.Sprintf("Layer %d: %s @ %s\n", layer.LayerIndex, layer.Boss, layer.Location))
	output.WriteString(strings.Repeat("-", 40) + "\n")

	for p := 0; p < layer.PathCount(); p++ {
		symbols := make([]string, 0)
		for _, node := range layer.Path(p) {
			symbols = append(symbols, "["+nodeSymbol(node.Type)+"]")
		}
		output.WriteString(fmt.Sprintf("  Path %d: %s\n", p, strings.Join(symbols, "--")))
	}

	if boss, ok := layerBoss(layer); ok {
		line := fmt.Sprintf("  Boss: %s (difficulty %d)", boss.Properties.GetString(mapgen.KeyBossName),
			boss.Properties.GetInt(mapgen.KeyDifficulty))
		if boss.Properties.GetBool(mapgen.KeyIsFinalBoss) {
			line += " [final]"
		}
		output.WriteString(line + "\n")
	}

	if !showDetails {
		return
	}

	output.WriteString("\n  Node Details:\n")
	for _, node := range layer.Nodes {
		props := make([]string, 0, len(node.Properties))
		for _, key := range node.Properties.Keys() {
			props = append(props, key+"="+node.Properties[key].String())
		}
		output.WriteString(fmt.Sprintf("    [%s] %-22s %s\n", nodeSymbol(node.Type), node.ID, strings.Join(props, ", ")))
	}
}

// layerBoss returns the boss node ending the first path.
func layerBoss(layer mapgen.MapLayer) (mapgen.MapNode, bool) {
	for _, node := range layer.Nodes {
		if node.Type == mapgen.NodeBoss {
			return node, true
		}
	}
	return mapgen.MapNode{}, false
}

func nodeSymbol(t mapgen.NodeType) string {
	switch t {
	case mapgen.NodeEncounter:
		return "E"
	case mapgen.NodeRestShop:
		return "R"
	case mapgen.NodeEvent:
		return "?"
	case mapgen.NodeBoss:
		return "B"
	default:
		return " "
	}
}

func renderScenes(output *strings.Builder, assignments []scenemap.Assignment) {
	output.WriteString("Scenes:\n")
	for _, a := range assignments {
		output.WriteString(fmt.Sprintf("  %-22s %s\n", a.NodeID, a.Scene))
	}
	output.WriteString("\n")
}

func getLegend() string {
	return `Legend:
  [E] Encounter
  [R] Rest stop / shop
  [?] Event
  [B] Boss (ends every path)

  Paths run left to right; every path of a layer ends at the same boss.
`
}
