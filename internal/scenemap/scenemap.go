// Package scenemap resolves generated map nodes to playable scene identifiers.
package scenemap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
)

// SceneID names a playable scene.
type SceneID string

// Scenes for the non-boss node types
const (
	SceneEncounter SceneID = "Scene_Encounter"
	SceneRestShop  SceneID = "Scene_RestShop"
	SceneEvent     SceneID = "Scene_Event"
)

var (
	// ErrUnknownBoss is returned for a boss node whose name has no arena.
	ErrUnknownBoss = errors.New("scenemap: unknown boss")
	// ErrUnknownNodeType is returned for a node type the table cannot place.
	ErrUnknownNodeType = errors.New("scenemap: unknown node type")
)

// ArenaFor returns the conventional arena scene for a boss name.
func ArenaFor(boss string) SceneID {
	return SceneID("Arena_" + boss)
}

// Assignment pairs a node with its scene.
type Assignment struct {
	NodeID string
	Scene  SceneID
}

// Mapper maps nodes to scenes using a fixed table. It is safe for
// concurrent use.
type Mapper struct {
	table  Table
	bosses []string // sorted arena keys, for suggestions
}

// NewMapper creates a mapper for the given table. Empty node-type scenes
// fall back to the defaults and arenas with an empty scene are dropped.
func NewMapper(table Table) *Mapper {
	defaults := DefaultTable()
	if table.Encounter == "" {
		table.Encounter = defaults.Encounter
	}
	if table.RestShop == "" {
		table.RestShop = defaults.RestShop
	}
	if table.Event == "" {
		table.Event = defaults.Event
	}

	arenas := make(map[string]SceneID, len(table.Arenas))
	bosses := make([]string, 0, len(table.Arenas))
	for name, scene := range table.Arenas {
		if scene == "" {
			continue
		}
		arenas[name] = scene
		bosses = append(bosses, name)
	}
	sort.Strings(bosses)
	table.Arenas = arenas

	return &Mapper{table: table, bosses: bosses}
}

// MapNodeToScene returns the scene a node is played in.
func (m *Mapper) MapNodeToScene(node mapgen.MapNode) (SceneID, error) {
	switch node.Type {
	case mapgen.NodeBoss:
		return m.arena(node)
	case mapgen.NodeEncounter:
		return m.table.Encounter, nil
	case mapgen.NodeRestShop:
		return m.table.RestShop, nil
	case mapgen.NodeEvent:
		return m.table.Event, nil
	}
	return "", fmt.Errorf("%w: node %q has type %d", ErrUnknownNodeType, node.ID, node.Type)
}

func (m *Mapper) arena(node mapgen.MapNode) (SceneID, error) {
	name := node.Properties.GetString(mapgen.KeyBossName)
	if scene, ok := m.table.Arenas[name]; ok {
		return scene, nil
	}

	if suggestion, ok := m.Suggest(name); ok {
		return "", fmt.Errorf("%w: node %q names %q (did you mean %q?)", ErrUnknownBoss, node.ID, name, suggestion)
	}
	return "", fmt.Errorf("%w: node %q names %q", ErrUnknownBoss, node.ID, name)
}

// MapScenes assigns a scene to every node of a map, in layer order.
func (m *Mapper) MapScenes(mm *mapgen.MysticalMap) ([]Assignment, error) {
	nodes := mm.AllNodes()
	out := make([]Assignment, 0, len(nodes))
	for _, n := range nodes {
		scene, err := m.MapNodeToScene(n)
		if err != nil {
			return nil, err
		}
		out = append(out, Assignment{NodeID: n.ID, Scene: scene})
	}
	return out, nil
}

// Suggest returns the known boss name closest to name, if any is close enough.
func (m *Mapper) Suggest(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}

	best := ""
	bestDist := -1
	for _, boss := range m.bosses {
		dist := levenshtein.ComputeDistance(name, strings.ToLower(boss))
		if dist > suggestLimit(len(boss)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = boss, dist
		}
	}
	return best, bestDist >= 0
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
