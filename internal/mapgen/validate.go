package mapgen

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError lists every invariant a map breaks.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid map: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid map: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks the structural invariants of a map: seed, layer count and
// order, node placement, required properties, and that every path ends in a
// boss. It returns a *ValidationError, or nil when the map is sound.
func Validate(m *MysticalMap) error {
	verr := &ValidationError{}
	if m == nil {
		verr.add("map is nil")
		return verr
	}

	if strings.TrimSpace(m.Seed) == "" {
		verr.add("seed is empty")
	}
	if len(m.Layers) < MinLayers || len(m.Layers) > MaxLayers {
		verr.add("layer count %d outside [%d, %d]", len(m.Layers), MinLayers, MaxLayers)
	}

	ids := make(map[string]bool)
	for i, layer := range m.Layers {
		validateLayer(verr, i, layer, ids)
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

type pathKey struct {
	path, node int
}

// validateLayer checks one layer and records seen node ids
func validateLayer(verr *ValidationError, position int, layer MapLayer, ids map[string]bool) {
	if layer.LayerIndex != position {
		verr.add("layer at position %d has index %d", position, layer.LayerIndex)
	}
	if layer.Boss == "" {
		verr.add("layer %d has no boss", position)
	}
	if layer.Location == "" {
		verr.add("layer %d has no location", position)
	}
	if len(layer.Nodes) == 0 {
		verr.add("layer %d has no nodes", position)
		return
	}

	positions := make(map[pathKey]bool)
	terminal := make(map[int]MapNode) // path -> node with the highest index

	for _, n := range layer.Nodes {
		switch {
		case n.ID == "":
			verr.add("layer %d has a node without id", position)
		case ids[n.ID]:
			verr.add("node id %q is duplicated", n.ID)
		default:
			ids[n.ID] = true
		}

		if !n.Type.IsValid() {
			verr.add("node %q has unknown type %d", n.ID, n.Type)
		}
		if n.LayerIndex != layer.LayerIndex {
			verr.add("node %q has layer index %d in layer %d", n.ID, n.LayerIndex, layer.LayerIndex)
		}
		if n.PathIndex < 0 || n.NodeIndex < 0 {
			verr.add("node %q has negative path or node index", n.ID)
		}

		key := pathKey{n.PathIndex, n.NodeIndex}
		if positions[key] {
			verr.add("layer %d has two nodes at path %d index %d", position, n.PathIndex, n.NodeIndex)
		}
		positions[key] = true

		for _, k := range RequiredKeys(n.Type) {
			if !n.Properties.Has(k) {
				verr.add("node %q (%s) is missing property %s", n.ID, n.Type, k)
			}
		}
		if n.Type == NodeBoss {
			if name, ok := n.Properties[KeyBossName].AsString(); n.Properties.Has(KeyBossName) && (!ok || name == "") {
				verr.add("boss node %q has a non-string or empty %s", n.ID, KeyBossName)
			}
		}

		if last, ok := terminal[n.PathIndex]; !ok || n.NodeIndex > last.NodeIndex {
			terminal[n.PathIndex] = n
		}
	}

	paths := make([]int, 0, len(terminal))
	for path := range terminal {
		paths = append(paths, path)
	}
	sort.Ints(paths)
	for _, path := range paths {
		if n := terminal[path]; n.Type != NodeBoss {
			verr.add("layer %d path %d ends in %s node %q, not a boss", position, path, n.Type, n.ID)
		}
	}
}

// ValidateRoster checks that every boss node names a member of the roster.
func ValidateRoster(m *MysticalMap, roster Roster) error {
	verr := &ValidationError{}
	for _, n := range m.AllNodes() {
		if n.Type != NodeBoss {
			continue
		}
		if name := n.Properties.GetString(KeyBossName); !roster.Contains(name) {
			verr.add("boss node %q names %q, which is not in the roster", n.ID, name)
		}
	}
	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}
