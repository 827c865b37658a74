// Package mapgen builds seeded, layered maps of paths and nodes.
//
// A map has six layers themed around the seven sins (one sin sits out each
// run) and, depending on the seed, a seventh layer for the Devil. Every layer
// holds one or more parallel paths, each ending in a boss node.
package mapgen

// MysticalMap is the generation result.
type MysticalMap struct {
	Seed   string     // Canonical seed the map was generated from
	Layers []MapLayer // Ordered by progression depth
}

// MapLayer is one progression depth, themed around one boss.
type MapLayer struct {
	LayerIndex int
	Boss       string
	Location   string
	Nodes      []MapNode // Ordered by path, then by position within the path
}

// Equal compares two maps layer by layer and node by node.
func (m *MysticalMap) Equal(other *MysticalMap) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Seed != other.Seed || len(m.Layers) != len(other.Layers) {
		return false
	}
	for i := range m.Layers {
		if !m.Layers[i].Equal(other.Layers[i]) {
			return false
		}
	}
	return true
}

// Equal compares two layers, including every node.
func (l MapLayer) Equal(other MapLayer) bool {
	if l.LayerIndex != other.LayerIndex || l.Boss != other.Boss || l.Location != other.Location {
		return false
	}
	if len(l.Nodes) != len(other.Nodes) {
		return false
	}
	for i := range l.Nodes {
		if !l.Nodes[i].Equal(other.Nodes[i]) {
			return false
		}
	}
	return true
}

// PathCount returns the number of distinct paths in the layer.
func (l MapLayer) PathCount() int {
	paths := make(map[int]bool)
	for _, n := range l.Nodes {
		paths[n.PathIndex] = true
	}
	return len(paths)
}

// Path returns the nodes of one path in node order.
func (l MapLayer) Path(pathIndex int) []MapNode {
	var nodes []MapNode
	for _, n := range l.Nodes {
		if n.PathIndex == pathIndex {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NodeCount returns the total number of nodes across all layers.
func (m *MysticalMap) NodeCount() int {
	count := 0
	for _, l := range m.Layers {
		count += len(l.Nodes)
	}
	return count
}

// AllNodes returns every node in layer order.
func (m *MysticalMap) AllNodes() []MapNode {
	nodes := make([]MapNode, 0, m.NodeCount())
	for _, l := range m.Layers {
		nodes = append(nodes, l.Nodes...)
	}
	return nodes
}

// FindNode searches all layers for a node by ID.
func (m *MysticalMap) FindNode(id string) (MapNode, bool) {
	for _, l := range m.Layers {
		for _, n := range l.Nodes {
			if n.ID == id {
				return n, true
			}
		}
	}
	return MapNode{}, false
}

// HasFinalLayer returns true if the map ends with the final boss layer.
func (m *MysticalMap) HasFinalLayer() bool {
	if len(m.Layers) == 0 {
		return false
	}
	for _, n := range m.Layers[len(m.Layers)-1].Nodes {
		if n.Type == NodeBoss && n.Properties.GetBool(KeyIsFinalBoss) {
			return true
		}
	}
	return false
}
