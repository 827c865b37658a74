package scenemap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
)

func bossNode(name string) mapgen.MapNode {
	return mapgen.MapNode{
		ID:   "layer0_path0_node2",
		Type: mapgen.NodeBoss,
		Properties: mapgen.Properties{
			mapgen.KeyBossName:   mapgen.StringValue(name),
			mapgen.KeyLocation:   mapgen.StringValue("Ivory Spire"),
			mapgen.KeyDifficulty: mapgen.IntValue(3),
		},
	}
}

func TestMapNodeToScene(t *testing.T) {
	m := NewMapper(DefaultTable())

	tests := []struct {
		node mapgen.MapNode
		want SceneID
	}{
		{bossNode(mapgen.BossPride), "Arena_Pride"},
		{bossNode(mapgen.BossWrath), "Arena_Wrath"},
		{bossNode(mapgen.BossDevil), "Arena_Devil"},
		{mapgen.MapNode{Type: mapgen.NodeEncounter}, SceneEncounter},
		{mapgen.MapNode{Type: mapgen.NodeRestShop}, SceneRestShop},
		{mapgen.MapNode{Type: mapgen.NodeEvent}, SceneEvent},
	}

	for _, tc := range tests {
		got, err := m.MapNodeToScene(tc.node)
		if err != nil {
			t.Errorf("%s %s: unexpected error %v", tc.node.Type, tc.node.Properties.GetString(mapgen.KeyBossName), err)
			continue
		}
		if got != tc.want {
			t.Errorf("MapNodeToScene = %q, want %q", got, tc.want)
		}
	}
}

func TestMapNodeToSceneTotalOverGeneratedMaps(t *testing.T) {
	m := NewMapper(DefaultTable())

	for i := 0; i < 100; i++ {
		mm, err := mapgen.GenerateMap(fmt.Sprintf("scenes-%d", i))
		if err != nil {
			t.Fatalf("GenerateMap failed: %v", err)
		}

		assignments, err := m.MapScenes(mm)
		if err != nil {
			t.Fatalf("MapScenes failed: %v", err)
		}
		if len(assignments) != mm.NodeCount() {
			t.Fatalf("got %d assignments for %d nodes", len(assignments), mm.NodeCount())
		}
		for _, a := range assignments {
			if a.Scene == "" {
				t.Errorf("node %s mapped to an empty scene", a.NodeID)
			}
		}
	}
}

func TestUnknownBoss(t *testing.T) {
	m := NewMapper(DefaultTable())

	_, err := m.MapNodeToScene(bossNode("Pryde"))
	if !errors.Is(err, ErrUnknownBoss) {
		t.Fatalf("err = %v, want ErrUnknownBoss", err)
	}
	if !strings.Contains(err.Error(), `did you mean "Pride"`) {
		t.Errorf("error %q lacks a suggestion", err)
	}

	_, err = m.MapNodeToScene(bossNode("Zzyzx"))
	if !errors.Is(err, ErrUnknownBoss) || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("err = %v, want ErrUnknownBoss without suggestion", err)
	}

	_, err = m.MapNodeToScene(mapgen.MapNode{ID: "x", Type: mapgen.NodeBoss})
	if !errors.Is(err, ErrUnknownBoss) {
		t.Errorf("boss without name: err = %v", err)
	}
}

func TestUnknownNodeType(t *testing.T) {
	m := NewMapper(DefaultTable())
	if _, err := m.MapNodeToScene(mapgen.MapNode{Type: mapgen.NodeType(9)}); !errors.Is(err, ErrUnknownNodeType) {
		t.Errorf("err = %v, want ErrUnknownNodeType", err)
	}
}

func TestSuggest(t *testing.T) {
	m := NewMapper(DefaultTable())

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"pride", "Pride", true},
		{"Glutony", "Gluttony", true},
		{"devl", "Devil", true},
		{"", "", false},
		{"Dragon", "", false},
	}

	for _, tc := range tests {
		got, ok := m.Suggest(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNewMapperCopiesTable(t *testing.T) {
	table := DefaultTable()
	m := NewMapper(table)
	table.Arenas[mapgen.BossPride] = "Tampered"

	got, err := m.MapNodeToScene(bossNode(mapgen.BossPride))
	if err != nil || got != "Arena_Pride" {
		t.Errorf("MapNodeToScene = %q, %v; mapper should not see later table edits", got, err)
	}
}

func TestNewMapperFillsEmptyScenes(t *testing.T) {
	m := NewMapper(Table{
		Arenas: map[string]SceneID{mapgen.BossPride: "", mapgen.BossWrath: "Arena_Wrath"},
		Event:  "Scene_Custom",
	})

	tests := []struct {
		nodeType mapgen.NodeType
		want     SceneID
	}{
		{mapgen.NodeEncounter, SceneEncounter},
		{mapgen.NodeRestShop, SceneRestShop},
		{mapgen.NodeEvent, "Scene_Custom"},
	}
	for _, tc := range tests {
		got, err := m.MapNodeToScene(mapgen.MapNode{Type: tc.nodeType})
		if err != nil || got != tc.want {
			t.Errorf("%s: got %q, %v; want %q", tc.nodeType, got, err, tc.want)
		}
	}

	if _, err := m.MapNodeToScene(bossNode(mapgen.BossPride)); !errors.Is(err, ErrUnknownBoss) {
		t.Errorf("empty arena: err = %v, want ErrUnknownBoss", err)
	}
	if got, err := m.MapNodeToScene(bossNode(mapgen.BossWrath)); err != nil || got != "Arena_Wrath" {
		t.Errorf("Wrath = %q, %v", got, err)
	}
}

func TestNewMapperZeroTable(t *testing.T) {
	m := NewMapper(Table{})
	for _, nodeType := range []mapgen.NodeType{mapgen.NodeEncounter, mapgen.NodeRestShop, mapgen.NodeEvent} {
		if got, _ := m.MapNodeToScene(mapgen.MapNode{Type: nodeType}); got == "" {
			t.Errorf("%s mapped to an empty scene", nodeType)
		}
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()

	table, err := LoadTable(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadTable(missing) failed: %v", err)
	}
	if table.Arenas[mapgen.BossPride] != "Arena_Pride" {
		t.Error("missing file should yield the default table")
	}

	path := filepath.Join(dir, "scenes.yaml")
	content := `arenas:
  Pride: Arena_PrideRework
  Vanity: Arena_Vanity
event: Scene_EventV2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err = LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if table.Arenas[mapgen.BossPride] != "Arena_PrideRework" {
		t.Errorf("Pride arena = %q", table.Arenas[mapgen.BossPride])
	}
	if table.Arenas["Vanity"] != "Arena_Vanity" {
		t.Errorf("Vanity arena = %q", table.Arenas["Vanity"])
	}
	if table.Arenas[mapgen.BossWrath] != "Arena_Wrath" {
		t.Error("entries left out of the file should keep their defaults")
	}
	if table.Event != "Scene_EventV2" || table.Encounter != SceneEncounter {
		t.Errorf("Event = %q, Encounter = %q", table.Event, table.Encounter)
	}
}

func TestLoadTableErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "arenas: [unclosed\n"},
		{"empty arena", "arenas:\n  Pride: \"\"\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadTable(path); err == nil {
				t.Error("LoadTable should fail")
			}
		})
	}
}

func TestShippedTableMatchesDefaults(t *testing.T) {
	table, err := LoadTable(filepath.Join("..", "..", "data", "scenes.yaml"))
	if err != nil {
		t.Fatalf("shipped scene table does not load: %v", err)
	}

	def := DefaultTable()
	if len(table.Arenas) != len(def.Arenas) {
		t.Fatalf("expected %d arenas, got %d", len(def.Arenas), len(table.Arenas))
	}
	for name, scene := range def.Arenas {
		if table.Arenas[name] != scene {
			t.Errorf("arena for %s = %q, want %q", name, table.Arenas[name], scene)
		}
	}
}
