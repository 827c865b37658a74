package scenemap

import (
	"errors"
	"fmt"
	"os"

	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"gopkg.in/yaml.v3"
)

// Table holds the scene assignments a Mapper uses.
type Table struct {
	Arenas    map[string]SceneID `yaml:"arenas"` // boss name -> arena scene
	Encounter SceneID            `yaml:"encounter"`
	RestShop  SceneID            `yaml:"rest_shop"`
	Event     SceneID            `yaml:"event"`
}

// DefaultTable returns an arena for every boss of the default roster.
func DefaultTable() Table {
	names := mapgen.DefaultRoster().Names()
	arenas := make(map[string]SceneID, len(names))
	for _, name := range names {
		arenas[name] = ArenaFor(name)
	}

	return Table{
		Arenas:    arenas,
		Encounter: SceneEncounter,
		RestShop:  SceneRestShop,
		Event:     SceneEvent,
	}
}

// LoadTable reads a scene table from a YAML file. Entries the file leaves
// out keep their defaults; a missing file yields DefaultTable.
func LoadTable(path string) (Table, error) {
	table := DefaultTable()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return table, nil
		}
		return table, fmt.Errorf("failed to read scene table: %w", err)
	}

	var file Table
	if err := yaml.Unmarshal(data, &file); err != nil {
		return table, fmt.Errorf("failed to parse scene table: %w", err)
	}

	for name, scene := range file.Arenas {
		if scene == "" {
			return table, fmt.Errorf("scene table: boss %q has an empty arena", name)
		}
		table.Arenas[name] = scene
	}
	if file.Encounter != "" {
		table.Encounter = file.Encounter
	}
	if file.RestShop != "" {
		table.RestShop = file.RestShop
	}
	if file.Event != "" {
		table.Event = file.Event
	}

	return table, nil
}
