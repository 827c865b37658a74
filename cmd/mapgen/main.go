// Command mapgen generates a mystical map for a seed, or renders a saved one.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/mysticalmap/internal/config"
	"github.com/lawnchairsociety/mysticalmap/internal/database"
	"github.com/lawnchairsociety/mysticalmap/internal/logger"
	"github.com/lawnchairsociety/mysticalmap/internal/mapcodec"
	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"github.com/lawnchairsociety/mysticalmap/internal/scenemap"
)

func main() {
	seed := flag.String("seed", "", "Map seed (empty for a random seed)")
	inputFile := flag.String("input", "", "Render a saved map YAML file instead of generating one")
	outputFile := flag.String("output", "", "Write the map YAML document to this file")
	render := flag.Bool("render", true, "Print an ASCII rendering (false prints the YAML document)")
	showLegend := flag.Bool("legend", true, "Show legend")
	showDetails := flag.Bool("details", false, "List every node with its properties")
	showScenes := flag.Bool("scenes", false, "List the scene assigned to every node")
	dbFile := flag.String("db", "", "Archive the map into this SQLite database")
	configFile := flag.String("config", "data/mystic.yaml", "Path to config YAML file")
	loggingConfig := flag.String("logging", "", "Path to logging config YAML file (logging is off when empty)")
	flag.Parse()

	if *loggingConfig != "" {
		logConfig, err := logger.LoadConfig(*loggingConfig)
		if err != nil {
			fail("Error loading logging config: %v", err)
		}
		if err := logger.Initialize(logConfig); err != nil {
			fail("Error initializing logger: %v", err)
		}
		defer logger.Close()
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fail("Error loading config: %v", err)
	}

	var m *mapgen.MysticalMap
	if *inputFile != "" {
		m, err = mapcodec.Load(*inputFile)
		if err != nil {
			fail("Error loading map: %v", err)
		}
	} else {
		gen, err := mapgen.NewGenerator(cfg.Generator, mapgen.DefaultRoster())
		if err != nil {
			fail("Error creating generator: %v", err)
		}
		m, err = gen.Generate(*seed)
		if err != nil {
			fail("Error generating map: %v", err)
		}
		logger.Info("Map generated", "seed", m.Seed, "layers", len(m.Layers), "nodes", m.NodeCount())
	}

	if *outputFile != "" {
		if err := mapcodec.Save(m, *outputFile); err != nil {
			fail("Error writing map: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Map written to %s\n", *outputFile)
	}

	if *dbFile != "" {
		if err := archive(m, *dbFile); err != nil {
			fail("Error archiving map: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Map archived in %s\n", *dbFile)
	}

	var output strings.Builder
	if *render {
		renderMap(&output, m, *showDetails)
	} else if *outputFile == "" {
		doc, err := mapcodec.Serialize(m)
		if err != nil {
			fail("Error serializing map: %v", err)
		}
		output.Write(doc)
	}

	if *showScenes {
		table, err := scenemap.LoadTable(cfg.Scenes)
		if err != nil {
			fail("Error loading scene table: %v", err)
		}
		assignments, err := scenemap.NewMapper(table).MapScenes(m)
		if err != nil {
			fail("Error mapping scenes: %v", err)
		}
		renderScenes(&output, assignments)
	}

	if *render && *showLegend {
		output.WriteString(getLegend())
	}

	fmt.Print(output.String())
}

func archive(m *mapgen.MysticalMap, path string) error {
	db, err := database.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.SaveMap(m)
	return err
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
