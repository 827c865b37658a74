// Command mapd runs the map preview service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/mysticalmap/internal/config"
	"github.com/lawnchairsociety/mysticalmap/internal/database"
	"github.com/lawnchairsociety/mysticalmap/internal/logger"
	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"github.com/lawnchairsociety/mysticalmap/internal/scenemap"
	"github.com/lawnchairsociety/mysticalmap/internal/server"
)

func main() {
	configFile := flag.String("config", "data/mystic.yaml", "Path to config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	noArchive := flag.Bool("no-archive", false, "Serve maps without opening the archive database")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		log.Printf("Using default logging config: %v", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Info("Starting mystical map service")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gen, err := mapgen.NewGenerator(cfg.Generator, mapgen.DefaultRoster())
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	table, err := scenemap.LoadTable(cfg.Scenes)
	if err != nil {
		log.Fatalf("Failed to load scene table: %v", err)
	}
	logger.Info("Scene table loaded", "path", cfg.Scenes, "arenas", len(table.Arenas))

	var store server.MapStore
	if !*noArchive {
		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		store = db

		if count, err := db.CountMaps(); err == nil {
			logger.Info("Map archive opened", "driver", db.Dialect().DriverName(), "maps", count)
		}
	}

	srv := server.NewServer(cfg.Server, gen, scenemap.NewMapper(table), store)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server stopped", "error", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	<-serveErr

	logger.Info("Service stopped")
}
