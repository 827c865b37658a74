// migrate-to-postgres copies a SQLite map archive into PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/maps.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user mystic \
//	    -pg-password mystic \
//	    -pg-database mysticalmap
package main

import (
	"flag"
	"log"

	"github.com/lawnchairsociety/mysticalmap/internal/database"
)

func main() {
	defaults := database.DefaultPostgresConfig()

	sqlitePath := flag.String("sqlite", "data/maps.db", "Path to SQLite archive")
	pgHost := flag.String("pg-host", defaults.Host, "PostgreSQL host")
	pgPort := flag.Int("pg-port", defaults.Port, "PostgreSQL port")
	pgUser := flag.String("pg-user", defaults.User, "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", defaults.Database, "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", defaults.SSLMode, "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be copied without making changes")
	flag.Parse()

	log.Println("Map archive migration: SQLite to PostgreSQL")
	log.Println("============================================")

	log.Printf("Opening SQLite archive: %s", *sqlitePath)
	source, err := database.OpenSQLite(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite archive: %v", err)
	}
	defer source.Close()

	summaries, err := source.ListMaps(0)
	if err != nil {
		log.Fatalf("Failed to list maps: %v", err)
	}
	log.Printf("Found %d maps", len(summaries))

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
		for _, s := range summaries {
			log.Printf("  would copy %q (%d layers, %d nodes)", s.Seed, s.LayerCount, s.NodeCount)
		}
		return
	}

	pg := defaults
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	log.Printf("Opening PostgreSQL archive: %s@%s:%d/%s", pg.User, pg.Host, pg.Port, pg.Database)
	target, err := database.Open(database.Config{
		Driver:   string(database.DialectPostgres),
		Postgres: pg,
	})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL archive: %v", err)
	}
	defer target.Close()

	var copied, skipped int
	for _, s := range summaries {
		m, err := source.LoadMap(s.Seed)
		if err != nil {
			// Undecodable documents are reported and left behind.
			log.Printf("  skipping %q: %v", s.Seed, err)
			skipped++
			continue
		}
		if _, err := target.SaveMap(m); err != nil {
			log.Fatalf("Failed to copy %q: %v", s.Seed, err)
		}
		copied++
	}

	log.Println("============================================")
	log.Printf("Migration complete! Copied %d maps, skipped %d", copied, skipped)
}
