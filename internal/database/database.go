// Package database archives generated maps in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Database wraps the connection and provides map archive operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens the archive described by cfg.
func Open(cfg Config) (*Database, error) {
	switch DialectType(strings.ToLower(cfg.Driver)) {
	case DialectSQLite, "":
		return OpenSQLite(cfg.SQLitePath)
	case DialectPostgres:
		return openPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenSQLite opens or creates the SQLite archive at the given path.
func OpenSQLite(path string) (*Database, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dialect := NewDialect(DialectSQLite)
	db, err := sql.Open(dialect.DriverName(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per connection; a single connection keeps them in force
	db.SetMaxOpenConns(1)

	return newDatabase(db, dialect)
}

func openPostgres(cfg PostgresConfig) (*Database, error) {
	dialect := NewDialect(DialectPostgres)
	db, err := sql.Open(dialect.DriverName(), cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newDatabase(db, dialect)
}

// newDatabase runs the dialect's init statements and the schema migration.
func newDatabase(db *sql.DB, dialect Dialect) (*Database, error) {
	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	d := &Database{
		db:      db,
		dialect: dialect,
		qb:      NewQueryBuilder(dialect),
	}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		// One row per archived map. seed_hash keys the row because seeds
		// have no length limit and PostgreSQL caps index entries.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS maps (
			id %s,
			seed_hash TEXT UNIQUE NOT NULL,
			seed TEXT NOT NULL,
			layer_count INTEGER NOT NULL,
			has_final_layer INTEGER NOT NULL DEFAULT 0,
			node_count INTEGER NOT NULL,
			document TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, d.dialect.AutoIncrementPrimaryKey()),

		// Per-layer summary for boss and location queries
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS map_layers (
			map_id BIGINT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
			layer_index INTEGER NOT NULL,
			boss %s NOT NULL,
			location TEXT NOT NULL,
			node_count INTEGER NOT NULL,
			PRIMARY KEY (map_id, layer_index)
		)`, caseInsensitiveText(d.dialect)),

		`CREATE INDEX IF NOT EXISTS idx_map_layers_boss ON map_layers(boss)`,
		`CREATE INDEX IF NOT EXISTS idx_maps_created_at ON maps(created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect returns the dialect the archive speaks.
func (d *Database) Dialect() Dialect {
	return d.dialect
}
