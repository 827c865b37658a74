package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestNewDialect(t *testing.T) {
	tests := []struct {
		dialectType DialectType
		want        string
	}{
		{DialectSQLite, "*database.SQLiteDialect"},
		{DialectPostgres, "*database.PostgresDialect"},
		{"unknown", "*database.SQLiteDialect"}, // Unknown falls back to SQLite
	}
	for _, tt := range tests {
		if got := fmt.Sprintf("%T", NewDialect(tt.dialectType)); got != tt.want {
			t.Errorf("NewDialect(%q) = %s, want %s", tt.dialectType, got, tt.want)
		}
	}
}

func TestDialect_Syntax(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		driver        string
		placeholder   string
		lastInsertID  bool
		returning     string
		collation     string
		autoIncrement string
		noCaseText    string
	}{
		{
			name:          "SQLite",
			dialect:       &SQLiteDialect{},
			driver:        "sqlite",
			placeholder:   "?",
			lastInsertID:  true,
			returning:     "",
			collation:     "COLLATE NOCASE",
			autoIncrement: "INTEGER PRIMARY KEY AUTOINCREMENT",
			noCaseText:    "TEXT COLLATE NOCASE",
		},
		{
			name:          "Postgres",
			dialect:       &PostgresDialect{},
			driver:        "postgres",
			placeholder:   "$3",
			lastInsertID:  false,
			returning:     " RETURNING id",
			collation:     "",
			autoIncrement: "BIGSERIAL PRIMARY KEY",
			noCaseText:    "CITEXT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.dialect
			if got := d.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %q, want %q", got, tt.driver)
			}
			if got := d.Placeholder(3); got != tt.placeholder {
				t.Errorf("Placeholder(3) = %q, want %q", got, tt.placeholder)
			}
			if got := d.SupportsLastInsertID(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertID() = %v, want %v", got, tt.lastInsertID)
			}
			if got := d.ReturningClause("id"); got != tt.returning {
				t.Errorf("ReturningClause(\"id\") = %q, want %q", got, tt.returning)
			}
			if got := d.CaseInsensitiveCollation(); got != tt.collation {
				t.Errorf("CaseInsensitiveCollation() = %q, want %q", got, tt.collation)
			}
			if got := d.AutoIncrementPrimaryKey(); got != tt.autoIncrement {
				t.Errorf("AutoIncrementPrimaryKey() = %q, want %q", got, tt.autoIncrement)
			}
			if got := caseInsensitiveText(d); got != tt.noCaseText {
				t.Errorf("caseInsensitiveText() = %q, want %q", got, tt.noCaseText)
			}
		})
	}
}

func TestSQLiteDialect_InitStatements(t *testing.T) {
	d := &SQLiteDialect{}
	stmts := d.InitStatements()

	expected := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}

	if len(stmts) != len(expected) {
		t.Fatalf("InitStatements() returned %d statements, want %d", len(stmts), len(expected))
	}
	for i, want := range expected {
		if stmts[i] != want {
			t.Errorf("InitStatements()[%d] = %q, want %q", i, stmts[i], want)
		}
	}
}

func TestPostgresDialect_InitStatements(t *testing.T) {
	stmts := (&PostgresDialect{}).InitStatements()
	if len(stmts) != 1 || stmts[0] != "CREATE EXTENSION IF NOT EXISTS citext" {
		t.Errorf("InitStatements() = %q", stmts)
	}
}

func TestSQLiteDialect_IsDuplicateKeyError(t *testing.T) {
	d := &SQLiteDialect{}
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("some random error"), false},
		{errors.New("UNIQUE constraint failed: maps.seed_hash"), true},
		{fmt.Errorf("wrapped: %w", errors.New("UNIQUE constraint failed: map_layers.map_id")), true},
		{errors.New("FOREIGN KEY constraint failed"), false},
	}
	for _, tt := range tests {
		if got := d.IsDuplicateKeyError(tt.err); got != tt.want {
			t.Errorf("IsDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestPostgresDialect_IsDuplicateKeyError(t *testing.T) {
	d := &PostgresDialect{}
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("some random error"), false},
		{&pq.Error{Code: "23505", Message: "duplicate key value"}, true},
		{fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{&pq.Error{Code: "23503", Message: "foreign key violation"}, false},
		{errors.New("ERROR: duplicate key value (SQLSTATE 23505)"), true},
		{errors.New("foreign key constraint"), false},
	}
	for _, tt := range tests {
		if got := d.IsDuplicateKeyError(tt.err); got != tt.want {
			t.Errorf("IsDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestQueryBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		input   string
		want    string
	}{
		{"sqlite unchanged", &SQLiteDialect{}, "SELECT id FROM maps WHERE seed_hash = ?", "SELECT id FROM maps WHERE seed_hash = ?"},
		{"postgres no params", &PostgresDialect{}, "SELECT COUNT(*) FROM maps", "SELECT COUNT(*) FROM maps"},
		{"postgres one", &PostgresDialect{}, "SELECT id FROM maps WHERE seed_hash = ?", "SELECT id FROM maps WHERE seed_hash = $1"},
		{
			"postgres many", &PostgresDialect{},
			"INSERT INTO map_layers (map_id, layer_index, boss, location, node_count) VALUES (?, ?, ?, ?, ?)",
			"INSERT INTO map_layers (map_id, layer_index, boss, location, node_count) VALUES ($1, $2, $3, $4, $5)",
		},
		{"postgres literal", &PostgresDialect{}, "SELECT '?' FROM maps WHERE seed = ?", "SELECT '?' FROM maps WHERE seed = $1"},
		{"empty", &PostgresDialect{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewQueryBuilder(tt.dialect).Build(tt.input); got != tt.want {
				t.Errorf("Build(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryBuilder_BuildWithReturning(t *testing.T) {
	query := "INSERT INTO maps (seed) VALUES (?)"

	if got := NewQueryBuilder(&SQLiteDialect{}).BuildWithReturning(query, "id"); got != query {
		t.Errorf("SQLite BuildWithReturning = %q", got)
	}

	want := "INSERT INTO maps (seed) VALUES ($1) RETURNING id"
	if got := NewQueryBuilder(&PostgresDialect{}).BuildWithReturning(query, "id"); got != want {
		t.Errorf("Postgres BuildWithReturning = %q, want %q", got, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	path := "/path/to/test.db"
	cfg := DefaultConfig(path)

	if cfg.Driver != "sqlite" {
		t.Errorf("Driver = %q, want %q", cfg.Driver, "sqlite")
	}
	if cfg.SQLitePath != path {
		t.Errorf("SQLitePath = %q, want %q", cfg.SQLitePath, path)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port = %d, want 5432", cfg.Postgres.Port)
	}
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()

	if cfg.Host != "localhost" || cfg.Port != 5432 || cfg.SSLMode != "disable" {
		t.Errorf("unexpected connection defaults: %+v", cfg)
	}
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d, want 25/5", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want %v", cfg.ConnMaxLifetime, 5*time.Minute)
	}
}

func TestPostgresConfig_ConnString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "mystic",
		Password: "secret",
		Database: "maps",
		SSLMode:  "require",
	}
	want := "host=db.example.com port=5433 user=mystic password=secret dbname=maps sslmode=require"
	if got := cfg.ConnString(); got != want {
		t.Errorf("ConnString() = %q, want %q", got, want)
	}
}

func TestDialect_InterfaceCompliance(t *testing.T) {
	var _ Dialect = (*SQLiteDialect)(nil)
	var _ Dialect = (*PostgresDialect)(nil)
}
