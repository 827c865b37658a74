package database

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/mysticalmap/internal/logger"
	"github.com/lawnchairsociety/mysticalmap/internal/mapcodec"
	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"golang.org/x/crypto/blake2b"
)

// ErrMapNotFound is returned when no map is archived under a seed.
var ErrMapNotFound = errors.New("map not found")

// ErrMapExists is returned when creating a map whose seed is already archived.
var ErrMapExists = errors.New("map already archived")

// MapSummary describes an archived map without decoding its document.
type MapSummary struct {
	ID            int64
	Seed          string
	LayerCount    int
	HasFinalLayer bool
	NodeCount     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// seedHash keys a seed of any length.
func seedHash(seed string) string {
	sum := blake2b.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// CreateMap archives a map whose seed is not stored yet.
// Returns ErrMapExists if it is.
func (d *Database) CreateMap(m *mapgen.MysticalMap) (int64, error) {
	doc, err := mapcodec.Serialize(m)
	if err != nil {
		return 0, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := d.insertMap(tx, m, doc, time.Now().UTC())
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return 0, ErrMapExists
		}
		return 0, fmt.Errorf("failed to create map: %w", err)
	}
	if err := d.insertLayers(tx, id, m); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit map: %w", err)
	}

	logger.Debug("Map archived", "id", id, "layers", len(m.Layers))
	return id, nil
}

// SaveMap archives a map, replacing any map stored under the same seed.
func (d *Database) SaveMap(m *mapgen.MysticalMap) (int64, error) {
	doc, err := mapcodec.Serialize(m)
	if err != nil {
		return 0, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var id int64
	err = tx.QueryRow(d.qb.Build("SELECT id FROM maps WHERE seed_hash = ?"), seedHash(m.Seed)).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if id, err = d.insertMap(tx, m, doc, now); err != nil {
			return 0, fmt.Errorf("failed to save map: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("failed to look up map: %w", err)
	default:
		_, err = tx.Exec(
			d.qb.Build(`UPDATE maps SET layer_count = ?, has_final_layer = ?, node_count = ?, document = ?, updated_at = ?
				WHERE id = ?`),
			len(m.Layers), boolToInt(m.HasFinalLayer()), m.NodeCount(), string(doc), now, id,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update map: %w", err)
		}
		if _, err := tx.Exec(d.qb.Build("DELETE FROM map_layers WHERE map_id = ?"), id); err != nil {
			return 0, fmt.Errorf("failed to clear map layers: %w", err)
		}
	}

	if err := d.insertLayers(tx, id, m); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit map: %w", err)
	}

	logger.Debug("Map saved", "id", id, "layers", len(m.Layers))
	return id, nil
}

// insertMap inserts the maps row and returns its id.
func (d *Database) insertMap(tx *sql.Tx, m *mapgen.MysticalMap, doc []byte, now time.Time) (int64, error) {
	query := d.qb.BuildWithReturning(
		`INSERT INTO maps (seed_hash, seed, layer_count, has_final_layer, node_count, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, "id")
	args := []any{
		seedHash(m.Seed), m.Seed, len(m.Layers), boolToInt(m.HasFinalLayer()),
		m.NodeCount(), string(doc), now, now,
	}

	if d.dialect.SupportsLastInsertID() {
		result, err := tx.Exec(query, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	var id int64
	err := tx.QueryRow(query, args...).Scan(&id)
	return id, err
}

// insertLayers writes one summary row per layer.
func (d *Database) insertLayers(tx *sql.Tx, mapID int64, m *mapgen.MysticalMap) error {
	stmt, err := tx.Prepare(d.qb.Build(
		"INSERT INTO map_layers (map_id, layer_index, boss, location, node_count) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare layer insert: %w", err)
	}
	defer stmt.Close()

	for _, layer := range m.Layers {
		if _, err := stmt.Exec(mapID, layer.LayerIndex, layer.Boss, layer.Location, len(layer.Nodes)); err != nil {
			return fmt.Errorf("failed to insert layer %d: %w", layer.LayerIndex, err)
		}
	}
	return nil
}

// LoadMap retrieves and decodes the map archived under a seed.
func (d *Database) LoadMap(seed string) (*mapgen.MysticalMap, error) {
	var stored, doc string
	err := d.db.QueryRow(
		d.qb.Build("SELECT seed, document FROM maps WHERE seed_hash = ?"), seedHash(seed),
	).Scan(&stored, &doc)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && stored != seed) {
		return nil, ErrMapNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load map: %w", err)
	}

	m, err := mapcodec.Deserialize([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to decode archived map: %w", err)
	}
	return m, nil
}

// HasMap checks if a map is archived under a seed.
func (d *Database) HasMap(seed string) (bool, error) {
	var count int
	err := d.db.QueryRow(d.qb.Build("SELECT COUNT(*) FROM maps WHERE seed_hash = ?"), seedHash(seed)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check map: %w", err)
	}
	return count > 0, nil
}

// DeleteMap removes an archived map and its layer rows.
func (d *Database) DeleteMap(seed string) error {
	result, err := d.db.Exec(d.qb.Build("DELETE FROM maps WHERE seed_hash = ?"), seedHash(seed))
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if rows == 0 {
		return ErrMapNotFound
	}
	return nil
}

// CountMaps returns the number of archived maps.
func (d *Database) CountMaps() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM maps").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count maps: %w", err)
	}
	return count, nil
}

// ListMaps returns the most recently archived maps, newest first.
// A limit of zero or less lists every map.
func (d *Database) ListMaps(limit int) ([]MapSummary, error) {
	query := `SELECT id, seed, layer_count, has_final_layer, node_count, created_at, updated_at
		FROM maps ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	var summaries []MapSummary
	for rows.Next() {
		var s MapSummary
		var final int
		if err := rows.Scan(&s.ID, &s.Seed, &s.LayerCount, &final, &s.NodeCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan map: %w", err)
		}
		s.HasFinalLayer = final != 0
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// FindSeedsByBoss returns the seeds of archived maps that include a boss.
// The name is compared without case.
func (d *Database) FindSeedsByBoss(boss string) ([]string, error) {
	rows, err := d.db.Query(d.qb.Build(
		`SELECT DISTINCT m.seed FROM maps m
		JOIN map_layers l ON l.map_id = m.id
		WHERE l.boss = ?
		ORDER BY m.seed`), boss)
	if err != nil {
		return nil, fmt.Errorf("failed to find maps: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
