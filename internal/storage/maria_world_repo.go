package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// MariaWorldStore persists the world in MariaDB/MySQL.
type MariaWorldStore struct {
	db *sql.DB
}

// NewMariaWorldStore connects and creates missing tables.
//
// dsn: user:pass@tcp(host:port)/dbname
func NewMariaWorldStore(dsn string) (*MariaWorldStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping MariaDB: %w", err)
	}

	store := &MariaWorldStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return store, nil
}

func (s *MariaWorldStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS biomes (
			id             VARCHAR(36)  PRIMARY KEY,
			name           VARCHAR(64)  NOT NULL UNIQUE,
			color          INT UNSIGNED NOT NULL,
			cell_selection VARCHAR(32)  NOT NULL
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS whittaker_grid (
			id         VARCHAR(36) PRIMARY KEY,
			elevation  INT         NOT NULL,
			moisture   INT         NOT NULL,
			biome_name VARCHAR(64) NOT NULL,
			UNIQUE KEY uq_pair (elevation, moisture)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS zones (
			id         VARCHAR(36) PRIMARY KEY,
			z          INT         NOT NULL,
			min_x      INT         NOT NULL,
			min_y      INT         NOT NULL,
			max_x      INT         NOT NULL,
			max_y      INT         NOT NULL,
			elevation  INT         NOT NULL,
			moisture   INT         NOT NULL,
			biome_name VARCHAR(64) NOT NULL,
			INDEX idx_plane (z, min_x, max_x)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id      VARCHAR(36) PRIMARY KEY,
			x       INT         NOT NULL,
			y       INT         NOT NULL,
			z       INT         NOT NULL,
			zone_id VARCHAR(36) NOT NULL,
			UNIQUE KEY uq_location (z, x, y)
		) ENGINE=InnoDB`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

const zoneColumns = `z.id, z.z, z.min_x, z.min_y, z.max_x, z.max_y, z.elevation, z.moisture,
	b.id, b.name, b.color, b.cell_selection`

func scanZone(row interface{ Scan(...interface{}) error }) (world.Zone, error) {
	var zone world.Zone
	err := row.Scan(&zone.ID, &zone.Z,
		&zone.Rect.MinX, &zone.Rect.MinY, &zone.Rect.MaxX, &zone.Rect.MaxY,
		&zone.Elevation, &zone.Moisture,
		&zone.Biome.ID, &zone.Biome.Name, &zone.Biome.Color, &zone.Biome.CellSelection)
	return zone, err
}

func (s *MariaWorldStore) FindZoneContaining(ctx context.Context, x, y, z int) (*world.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones z JOIN biomes b ON b.name = z.biome_name
		WHERE z.z = ? AND z.min_x <= ? AND z.max_x >= ? AND z.min_y <= ? AND z.max_y >= ?
		LIMIT 1`

	zone, err := scanZone(s.db.QueryRowContext(ctx, query, z, x, x, y, y))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find zone at (%d, %d, %d): %w", x, y, z, err)
	}
	return &zone, nil
}

func (s *MariaWorldStore) FindZonesOverlapping(ctx context.Context, rect world.Rect, z int) ([]world.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones z JOIN biomes b ON b.name = z.biome_name
		WHERE z.z = ? AND z.min_x <= ? AND z.max_x >= ? AND z.min_y <= ? AND z.max_y >= ?`

	rows, err := s.db.QueryContext(ctx, query, z, rect.MaxX, rect.MinX, rect.MaxY, rect.MinY)
	if err != nil {
		return nil, fmt.Errorf("find zones overlapping %s: %w", rect, err)
	}
	defer rows.Close()

	var out []world.Zone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, zone)
	}
	return out, rows.Err()
}

func (s *MariaWorldStore) SaveZone(ctx context.Context, zone *world.Zone) (*world.Zone, error) {
	saved := *zone
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	query := `INSERT INTO zones (id, z, min_x, min_y, max_x, max_y, elevation, moisture, biome_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, saved.ID, saved.Z,
		saved.Rect.MinX, saved.Rect.MinY, saved.Rect.MaxX, saved.Rect.MaxY,
		saved.Elevation, saved.Moisture, saved.Biome.Name)
	if err != nil {
		return nil, fmt.Errorf("insert zone: %w", err)
	}
	return &saved, nil
}

func (s *MariaWorldStore) FindRoom(ctx context.Context, x, y, z int) (*world.Room, error) {
	query := `SELECT id, x, y, z, zone_id FROM rooms WHERE z = ? AND x = ? AND y = ?`

	var r world.Room
	err := s.db.QueryRowContext(ctx, query, z, x, y).Scan(&r.ID, &r.Location.X, &r.Location.Y, &r.Location.Z, &r.ZoneID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find room at (%d, %d, %d): %w", x, y, z, err)
	}
	return &r, nil
}

func (s *MariaWorldStore) FindRoomsInRect(ctx context.Context, rect world.Rect, z int) ([]world.Room, error) {
	query := `SELECT id, x, y, z, zone_id FROM rooms
		WHERE z = ? AND x BETWEEN ? AND ? AND y BETWEEN ? AND ?`

	rows, err := s.db.QueryContext(ctx, query, z, rect.MinX, rect.MaxX, rect.MinY, rect.MaxY)
	if err != nil {
		return nil, fmt.Errorf("find rooms in %s: %w", rect, err)
	}
	defer rows.Close()

	var out []world.Room
	for rows.Next() {
		var r world.Room
		if err := rows.Scan(&r.ID, &r.Location.X, &r.Location.Y, &r.Location.Z, &r.ZoneID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveRooms inserts all rooms in one transaction.
func (s *MariaWorldStore) SaveRooms(ctx context.Context, rooms []world.Room) ([]world.Room, error) {
	if len(rooms) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rooms (id, x, y, z, zone_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare room insert: %w", err)
	}
	defer stmt.Close()

	out := make([]world.Room, len(rooms))
	for i, r := range rooms {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Location.X, r.Location.Y, r.Location.Z, r.ZoneID); err != nil {
			return nil, fmt.Errorf("insert room %s: %w", r.Location, err)
		}
		out[i] = r
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rooms: %w", err)
	}
	return out, nil
}

func (s *MariaWorldStore) FindBiomeByName(ctx context.Context, name string) (*biome.Biome, error) {
	var b biome.Biome
	err := s.db.QueryRowContext(ctx, `SELECT id, name, color, cell_selection FROM biomes WHERE name = ?`, name).
		Scan(&b.ID, &b.Name, &b.Color, &b.CellSelection)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find biome %s: %w", name, err)
	}
	return &b, nil
}

func (s *MariaWorldStore) FindAllBiomes(ctx context.Context) ([]biome.Biome, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, cell_selection FROM biomes`)
	if err != nil {
		return nil, fmt.Errorf("list biomes: %w", err)
	}
	defer rows.Close()

	var out []biome.Biome
	for rows.Next() {
		var b biome.Biome
		if err := rows.Scan(&b.ID, &b.Name, &b.Color, &b.CellSelection); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *MariaWorldStore) FindGridEntries(ctx context.Context) ([]biome.GridEntry, error) {
	query := `SELECT g.id, g.elevation, g.moisture, b.id, b.name, b.color, b.cell_selection
		FROM whittaker_grid g JOIN biomes b ON b.name = g.biome_name
		ORDER BY g.elevation, g.moisture`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list grid entries: %w", err)
	}
	defer rows.Close()

	var out []biome.GridEntry
	for rows.Next() {
		var e biome.GridEntry
		if err := rows.Scan(&e.ID, &e.Elevation, &e.Moisture,
			&e.Biome.ID, &e.Biome.Name, &e.Biome.Color, &e.Biome.CellSelection); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *MariaWorldStore) SaveBiomes(ctx context.Context, biomes []biome.Biome) ([]biome.Biome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := make([]biome.Biome, len(biomes))
	for i, b := range biomes {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO biomes (id, name, color, cell_selection) VALUES (?, ?, ?, ?)`,
			b.ID, b.Name, b.Color, b.CellSelection)
		if err != nil {
			return nil, fmt.Errorf("insert biome %s: %w", b.Name, err)
		}
		out[i] = b
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit biomes: %w", err)
	}
	return out, nil
}

func (s *MariaWorldStore) SaveGridEntries(ctx context.Context, entries []biome.GridEntry) ([]biome.GridEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := make([]biome.GridEntry, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO whittaker_grid (id, elevation, moisture, biome_name) VALUES (?, ?, ?, ?)`,
			e.ID, e.Elevation, e.Moisture, e.Biome.Name)
		if err != nil {
			return nil, fmt.Errorf("insert grid entry (%d,%d): %w", e.Elevation, e.Moisture, err)
		}
		out[i] = e
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit grid entries: %w", err)
	}
	return out, nil
}

// Close closes the connection pool.
func (s *MariaWorldStore) Close() error {
	return s.db.Close()
}
