package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/mmo-worldgen/internal/vec"
)

// MariaPositionRepo implements PositionRepo on the entity_positions table.
type MariaPositionRepo struct {
	db *sql.DB
}

// NewMariaPositionRepo connects and creates the table when missing.
func NewMariaPositionRepo(dsn string) (*MariaPositionRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping MariaDB: %w", err)
	}

	repo := &MariaPositionRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *MariaPositionRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS entity_positions (
			entity_id  VARCHAR(64)  PRIMARY KEY,
			name       VARCHAR(128) NOT NULL DEFAULT '',
			x          INT          NOT NULL,
			y          INT          NOT NULL,
			z          INT          NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP,
			INDEX idx_location (z, x, y)
		) ENGINE=InnoDB
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create table entity_positions: %w", err)
	}
	return nil
}

func (r *MariaPositionRepo) Save(ctx context.Context, p EntityPosition) error {
	if p.EntityID == "" {
		return fmt.Errorf("invalid entity id %q", p.EntityID)
	}

	query := `
		INSERT INTO entity_positions (entity_id, name, x, y, z)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			x = VALUES(x),
			y = VALUES(y),
			z = VALUES(z),
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query, p.EntityID, p.Name, p.Location.X, p.Location.Y, p.Location.Z)
	if err != nil {
		return fmt.Errorf("save position of %s: %w", p.EntityID, err)
	}
	return nil
}

func (r *MariaPositionRepo) Load(ctx context.Context, entityID string) (EntityPosition, bool, error) {
	query := `SELECT entity_id, name, x, y, z, updated_at FROM entity_positions WHERE entity_id = ?`

	p, err := scanPosition(r.db.QueryRowContext(ctx, query, entityID))
	if err == sql.ErrNoRows {
		return EntityPosition{}, false, nil
	}
	if err != nil {
		return EntityPosition{}, false, fmt.Errorf("load position of %s: %w", entityID, err)
	}
	return p, true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner) (EntityPosition, error) {
	var (
		p       EntityPosition
		updated time.Time
	)
	if err := row.Scan(&p.EntityID, &p.Name, &p.Location.X, &p.Location.Y, &p.Location.Z, &updated); err != nil {
		return EntityPosition{}, err
	}
	p.UpdatedAt = updated.UTC()
	return p, nil
}

func (r *MariaPositionRepo) Delete(ctx context.Context, entityID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entity_positions WHERE entity_id = ?`, entityID)
	if err != nil {
		return fmt.Errorf("delete position of %s: %w", entityID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("entity %s: %w", entityID, ErrPositionNotFound)
	}
	return nil
}

func (r *MariaPositionRepo) FindAt(ctx context.Context, loc vec.Vec3) ([]EntityPosition, error) {
	query := `
		SELECT entity_id, name, x, y, z, updated_at FROM entity_positions
		WHERE z = ? AND x = ? AND y = ?
		ORDER BY entity_id
	`

	rows, err := r.db.QueryContext(ctx, query, loc.Z, loc.X, loc.Y)
	if err != nil {
		return nil, fmt.Errorf("find entities at %s: %w", loc, err)
	}
	defer rows.Close()

	var out []EntityPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *MariaPositionRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
