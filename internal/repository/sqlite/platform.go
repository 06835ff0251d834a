package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository"
)

var _ repository.PlatformRepository = (*PlatformStore)(nil)

// PlatformStore reads the static platform catalog.
type PlatformStore struct {
	conn *sql.DB
}

const platformColumns = `id, name, code, icon, color, enabled`

// Seed inserts platforms only when the catalog is empty, inside one
// transaction so a half-seeded catalog is never visible.
func (s *PlatformStore) Seed(ctx context.Context, platforms []model.Platform) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM platforms`).Scan(&count); err != nil {
		return fmt.Errorf("sqlite: counting platforms: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, p := range platforms {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO platforms (name, code, icon, color, enabled) VALUES (?, ?, ?, ?, ?)`,
			p.Name, p.Code, p.Icon, p.Color, p.Enabled,
		)
		if err != nil {
			return fmt.Errorf("sqlite: seeding platform %q: %w", p.Code, err)
		}
	}

	return tx.Commit()
}

// List returns the catalog ordered by ID (seed order).
func (s *PlatformStore) List(ctx context.Context) ([]model.Platform, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+platformColumns+` FROM platforms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing platforms: %w", err)
	}
	defer rows.Close()

	platforms := []model.Platform{}
	for rows.Next() {
		var p model.Platform
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.Icon, &p.Color, &p.Enabled); err != nil {
			return nil, fmt.Errorf("sqlite: scanning platform: %w", err)
		}
		platforms = append(platforms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating platforms: %w", err)
	}
	return platforms, nil
}

func (s *PlatformStore) GetByID(ctx context.Context, id int64) (*model.Platform, error) {
	var p model.Platform
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+platformColumns+` FROM platforms WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Code, &p.Icon, &p.Color, &p.Enabled)
	if err != nil {
		return nil, notFound(err, apperror.NotFound("platform", id), "getting platform %d", id)
	}
	return &p, nil
}

func (s *PlatformStore) GetByCode(ctx context.Context, code string) (*model.Platform, error) {
	var p model.Platform
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+platformColumns+` FROM platforms WHERE code = ?`, code,
	).Scan(&p.ID, &p.Name, &p.Code, &p.Icon, &p.Color, &p.Enabled)
	if err != nil {
		return nil, notFound(err, apperror.NotFound("platform", code), "getting platform %q", code)
	}
	return &p, nil
}
