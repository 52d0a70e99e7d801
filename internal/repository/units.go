package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

func (r *Repository) CreateUnit(ctx context.Context, unit *domain.Unit) error {
	query := `
		INSERT INTO units (name, parent_unit_id)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{unit.Name, unit.ParentUnitID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&unit.ID, &unit.CreatedAt, &unit.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetUnitByID(ctx context.Context, id int64) (*domain.Unit, error) {
	query := `
		SELECT name, parent_unit_id, created_at, version
		FROM units WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	unit := &domain.Unit{
		ID: id,
	}

	var parentID sql.NullInt64
	dst := []any{&unit.Name, &parentID, &unit.CreatedAt, &unit.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if parentID.Valid {
		unit.ParentUnitID = &parentID.Int64
	}
	return unit, nil
}

func (r *Repository) GetAllUnits(ctx context.Context) ([]*domain.Unit, error) {
	query := `
		SELECT id, name, parent_unit_id, created_at, version FROM units
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []*domain.Unit{}
	for rows.Next() {
		unit := &domain.Unit{}
		var parentID sql.NullInt64
		dst := []any{&unit.ID, &unit.Name, &parentID, &unit.CreatedAt, &unit.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if parentID.Valid {
			v := parentID.Int64
			unit.ParentUnitID = &v
		}
		units = append(units, unit)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return units, nil
}

func (r *Repository) UpdateUnit(ctx context.Context, unit *domain.Unit) error {
	query := `
		UPDATE units
		SET
			name = $1,
			parent_unit_id = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{unit.Name, unit.ParentUnitID, unit.ID, unit.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&unit.Version); err != nil {
		return err
	}

	return nil
}

// DeleteUnit 在存在生效中的任职记录时拒绝删除
func (r *Repository) DeleteUnit(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var referenced bool
	checkQuery := `
		SELECT EXISTS (SELECT 1 FROM assignments WHERE unit_id = $1 AND is_current)
	`
	if err := r.dbpool.QueryRowContext(ctx, checkQuery, id).Scan(&referenced); err != nil {
		return err
	}
	if referenced {
		return domain.ErrEntityReferenced
	}

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM units WHERE id = $1`, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UnitExists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	exists := false
	query := `
		SELECT EXISTS (SELECT 1 FROM units WHERE id = $1)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
