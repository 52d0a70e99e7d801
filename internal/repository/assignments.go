package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

// 任职记录的版本行是 append-mostly 的：除关闭转换本身外，已关闭的行不再修改。
// 同一 slot 至多一行 is_current 由部分唯一索引 assignments_slot_current_key 兜底。

func mapAssignmentPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.ConstraintName {
	case "assignments_slot_current_key", "assignments_slot_version_key":
		return domain.ErrSlotAlreadyActive
	case "assignments_person_id_fkey":
		return domain.ErrUnknownPerson
	case "assignments_unit_id_fkey":
		return domain.ErrUnknownUnit
	case "assignments_job_title_id_fkey":
		return domain.ErrUnknownJobTitle
	default:
		return err
	}
}

const assignmentColumns = `
	id, person_id, unit_id, job_title_id, version, percentage,
	is_ad_interim, is_unit_boss, notes, valid_from, valid_to, is_current, created_at
`

func scanAssignment(row interface{ Scan(dest ...any) error }) (*domain.Assignment, error) {
	a := &domain.Assignment{}
	var validTo sql.NullTime

	dst := []any{
		&a.ID, &a.PersonID, &a.UnitID, &a.JobTitleID, &a.Version, &a.Percentage,
		&a.IsAdInterim, &a.IsUnitBoss, &a.Notes, &a.ValidFrom, &validTo, &a.IsCurrent, &a.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if validTo.Valid {
		t := validTo.Time
		a.ValidTo = &t
	}
	return a, nil
}

func (r *Repository) GetAssignmentByID(ctx context.Context, id int64) (*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	a, err := scanAssignment(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, err
	}

	return a, nil
}

func (r *Repository) GetCurrentAssignment(ctx context.Context, slot domain.Slot) (*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE person_id = $1 AND unit_id = $2 AND job_title_id = $3 AND is_current
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	a, err := scanAssignment(r.dbpool.QueryRowContext(ctx, query, slot.PersonID, slot.UnitID, slot.JobTitleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, err
	}

	return a, nil
}

func (r *Repository) queryAssignments(ctx context.Context, query string, args ...any) ([]*domain.Assignment, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *Repository) GetSlotHistory(ctx context.Context, slot domain.Slot) ([]*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE person_id = $1 AND unit_id = $2 AND job_title_id = $3
		ORDER BY valid_from, version
	`
	return r.queryAssignments(ctx, query, slot.PersonID, slot.UnitID, slot.JobTitleID)
}

func (r *Repository) GetCurrentAssignmentsByPerson(ctx context.Context, personID int64) ([]*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE person_id = $1 AND is_current
		ORDER BY unit_id, job_title_id
	`
	return r.queryAssignments(ctx, query, personID)
}

func (r *Repository) ListCurrentAssignments(ctx context.Context) ([]*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE is_current
		ORDER BY person_id, unit_id, job_title_id
	`
	return r.queryAssignments(ctx, query)
}

// InsertAssignment 新开一个生效行，版本号在库内延续该 slot 已用过的最大版本。
// 并发的 create 由部分唯一索引拦截，返回 ErrSlotAlreadyActive。
func (r *Repository) InsertAssignment(ctx context.Context, a *domain.Assignment) error {
	query := `
		INSERT INTO assignments (
			person_id, unit_id, job_title_id, version, percentage,
			is_ad_interim, is_unit_boss, notes, valid_from, valid_to, is_current
		)
		SELECT $1, $2, $3, COALESCE(MAX(version), 0) + 1, $4, $5, $6, $7, $8, NULL, TRUE
		FROM assignments
		WHERE person_id = $1 AND unit_id = $2 AND job_title_id = $3
		RETURNING id, version, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		a.PersonID, a.UnitID, a.JobTitleID, a.Percentage,
		a.IsAdInterim, a.IsUnitBoss, a.Notes, a.ValidFrom,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&a.ID, &a.Version, &a.CreatedAt); err != nil {
		return mapAssignmentPgError(err)
	}

	a.ValidTo = nil
	a.IsCurrent = true
	return nil
}

// ReplaceCurrentAssignment 在一个事务内关闭旧行并插入新版本行。
// 关闭带 is_current 守卫，命中 0 行说明别的操作抢先关闭了它，整个事务回滚。
func (r *Repository) ReplaceCurrentAssignment(ctx context.Context, currentID int64, validTo time.Time, next *domain.Assignment) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	closeQuery := `
		UPDATE assignments
		SET valid_to = $1, is_current = FALSE
		WHERE id = $2 AND is_current
	`
	res, err := tx.ExecContext(ctx, closeQuery, validTo, currentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrStaleVersion
	}

	insertQuery := `
		INSERT INTO assignments (
			person_id, unit_id, job_title_id, version, percentage,
			is_ad_interim, is_unit_boss, notes, valid_from, valid_to, is_current
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, TRUE)
		RETURNING id, created_at
	`
	params := []any{
		next.PersonID, next.UnitID, next.JobTitleID, next.Version, next.Percentage,
		next.IsAdInterim, next.IsUnitBoss, next.Notes, next.ValidFrom,
	}
	if err := tx.QueryRowContext(ctx, insertQuery, params...).Scan(&next.ID, &next.CreatedAt); err != nil {
		return mapAssignmentPgError(err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	next.ValidTo = nil
	next.IsCurrent = true
	return nil
}

// CloseAssignment 终止生效行，不插入替代行
func (r *Repository) CloseAssignment(ctx context.Context, id int64, validTo time.Time) error {
	query := `
		UPDATE assignments
		SET valid_to = $1, is_current = FALSE
		WHERE id = $2 AND is_current
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var closedID int64
	err := r.dbpool.QueryRowContext(ctx, query, validTo, id).Scan(&closedID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	// 命中 0 行：区分“行不存在”和“已被关闭”
	var exists bool
	if err := r.dbpool.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM assignments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrAssignmentNotFound
	}
	return domain.ErrAlreadyTerminated
}

// UpdateAssignmentInPlace 直接覆盖生效行的属性，不产生新版本。
// 仅供导入的 update 冲突策略使用，绕过历史化。
func (r *Repository) UpdateAssignmentInPlace(ctx context.Context, a *domain.Assignment) error {
	query := `
		UPDATE assignments
		SET percentage = $1, is_ad_interim = $2, is_unit_boss = $3, notes = $4
		WHERE id = $5 AND is_current
		RETURNING version, valid_from, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{a.Percentage, a.IsAdInterim, a.IsUnitBoss, a.Notes, a.ID}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&a.Version, &a.ValidFrom, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrStaleVersion
		}
		return err
	}

	a.IsCurrent = true
	return nil
}

// PurgeSlot 整体删除一个已完全历史化的 slot，不可逆。
// 仍存在生效行时拒绝执行。
func (r *Repository) PurgeSlot(ctx context.Context, slot domain.Slot) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var active bool
	checkQuery := `
		SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE person_id = $1 AND unit_id = $2 AND job_title_id = $3 AND is_current
		)
	`
	if err := tx.QueryRowContext(ctx, checkQuery, slot.PersonID, slot.UnitID, slot.JobTitleID).Scan(&active); err != nil {
		return 0, err
	}
	if active {
		return 0, domain.ErrSlotStillActive
	}

	deleteQuery := `
		DELETE FROM assignments
		WHERE person_id = $1 AND unit_id = $2 AND job_title_id = $3
	`
	res, err := tx.ExecContext(ctx, deleteQuery, slot.PersonID, slot.UnitID, slot.JobTitleID)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return deleted, nil
}
