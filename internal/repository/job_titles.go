package repository

import (
	"context"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

func (r *Repository) CreateJobTitle(ctx context.Context, jt *domain.JobTitle) error {
	query := `
		INSERT INTO job_titles (name)
		VALUES ($1)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, jt.Name).Scan(&jt.ID, &jt.CreatedAt, &jt.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetJobTitleByID(ctx context.Context, id int64) (*domain.JobTitle, error) {
	query := `
		SELECT name, created_at, version
		FROM job_titles WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	jt := &domain.JobTitle{
		ID: id,
	}

	dst := []any{&jt.Name, &jt.CreatedAt, &jt.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return jt, nil
}

func (r *Repository) GetAllJobTitles(ctx context.Context) ([]*domain.JobTitle, error) {
	query := `
		SELECT id, name, created_at, version FROM job_titles
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobTitles := []*domain.JobTitle{}
	for rows.Next() {
		jt := &domain.JobTitle{}
		dst := []any{&jt.ID, &jt.Name, &jt.CreatedAt, &jt.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		jobTitles = append(jobTitles, jt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobTitles, nil
}

func (r *Repository) UpdateJobTitle(ctx context.Context, jt *domain.JobTitle) error {
	query := `
		UPDATE job_titles
		SET
			name = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{jt.Name, jt.ID, jt.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&jt.Version); err != nil {
		return err
	}

	return nil
}

// DeleteJobTitle 在存在生效中的任职记录时拒绝删除
func (r *Repository) DeleteJobTitle(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var referenced bool
	checkQuery := `
		SELECT EXISTS (SELECT 1 FROM assignments WHERE job_title_id = $1 AND is_current)
	`
	if err := r.dbpool.QueryRowContext(ctx, checkQuery, id).Scan(&referenced); err != nil {
		return err
	}
	if referenced {
		return domain.ErrEntityReferenced
	}

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM job_titles WHERE id = $1`, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) JobTitleExists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	exists := false
	query := `
		SELECT EXISTS (SELECT 1 FROM job_titles WHERE id = $1)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
