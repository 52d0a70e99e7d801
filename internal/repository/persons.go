package repository

import (
	"context"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

func (r *Repository) CreatePerson(ctx context.Context, person *domain.Person) error {
	query := `
		INSERT INTO persons (first_name, last_name, email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{person.FirstName, person.LastName, person.Email}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&person.ID, &person.CreatedAt, &person.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetPersonByID(ctx context.Context, id int64) (*domain.Person, error) {
	query := `
		SELECT first_name, last_name, email, created_at, version
		FROM persons WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	person := &domain.Person{
		ID: id,
	}

	dst := []any{&person.FirstName, &person.LastName, &person.Email, &person.CreatedAt, &person.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return person, nil
}

func (r *Repository) GetAllPersons(ctx context.Context) ([]*domain.Person, error) {
	query := `
		SELECT id, first_name, last_name, email, created_at, version FROM persons
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	persons := []*domain.Person{}
	for rows.Next() {
		person := &domain.Person{}
		dst := []any{&person.ID, &person.FirstName, &person.LastName, &person.Email, &person.CreatedAt, &person.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return persons, nil
}

func (r *Repository) UpdatePerson(ctx context.Context, person *domain.Person) error {
	query := `
		UPDATE persons
		SET
			first_name = $1,
			last_name = $2,
			email = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{person.FirstName, person.LastName, person.Email, person.ID, person.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&person.Version); err != nil {
		return err
	}

	return nil
}

// DeletePerson 在存在生效中的任职记录时拒绝删除
func (r *Repository) DeletePerson(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var referenced bool
	checkQuery := `
		SELECT EXISTS (SELECT 1 FROM assignments WHERE person_id = $1 AND is_current)
	`
	if err := r.dbpool.QueryRowContext(ctx, checkQuery, id).Scan(&referenced); err != nil {
		return err
	}
	if referenced {
		return domain.ErrEntityReferenced
	}

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) PersonExists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	exists := false
	query := `
		SELECT EXISTS (SELECT 1 FROM persons WHERE id = $1)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
