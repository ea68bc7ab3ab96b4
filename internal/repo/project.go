package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/twxlab/twx/internal/models"
)

// ErrProjectNotFound is returned when a project id matches nothing.
var ErrProjectNotFound = errors.New("project not found")

type ProjectRepo struct {
	DB *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{DB: db}
}

func (r *ProjectRepo) Create(ctx context.Context, name, code string) (*models.Project, error) {
	p := &models.Project{}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO projects (name, code) VALUES ($1, $2) RETURNING id, name, code, created_at`,
		name, code,
	).Scan(&p.ID, &p.Name, &p.Code, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	p := &models.Project{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, code, created_at FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Code, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepo) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, code, created_at FROM projects ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProjectNotFound
	}
	return nil
}
