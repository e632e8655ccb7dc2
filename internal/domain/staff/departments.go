package staff

import (
	"context"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) CreateDepartment(ctx context.Context, in DepartmentInput) (*Department, error) {
	var d Department
	err := r.pool.QueryRow(ctx, `
		INSERT INTO departments (name, description) VALUES ($1,$2)
		RETURNING id, name, description, created_at
	`, strings.TrimSpace(in.Name), in.Description).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt)
	if err != nil {
		return nil, db.Translate(err)
	}
	return &d, nil
}

func (r *Repo) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	var d Department
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM departments WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateDepartment(ctx context.Context, id int64, in DepartmentInput) (*Department, error) {
	var d Department
	err := r.pool.QueryRow(ctx, `
		UPDATE departments SET name = $2, description = $3 WHERE id = $1
		RETURNING id, name, description, created_at
	`, id, strings.TrimSpace(in.Name), in.Description).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return &d, nil
}

// DeleteDepartment: пока есть сотрудники отдела, даже удалённые, вернёт db.ErrReferenced.
func (r *Repo) DeleteDepartment(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return false, db.TranslateDelete(err)
	}
	return tag.RowsAffected() > 0, nil
}
