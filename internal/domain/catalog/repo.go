package catalog

import (
	"context"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const categoryColumns = `id, name, description, active, created_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO material_categories (name, description) VALUES ($1,$2)
		RETURNING `+categoryColumns, strings.TrimSpace(name), description)
	c, err := scanCategory(row)
	if err != nil {
		return nil, db.Translate(err)
	}
	return c, nil
}

func (r *Repo) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM material_categories WHERE id=$1`, id)
	c, err := scanCategory(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *Repo) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM material_categories WHERE name=$1`, strings.TrimSpace(name))
	c, err := scanCategory(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *Repo) ListCategories(ctx context.Context, onlyActive bool) ([]Category, error) {
	q := `SELECT ` + categoryColumns + ` FROM material_categories`
	if onlyActive {
		q += ` WHERE active = TRUE`
	}
	q += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateCategory меняет только переданные поля. Нет строки — nil, nil.
func (r *Repo) UpdateCategory(ctx context.Context, id int64, p CategoryPatch) (*Category, error) {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		p.Name = &trimmed
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE material_categories SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			active      = COALESCE($4, active)
		WHERE id=$1
		RETURNING `+categoryColumns, id, p.Name, p.Description, p.Active)
	c, err := scanCategory(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return c, nil
}

func (r *Repo) SetCategoryActive(ctx context.Context, id int64, active bool) (*Category, error) {
	return r.UpdateCategory(ctx, id, CategoryPatch{Active: &active})
}

// DeleteCategory удаляет категорию; если на неё ссылаются материалы — db.ErrReferenced.
func (r *Repo) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM material_categories WHERE id=$1`, id)
	if err != nil {
		return false, db.TranslateDelete(err)
	}
	return tag.RowsAffected() > 0, nil
}
