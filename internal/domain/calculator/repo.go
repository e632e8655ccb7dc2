package calculator

import (
	"context"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) CreateTemplate(ctx context.Context, in TemplateInput) (*Template, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO calc_templates (name, product_type, description) VALUES ($1,$2,$3)
		RETURNING id
	`, strings.TrimSpace(in.Name), in.ProductType, in.Description).Scan(&id); err != nil {
		return nil, db.Translate(err)
	}
	if err := insertTemplateRows(ctx, tx, id, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetTemplate(ctx, id)
}

// UpdateTemplate заменяет шапку, параметры и формулы шаблона.
func (r *Repo) UpdateTemplate(ctx context.Context, id int64, in TemplateInput) (*Template, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE calc_templates SET name = $2, product_type = $3, description = $4, updated_at = NOW()
		WHERE id = $1
	`, id, strings.TrimSpace(in.Name), in.ProductType, in.Description)
	if err != nil {
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM calc_parameters WHERE template_id = $1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM calc_formulas WHERE template_id = $1`, id); err != nil {
		return nil, err
	}
	if err := insertTemplateRows(ctx, tx, id, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetTemplate(ctx, id)
}

func insertTemplateRows(ctx context.Context, tx pgx.Tx, id int64, in TemplateInput) error {
	batch := &pgx.Batch{}
	for i, p := range in.Parameters {
		pos := p.Position
		if pos == 0 {
			pos = i + 1
		}
		batch.Queue(`
			INSERT INTO calc_parameters (template_id, name, label, kind, default_value, unit, min_value, max_value, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, id, p.Name, p.Label, string(p.Kind), p.Default, p.Unit, p.Min, p.Max, pos)
	}
	for i, f := range in.Formulas {
		pos := f.Position
		if pos == 0 {
			pos = i + 1
		}
		batch.Queue(`
			INSERT INTO calc_formulas (template_id, name, label, expression, unit, position)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, id, f.Name, f.Label, strings.TrimSpace(f.Expression), f.Unit, pos)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return db.Translate(err)
	}
	return nil
}

func (r *Repo) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, product_type, description, created_at, updated_at
		FROM calc_templates WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.ProductType, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []Template{t}
	if err := r.fillTemplates(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *Repo) ListTemplates(ctx context.Context, productType string) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, product_type, description, created_at, updated_at
		FROM calc_templates
		WHERE $1 = '' OR product_type = $1
		ORDER BY name
	`, productType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Template{}
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.ProductType, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.fillTemplates(ctx, out)
}

// fillTemplates подгружает параметры и формулы двумя запросами на весь список.
func (r *Repo) fillTemplates(ctx context.Context, ts []Template) error {
	if len(ts) == 0 {
		return nil
	}
	pos := make(map[int64]int, len(ts))
	ids := make([]int64, len(ts))
	for i := range ts {
		ids[i] = ts[i].ID
		pos[ts[i].ID] = i
		ts[i].Parameters = []Parameter{}
		ts[i].Formulas = []Formula{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT template_id, name, label, kind, default_value, unit, min_value, max_value, position
		FROM calc_parameters WHERE template_id = ANY($1)
		ORDER BY template_id, position, id
	`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			tid int64
			p   Parameter
		)
		if err := rows.Scan(&tid, &p.Name, &p.Label, &p.Kind, &p.Default, &p.Unit, &p.Min, &p.Max, &p.Position); err != nil {
			rows.Close()
			return err
		}
		i := pos[tid]
		ts[i].Parameters = append(ts[i].Parameters, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT template_id, name, label, expression, unit, position
		FROM calc_formulas WHERE template_id = ANY($1)
		ORDER BY template_id, position, id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tid int64
			f   Formula
		)
		if err := rows.Scan(&tid, &f.Name, &f.Label, &f.Expression, &f.Unit, &f.Position); err != nil {
			return err
		}
		i := pos[tid]
		ts[i].Formulas = append(ts[i].Formulas, f)
	}
	return rows.Err()
}

// DeleteTemplate: пока шаблон используют BOM-шаблоны, вернёт db.ErrReferenced.
func (r *Repo) DeleteTemplate(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM calc_templates WHERE id = $1`, id)
	if err != nil {
		return false, db.TranslateDelete(err)
	}
	return tag.RowsAffected() > 0, nil
}
