package calculator

import (
	"context"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

func (r *Repo) CreateBom(ctx context.Context, in BomInput) (*BomTemplate, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO bom_templates (name, template_id, product_id, description) VALUES ($1,$2,$3,$4)
		RETURNING id
	`, strings.TrimSpace(in.Name), in.TemplateID, in.ProductID, in.Description).Scan(&id); err != nil {
		return nil, db.Translate(err)
	}
	if err := insertLines(ctx, tx, id, in.Lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetBom(ctx, id)
}

func (r *Repo) UpdateBom(ctx context.Context, id int64, in BomInput) (*BomTemplate, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE bom_templates
		SET name = $2, template_id = $3, product_id = $4, description = $5, updated_at = NOW()
		WHERE id = $1
	`, id, strings.TrimSpace(in.Name), in.TemplateID, in.ProductID, in.Description)
	if err != nil {
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bom_template_lines WHERE bom_template_id = $1`, id); err != nil {
		return nil, err
	}
	if err := insertLines(ctx, tx, id, in.Lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetBom(ctx, id)
}

func insertLines(ctx context.Context, tx pgx.Tx, bomID int64, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range lines {
		pos := l.Position
		if pos == 0 {
			pos = i + 1
		}
		batch.Queue(`
			INSERT INTO bom_template_lines (bom_template_id, kind, material_id, work_type_id, quantity_formula, note, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, bomID, string(l.Kind), l.MaterialID, l.WorkTypeID, strings.TrimSpace(l.QuantityFormula), l.Note, pos)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return db.Translate(err)
	}
	return nil
}

const bomColumns = `id, name, template_id, product_id, description, created_at, updated_at`

func scanBom(row pgx.Row) (*BomTemplate, error) {
	var b BomTemplate
	if err := row.Scan(&b.ID, &b.Name, &b.TemplateID, &b.ProductID, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) GetBom(ctx context.Context, id int64) (*BomTemplate, error) {
	b, err := scanBom(r.pool.QueryRow(ctx, `SELECT `+bomColumns+` FROM bom_templates WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []BomTemplate{*b}
	if err := r.fillLines(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *Repo) ListBoms(ctx context.Context, templateID, productID *int64) ([]BomTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bomColumns+` FROM bom_templates
		WHERE ($1::bigint IS NULL OR template_id = $1)
		  AND ($2::bigint IS NULL OR product_id = $2)
		ORDER BY name
	`, templateID, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BomTemplate{}
	for rows.Next() {
		b, err := scanBom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.fillLines(ctx, out)
}

func (r *Repo) fillLines(ctx context.Context, bs []BomTemplate) error {
	if len(bs) == 0 {
		return nil
	}
	pos := make(map[int64]int, len(bs))
	ids := make([]int64, len(bs))
	for i := range bs {
		ids[i] = bs[i].ID
		pos[bs[i].ID] = i
		bs[i].Lines = []Line{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT bom_template_id, id, kind, material_id, work_type_id, quantity_formula, note, position
		FROM bom_template_lines WHERE bom_template_id = ANY($1)
		ORDER BY bom_template_id, position, id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			bid int64
			l   Line
		)
		if err := rows.Scan(&bid, &l.ID, &l.Kind, &l.MaterialID, &l.WorkTypeID, &l.QuantityFormula, &l.Note, &l.Position); err != nil {
			return err
		}
		i := pos[bid]
		bs[i].Lines = append(bs[i].Lines, l)
	}
	return rows.Err()
}

func (r *Repo) DeleteBom(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bom_templates WHERE id = $1`, id)
	if err != nil {
		return false, db.TranslateDelete(err)
	}
	return tag.RowsAffected() > 0, nil
}
