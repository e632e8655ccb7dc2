package products

import (
	"context"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

func (r *Repo) CreateGroup(ctx context.Context, in GroupInput) (*Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx, `
		INSERT INTO product_groups (name, description) VALUES ($1,$2)
		RETURNING id, name, description, created_at
	`, strings.TrimSpace(in.Name), in.Description).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt)
	if err != nil {
		return nil, db.Translate(err)
	}
	return &g, nil
}

func (r *Repo) GetGroup(ctx context.Context, id int64) (*Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM product_groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repo) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM product_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateGroup(ctx context.Context, id int64, in GroupInput) (*Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx, `
		UPDATE product_groups SET name = $2, description = $3 WHERE id = $1
		RETURNING id, name, description, created_at
	`, id, strings.TrimSpace(in.Name), in.Description).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return &g, nil
}

// DeleteGroup удаляет группу вместе с подгруппами; у изделий ссылки обнуляются.
func (r *Repo) DeleteGroup(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_groups WHERE id = $1`, id)
	if err != nil {
		return false, db.TranslateDelete(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) CreateSubgroup(ctx context.Context, groupID int64, in SubgroupInput) (*Subgroup, error) {
	var s Subgroup
	err := r.pool.QueryRow(ctx, `
		INSERT INTO product_subgroups (group_id, name) VALUES ($1,$2)
		RETURNING id, group_id, name, created_at
	`, groupID, strings.TrimSpace(in.Name)).Scan(&s.ID, &s.GroupID, &s.Name, &s.CreatedAt)
	if err != nil {
		return nil, db.Translate(err)
	}
	return &s, nil
}

func (r *Repo) ListSubgroups(ctx context.Context, groupID int64) ([]Subgroup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, name, created_at FROM product_subgroups
		WHERE group_id = $1 ORDER BY name
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Subgroup{}
	for rows.Next() {
		var s Subgroup
		if err := rows.Scan(&s.ID, &s.GroupID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteSubgroup(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_subgroups WHERE id = $1`, id)
	if err != nil {
		return false, db.TranslateDelete(err)
	}
	return tag.RowsAffected() > 0, nil
}
