package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// querier — общее у pgxpool.Pool и pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const productColumns = `
	id, sku, name, type, group_id, subgroup_id, unit, price, markup_percent, stock_qty,
	description, active, created_at, updated_at, deleted_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Type, &p.GroupID, &p.SubgroupID, &p.Unit, &p.Price,
		&p.MarkupPercent, &p.StockQty, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// checkSubgroup: подгруппа должна принадлежать выбранной группе.
func checkSubgroup(ctx context.Context, q querier, groupID, subgroupID *int64) error {
	if subgroupID == nil {
		return nil
	}
	var owner int64
	err := q.QueryRow(ctx, `SELECT group_id FROM product_subgroups WHERE id = $1`, *subgroupID).Scan(&owner)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("subgroup %d: %w", *subgroupID, db.ErrBadRef)
	}
	if err != nil {
		return err
	}
	if groupID == nil || *groupID != owner {
		return ErrSubgroupMismatch
	}
	return nil
}

func (r *Repo) Create(ctx context.Context, in NewProduct) (*Product, error) {
	if err := checkSubgroup(ctx, r.pool, in.GroupID, in.SubgroupID); err != nil {
		return nil, err
	}
	unit := in.Unit
	if unit == "" {
		unit = "pcs"
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, type, group_id, subgroup_id, unit, price, markup_percent, stock_qty, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+productColumns,
		strings.TrimSpace(in.SKU), strings.TrimSpace(in.Name), string(in.Type), in.GroupID, in.SubgroupID,
		unit, in.Price, in.MarkupPercent, in.StockQty, in.Description))
	if err != nil {
		return nil, db.Translate(err)
	}
	return p, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !f.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if f.OnlyActive {
		where = append(where, "active = TRUE")
	}
	if f.Type != "" {
		where = append(where, "type = "+arg(string(f.Type)))
	}
	if f.GroupID != nil {
		where = append(where, "group_id = "+arg(*f.GroupID))
	}
	if f.SubgroupID != nil {
		where = append(where, "subgroup_id = "+arg(*f.SubgroupID))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + strings.ToLower(q) + "%")
		where = append(where, "(LOWER(name) LIKE "+p+" OR LOWER(sku) LIKE "+p+")")
	}
	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY name, id"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update применяет патч к текущей записи под блокировкой строки.
func (r *Repo) Update(ctx context.Context, id int64, pt Patch) (*Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanProduct(tx.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pt.Apply(cur)
	if err := checkSubgroup(ctx, tx, cur.GroupID, cur.SubgroupID); err != nil {
		return nil, err
	}
	if cur.Type != TypeAssembly {
		var n int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM product_components WHERE assembly_id = $1`, id).Scan(&n); err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrNotAssembly
		}
	}

	p, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products SET
			sku = $2, name = $3, type = $4, group_id = $5, subgroup_id = $6, unit = $7,
			price = $8, markup_percent = $9, stock_qty = $10, description = $11, active = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, strings.TrimSpace(cur.SKU), strings.TrimSpace(cur.Name), string(cur.Type), cur.GroupID, cur.SubgroupID,
		cur.Unit, cur.Price, cur.MarkupPercent, cur.StockQty, cur.Description, cur.Active))
	if err != nil {
		return nil, db.Translate(err)
	}
	return p, tx.Commit(ctx)
}

func (r *Repo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET deleted_at = NOW(), active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
