package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUnknownAction = errors.New("materials: unknown bulk action")
	ErrBulkArgs      = errors.New("materials: missing bulk action argument")
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// itemColumns читаются из алиаса m (material_items или CTE) с категорией c.
const itemColumns = `
	m.id, m.sku, m.name, m.category_id, COALESCE(c.name,''), m.unit, m.price_per_unit,
	m.quantity, m.min_quantity, m.supplier, m.note, m.active, m.created_at, m.updated_at, m.deleted_at`

const categoryJoin = ` LEFT JOIN material_categories c ON c.id = m.category_id`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(
		&it.ID, &it.SKU, &it.Name, &it.CategoryID, &it.CategoryName, &it.Unit, &it.PricePerUnit,
		&it.Quantity, &it.MinQuantity, &it.Supplier, &it.Note, &it.Active,
		&it.CreatedAt, &it.UpdatedAt, &it.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, in NewItem) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		WITH m AS (
			INSERT INTO material_items (sku, name, category_id, unit, price_per_unit, quantity, min_quantity, supplier, note)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING *
		)
		SELECT `+itemColumns+` FROM m`+categoryJoin,
		strings.TrimSpace(in.SKU), strings.TrimSpace(in.Name), in.CategoryID, string(in.Unit),
		in.PricePerUnit, in.Quantity, in.MinQuantity, in.Supplier, in.Note)
	it, err := scanItem(row)
	if err != nil {
		return nil, db.Translate(err)
	}
	return it, nil
}

// GetByID возвращает материал, в том числе удалённый (DeletedAt != nil).
func (r *Repo) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM material_items m`+categoryJoin+` WHERE m.id = $1`, id)
	it, err := scanItem(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return it, err
}

func (r *Repo) GetBySKU(ctx context.Context, sku string) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM material_items m`+categoryJoin+`
		WHERE m.sku = $1 AND m.deleted_at IS NULL`, strings.TrimSpace(sku))
	it, err := scanItem(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return it, err
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Item, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeDeleted {
		where = append(where, "m.deleted_at IS NULL")
	}
	if f.OnlyActive {
		where = append(where, "m.active = TRUE")
	}
	if f.CategoryID != nil {
		where = append(where, "m.category_id = "+arg(*f.CategoryID))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + strings.ToLower(q) + "%")
		where = append(where, "(LOWER(m.name) LIKE "+p+" OR LOWER(m.sku) LIKE "+p+" OR LOWER(m.supplier) LIKE "+p+")")
	}
	if f.LowStock {
		where = append(where, "(m.quantity <= 0 OR m.quantity < m.min_quantity)")
	}

	q := `SELECT ` + itemColumns + ` FROM material_items m` + categoryJoin
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY m.name, m.id"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// ListLowStock — активные неудалённые материалы с остатком ниже порога.
func (r *Repo) ListLowStock(ctx context.Context) ([]Item, error) {
	return r.List(ctx, Filter{OnlyActive: true, LowStock: true})
}

// ListByIDs возвращает неудалённые материалы из списка id.
func (r *Repo) ListByIDs(ctx context.Context, ids []int64) ([]Item, error) {
	if len(ids) == 0 {
		return []Item{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM material_items m`+categoryJoin+`
		WHERE m.id = ANY($1) AND m.deleted_at IS NULL
		ORDER BY m.name`, ids)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// Update меняет только переданные поля неудалённого материала. Нет строки — nil, nil.
func (r *Repo) Update(ctx context.Context, id int64, p Patch) (*Item, error) {
	var unit *string
	if p.Unit != nil {
		s := string(*p.Unit)
		unit = &s
	}
	row := r.pool.QueryRow(ctx, `
		WITH m AS (
			UPDATE material_items SET
				sku            = COALESCE($2, sku),
				name           = COALESCE($3, name),
				category_id    = COALESCE($4, category_id),
				unit           = COALESCE($5, unit),
				price_per_unit = COALESCE($6, price_per_unit),
				min_quantity   = COALESCE($7, min_quantity),
				supplier       = COALESCE($8, supplier),
				note           = COALESCE($9, note),
				active         = COALESCE($10, active),
				updated_at     = NOW()
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING *
		)
		SELECT `+itemColumns+` FROM m`+categoryJoin,
		id, trimPtr(p.SKU), trimPtr(p.Name), p.CategoryID, unit, p.PricePerUnit,
		p.MinQuantity, p.Supplier, p.Note, p.Active)
	it, err := scanItem(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return it, nil
}

// SoftDelete скрывает материал из списков, сохраняя строку.
func (r *Repo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE material_items SET deleted_at = NOW(), active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Restore возвращает удалённый материал; если SKU уже занят — db.ErrConflict.
func (r *Repo) Restore(ctx context.Context, id int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		WITH m AS (
			UPDATE material_items SET deleted_at = NULL, active = TRUE, updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NOT NULL
			RETURNING *
		)
		SELECT `+itemColumns+` FROM m`+categoryJoin, id)
	it, err := scanItem(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return it, nil
}

func (r *Repo) BulkAction(ctx context.Context, req BulkRequest) (BulkResult, error) {
	res := BulkResult{Action: req.Action, Requested: len(req.IDs)}
	if len(req.IDs) == 0 {
		return res, nil
	}

	var (
		q    string
		args = []any{req.IDs}
	)
	switch req.Action {
	case BulkActivate:
		q = `UPDATE material_items SET active = TRUE, updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL`
	case BulkDeactivate:
		q = `UPDATE material_items SET active = FALSE, updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL`
	case BulkDelete:
		q = `UPDATE material_items SET deleted_at = NOW(), active = FALSE, updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL`
	case BulkRestore:
		q = `UPDATE material_items SET deleted_at = NULL, active = TRUE, updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NOT NULL`
	case BulkSetCategory:
		if req.CategoryID == nil {
			return res, ErrBulkArgs
		}
		q = `UPDATE material_items SET category_id = $2, updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL`
		args = append(args, *req.CategoryID)
	case BulkAdjustPrice:
		if req.Percent == nil {
			return res, ErrBulkArgs
		}
		q = `UPDATE material_items
			SET price_per_unit = ROUND((price_per_unit * (1 + $2::float8 / 100))::numeric, 2)::float8, updated_at = NOW()
			WHERE id = ANY($1) AND deleted_at IS NULL`
		args = append(args, *req.Percent)
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return res, db.Translate(err)
	}
	res.Affected = tag.RowsAffected()
	return res, nil
}

// UpsertBySKU создаёт материал или обновляет карточку существующего по SKU.
// Количество существующего материала не трогается: остатки меняются движениями.
func (r *Repo) UpsertBySKU(ctx context.Context, in NewItem) (*Item, bool, error) {
	row := r.pool.QueryRow(ctx, `
		WITH m AS (
			INSERT INTO material_items (sku, name, category_id, unit, price_per_unit, quantity, min_quantity, supplier, note)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (sku) WHERE deleted_at IS NULL
			DO UPDATE SET
				name           = EXCLUDED.name,
				category_id    = COALESCE(EXCLUDED.category_id, material_items.category_id),
				unit           = EXCLUDED.unit,
				price_per_unit = EXCLUDED.price_per_unit,
				min_quantity   = EXCLUDED.min_quantity,
				supplier       = EXCLUDED.supplier,
				updated_at     = NOW()
			RETURNING *, (xmax = 0) AS inserted
		)
		SELECT `+itemColumns+`, m.inserted FROM m`+categoryJoin,
		strings.TrimSpace(in.SKU), strings.TrimSpace(in.Name), in.CategoryID, string(in.Unit),
		in.PricePerUnit, in.Quantity, in.MinQuantity, in.Supplier, in.Note)

	var (
		it       Item
		inserted bool
	)
	if err := row.Scan(
		&it.ID, &it.SKU, &it.Name, &it.CategoryID, &it.CategoryName, &it.Unit, &it.PricePerUnit,
		&it.Quantity, &it.MinQuantity, &it.Supplier, &it.Note, &it.Active,
		&it.CreatedAt, &it.UpdatedAt, &it.DeletedAt, &inserted,
	); err != nil {
		return nil, false, db.Translate(err)
	}
	return &it, inserted, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
