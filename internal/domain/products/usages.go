package products

import (
	"context"
	"fmt"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

func (r *Repo) ListMaterials(ctx context.Context, productID int64) ([]MaterialUsage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.product_id, u.material_id, m.name, m.unit, m.price_per_unit, u.quantity, u.waste_percent, u.note
		FROM product_material_usages u
		JOIN material_items m ON m.id = u.material_id
		WHERE u.product_id = $1
		ORDER BY m.name
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MaterialUsage{}
	for rows.Next() {
		var u MaterialUsage
		if err := rows.Scan(&u.ProductID, &u.MaterialID, &u.MaterialName, &u.Unit, &u.PricePerUnit,
			&u.Quantity, &u.WastePercent, &u.Note); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) ListWorkTypes(ctx context.Context, productID int64) ([]WorkTypeUsage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.product_id, u.work_type_id, w.name, w.unit, w.rate, u.quantity
		FROM product_work_type_usages u
		JOIN work_types w ON w.id = u.work_type_id
		WHERE u.product_id = $1
		ORDER BY w.name
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WorkTypeUsage{}
	for rows.Next() {
		var u WorkTypeUsage
		if err := rows.Scan(&u.ProductID, &u.WorkTypeID, &u.WorkTypeName, &u.Unit, &u.Rate, &u.Quantity); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) ListComponents(ctx context.Context, assemblyID int64) ([]Component, error) {
	return listComponents(ctx, r.pool, assemblyID)
}

func listComponents(ctx context.Context, q querier, assemblyID int64) ([]Component, error) {
	rows, err := q.Query(ctx, `
		SELECT c.assembly_id, c.component_id, p.sku, p.name, c.quantity
		FROM product_components c
		JOIN products p ON p.id = c.component_id
		WHERE c.assembly_id = $1
		ORDER BY p.name
	`, assemblyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Component{}
	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.AssemblyID, &c.ComponentID, &c.ComponentSKU, &c.ComponentName, &c.Quantity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// lockLive блокирует неудалённое изделие на время замены его состава.
func lockLive(ctx context.Context, tx pgx.Tx, id int64) (*Product, error) {
	p, err := scanProduct(tx.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// SetMaterials целиком заменяет список материалов изделия.
func (r *Repo) SetMaterials(ctx context.Context, productID int64, items []MaterialUsage) ([]MaterialUsage, error) {
	seen := map[int64]bool{}
	for _, it := range items {
		if seen[it.MaterialID] {
			return nil, fmt.Errorf("%w: material %d", ErrDuplicateLine, it.MaterialID)
		}
		seen[it.MaterialID] = true
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockLive(ctx, tx, productID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_material_usages WHERE product_id = $1`, productID); err != nil {
		return nil, err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_material_usages (product_id, material_id, quantity, waste_percent, note)
			VALUES ($1,$2,$3,$4,$5)
		`, productID, it.MaterialID, it.Quantity, it.WastePercent, it.Note); err != nil {
			return nil, db.Translate(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.ListMaterials(ctx, productID)
}

func (r *Repo) SetWorkTypes(ctx context.Context, productID int64, items []WorkTypeUsage) ([]WorkTypeUsage, error) {
	seen := map[int64]bool{}
	for _, it := range items {
		if seen[it.WorkTypeID] {
			return nil, fmt.Errorf("%w: work type %d", ErrDuplicateLine, it.WorkTypeID)
		}
		seen[it.WorkTypeID] = true
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockLive(ctx, tx, productID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_work_type_usages WHERE product_id = $1`, productID); err != nil {
		return nil, err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_work_type_usages (product_id, work_type_id, quantity)
			VALUES ($1,$2,$3)
		`, productID, it.WorkTypeID, it.Quantity); err != nil {
			return nil, db.Translate(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.ListWorkTypes(ctx, productID)
}

// SetComponents заменяет состав сборки. Изделие не может входить само в себя
// ни напрямую, ни через вложенные сборки.
func (r *Repo) SetComponents(ctx context.Context, assemblyID int64, items []Component) ([]Component, error) {
	ids := make([]int64, 0, len(items))
	seen := map[int64]bool{}
	for _, it := range items {
		if it.ComponentID == assemblyID {
			return nil, fmt.Errorf("%w: %d", ErrCycle, assemblyID)
		}
		if seen[it.ComponentID] {
			return nil, fmt.Errorf("%w: component %d", ErrDuplicateLine, it.ComponentID)
		}
		seen[it.ComponentID] = true
		ids = append(ids, it.ComponentID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// блокировка сборки сериализует конкурентные изменения состава
	p, err := lockLive(ctx, tx, assemblyID)
	if err != nil {
		return nil, err
	}
	if p.Type != TypeAssembly && len(items) > 0 {
		return nil, ErrNotAssembly
	}

	children := func(ctx context.Context, id int64) ([]int64, error) {
		cs, err := listComponents(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		out := make([]int64, len(cs))
		for i, c := range cs {
			out[i] = c.ComponentID
		}
		return out, nil
	}
	cyclic, err := Reaches(ctx, children, ids, assemblyID)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, fmt.Errorf("%w: %d", ErrCycle, assemblyID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_components WHERE assembly_id = $1`, assemblyID); err != nil {
		return nil, err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_components (assembly_id, component_id, quantity)
			VALUES ($1,$2,$3)
		`, assemblyID, it.ComponentID, it.Quantity); err != nil {
			return nil, db.Translate(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.ListComponents(ctx, assemblyID)
}
