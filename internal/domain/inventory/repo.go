package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// delta > 0 => приход; delta < 0 => списание (может увести остаток в минус)
func (r *Repo) apply(ctx context.Context, materialID int64, delta float64, mtype MoveType, note string) (*Movement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance float64
	err = tx.QueryRow(ctx, `
		UPDATE material_items SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING quantity
	`, materialID, delta).Scan(&balance)
	if err == pgx.ErrNoRows {
		return nil, ErrMaterialNotFound
	}
	if err != nil {
		return nil, err
	}

	m, err := insertMovement(ctx, tx, materialID, mtype, delta, balance, note)
	if err != nil {
		return nil, err
	}
	return m, tx.Commit(ctx)
}

func insertMovement(ctx context.Context, tx pgx.Tx, materialID int64, mtype MoveType, qty, balance float64, note string) (*Movement, error) {
	m := Movement{MaterialID: materialID, Type: mtype, Qty: qty, Balance: balance, Note: note}
	err := tx.QueryRow(ctx, `
		INSERT INTO material_movements (material_id, type, qty, balance, note)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, materialID, string(mtype), qty, balance, note).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Receive(ctx context.Context, materialID int64, qty float64, note string) (*Movement, error) {
	if qty <= 0 {
		return nil, ErrInvalidQty
	}
	return r.apply(ctx, materialID, qty, MoveIn, note)
}

func (r *Repo) WriteOff(ctx context.Context, materialID int64, qty float64, note string) (*Movement, error) {
	if qty <= 0 {
		return nil, ErrInvalidQty
	}
	// Списание без проверок — может увести остаток в минус
	return r.apply(ctx, materialID, -qty, MoveOut, note)
}

// Adjust выставляет фактический остаток (инвентаризация). Если остаток
// уже равен actual, движение не пишется и возвращается nil, nil.
func (r *Repo) Adjust(ctx context.Context, materialID int64, actual float64, note string) (*Movement, error) {
	if actual < 0 {
		return nil, ErrNegativeActual
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current float64
	err = tx.QueryRow(ctx, `
		SELECT quantity FROM material_items
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, materialID).Scan(&current)
	if err == pgx.ErrNoRows {
		return nil, ErrMaterialNotFound
	}
	if err != nil {
		return nil, err
	}

	delta := actual - current
	if delta == 0 {
		return nil, nil
	}
	if _, err = tx.Exec(ctx, `
		UPDATE material_items SET quantity = $2, updated_at = NOW() WHERE id = $1
	`, materialID, actual); err != nil {
		return nil, err
	}
	m, err := insertMovement(ctx, tx, materialID, MoveAdjust, delta, actual, note)
	if err != nil {
		return nil, err
	}
	return m, tx.Commit(ctx)
}

// Apply выполняет запрос из API.
func (r *Repo) Apply(ctx context.Context, materialID int64, req Request) (*Movement, error) {
	switch req.Type {
	case MoveIn:
		return r.Receive(ctx, materialID, req.Qty, req.Note)
	case MoveOut:
		return r.WriteOff(ctx, materialID, req.Qty, req.Note)
	case MoveAdjust:
		return r.Adjust(ctx, materialID, req.Qty, req.Note)
	}
	return nil, fmt.Errorf("inventory: unknown movement type %q", req.Type)
}

// ListMovements — последние движения материала, новые сверху.
func (r *Repo) ListMovements(ctx context.Context, materialID int64, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, material_id, type, qty, balance, note, created_at
		FROM material_movements
		WHERE material_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, materialID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.MaterialID, &m.Type, &m.Qty, &m.Balance, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
