package funds

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const fundColumns = `id, name, description, budget, active, created_at`

func scanFund(row pgx.Row) (*Fund, error) {
	var f Fund
	if err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Budget, &f.Active, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repo) CreateFund(ctx context.Context, in NewFund) (*Fund, error) {
	f, err := scanFund(r.pool.QueryRow(ctx, `
		INSERT INTO funds (name, description, budget) VALUES ($1,$2,$3)
		RETURNING `+fundColumns,
		strings.TrimSpace(in.Name), in.Description, in.Budget))
	if err != nil {
		return nil, db.Translate(err)
	}
	return f, nil
}

func (r *Repo) GetFund(ctx context.Context, id int64) (*Fund, error) {
	f, err := scanFund(r.pool.QueryRow(ctx, `SELECT `+fundColumns+` FROM funds WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (r *Repo) ListFunds(ctx context.Context, onlyActive bool) ([]Fund, error) {
	q := `SELECT ` + fundColumns + ` FROM funds`
	if onlyActive {
		q += ` WHERE active = TRUE`
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Fund{}
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateFund(ctx context.Context, id int64, p FundPatch) (*Fund, error) {
	f, err := scanFund(r.pool.QueryRow(ctx, `
		UPDATE funds SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			budget      = COALESCE($4, budget),
			active      = COALESCE($5, active)
		WHERE id = $1
		RETURNING `+fundColumns,
		id, p.Name, p.Description, p.Budget, p.Active))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return f, nil
}

// DeleteFund удаляет фонд со статьями и операциями.
func (r *Repo) DeleteFund(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM funds WHERE id = $1`, id)
	if err != nil {
		return false, db.TranslateDelete(err)
	}
	return tag.RowsAffected() > 0, nil
}

const categoryColumns = `id, fund_id, name, planned, created_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.FundID, &c.Name, &c.Planned, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) CreateCategory(ctx context.Context, fundID int64, in CategoryInput) (*Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `
		INSERT INTO fund_categories (fund_id, name, planned) VALUES ($1,$2,$3)
		RETURNING `+categoryColumns,
		fundID, strings.TrimSpace(in.Name), in.Planned))
	if err != nil {
		return nil, db.Translate(err)
	}
	return c, nil
}

func (r *Repo) GetCategory(ctx context.Context, id int64) (*Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM fund_categories WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *Repo) ListCategories(ctx context.Context, fundID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+` FROM fund_categories WHERE fund_id = $1 ORDER BY name`, fundID)
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

func (r *Repo) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `
		UPDATE fund_categories SET name = $2, planned = $3 WHERE id = $1
		RETURNING `+categoryColumns,
		id, strings.TrimSpace(in.Name), in.Planned))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return c, nil
}

// DeleteCategory: операции статьи остаются в фонде без статьи.
func (r *Repo) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fund_categories WHERE id = $1`, id)
	if err != nil {
		return false, db.TranslateDelete(err)
	}
	return tag.RowsAffected() > 0, nil
}

const txColumns = `id, fund_id, category_id, kind, amount, description, occurred_on, created_at`

func scanTx(row pgx.Row) (*Transaction, error) {
	var t Transaction
	if err := row.Scan(&t.ID, &t.FundID, &t.CategoryID, &t.Kind, &t.Amount, &t.Description, &t.OccurredOn, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) CreateTransaction(ctx context.Context, fundID int64, in NewTransaction) (*Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM funds WHERE id = $1)`, fundID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrFundNotFound
	}
	if in.CategoryID != nil {
		var owner int64
		err := tx.QueryRow(ctx, `SELECT fund_id FROM fund_categories WHERE id = $1`, *in.CategoryID).Scan(&owner)
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("fund category %d: %w", *in.CategoryID, db.ErrBadRef)
		}
		if err != nil {
			return nil, err
		}
		if owner != fundID {
			return nil, ErrCategoryMismatch
		}
	}

	t, err := scanTx(tx.QueryRow(ctx, `
		INSERT INTO fund_transactions (fund_id, category_id, kind, amount, description, occurred_on)
		VALUES ($1,$2,$3,$4,$5,COALESCE($6, CURRENT_DATE))
		RETURNING `+txColumns,
		fundID, in.CategoryID, string(in.Kind), in.Amount, in.Description, in.OccurredOn))
	if err != nil {
		return nil, db.Translate(err)
	}
	return t, tx.Commit(ctx)
}

func (r *Repo) ListTransactions(ctx context.Context, fundID int64, f TxFilter) ([]Transaction, error) {
	where := []string{"fund_id = $1"}
	args := []any{fundID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.From != nil {
		where = append(where, "occurred_on >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "occurred_on <= "+arg(*f.To))
	}
	if f.Kind != "" {
		where = append(where, "kind = "+arg(string(f.Kind)))
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = "+arg(*f.CategoryID))
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+txColumns+` FROM fund_transactions
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY occurred_on DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fund_transactions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Summary возвращает nil, nil, если фонда нет.
func (r *Repo) Summary(ctx context.Context, fundID int64) (*Summary, error) {
	f, err := r.GetFund(ctx, fundID)
	if err != nil || f == nil {
		return nil, err
	}
	cats, err := r.ListCategories(ctx, fundID)
	if err != nil {
		return nil, err
	}
	txs, err := r.ListTransactions(ctx, fundID, TxFilter{})
	if err != nil {
		return nil, err
	}
	s := Summarize(*f, cats, txs)
	return &s, nil
}
