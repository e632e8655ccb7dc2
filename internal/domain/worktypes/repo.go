package worktypes

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

const columns = `
	w.id, w.name, w.unit, w.rate, w.department_id, COALESCE(d.name,''), w.description,
	w.active, w.created_at, w.updated_at, w.deleted_at`

const departmentJoin = ` LEFT JOIN departments d ON d.id = w.department_id`

func scan(row pgx.Row) (*WorkType, error) {
	var w WorkType
	if err := row.Scan(
		&w.ID, &w.Name, &w.Unit, &w.Rate, &w.DepartmentID, &w.DepartmentName, &w.Description,
		&w.Active, &w.CreatedAt, &w.UpdatedAt, &w.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repo) Create(ctx context.Context, in NewWorkType) (*WorkType, error) {
	w, err := scan(r.pool.QueryRow(ctx, `
		WITH w AS (
			INSERT INTO work_types (name, unit, rate, department_id, description)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING *
		)
		SELECT `+columns+` FROM w`+departmentJoin,
		strings.TrimSpace(in.Name), string(in.Unit), in.Rate, in.DepartmentID, in.Description))
	if err != nil {
		return nil, db.Translate(err)
	}
	return w, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*WorkType, error) {
	w, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM work_types w`+departmentJoin+` WHERE w.id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return w, err
}

// ListByIDs — неудалённые виды работ из списка id.
func (r *Repo) ListByIDs(ctx context.Context, ids []int64) ([]WorkType, error) {
	if len(ids) == 0 {
		return []WorkType{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM work_types w`+departmentJoin+`
		WHERE w.id = ANY($1) AND w.deleted_at IS NULL ORDER BY w.name`, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) List(ctx context.Context, f Filter) ([]WorkType, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !f.IncludeDeleted {
		where = append(where, "w.deleted_at IS NULL")
	}
	if f.OnlyActive {
		where = append(where, "w.active = TRUE")
	}
	if f.DepartmentID != nil {
		where = append(where, "w.department_id = "+arg(*f.DepartmentID))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "LOWER(w.name) LIKE "+arg("%"+strings.ToLower(q)+"%"))
	}
	q := `SELECT ` + columns + ` FROM work_types w` + departmentJoin
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY w.name, w.id"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]WorkType, error) {
	defer rows.Close()
	out := []WorkType{}
	for rows.Next() {
		w, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id int64, p Patch) (*WorkType, error) {
	var unit *string
	if p.Unit != nil {
		s := string(*p.Unit)
		unit = &s
	}
	w, err := scan(r.pool.QueryRow(ctx, `
		WITH w AS (
			UPDATE work_types SET
				name          = COALESCE($2, name),
				unit          = COALESCE($3, unit),
				rate          = COALESCE($4, rate),
				department_id = COALESCE($5, department_id),
				description   = COALESCE($6, description),
				active        = COALESCE($7, active),
				updated_at    = NOW()
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING *
		)
		SELECT `+columns+` FROM w`+departmentJoin,
		id, p.Name, unit, p.Rate, p.DepartmentID, p.Description, p.Active))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return w, nil
}

func (r *Repo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE work_types SET deleted_at = NOW(), active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
