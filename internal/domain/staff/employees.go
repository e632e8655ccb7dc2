package staff

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `
	e.id, e.personnel_number, e.full_name, e.position, e.department_id, COALESCE(d.name,''),
	e.hourly_rate, e.phone, e.email, e.hired_at, e.active, e.created_at, e.updated_at, e.deleted_at`

const departmentJoin = ` LEFT JOIN departments d ON d.id = e.department_id`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	if err := row.Scan(
		&e.ID, &e.PersonnelNumber, &e.FullName, &e.Position, &e.DepartmentID, &e.DepartmentName,
		&e.HourlyRate, &e.Phone, &e.Email, &e.HiredAt, &e.Active, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repo) CreateEmployee(ctx context.Context, in NewEmployee) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `
		WITH e AS (
			INSERT INTO employees (personnel_number, full_name, position, department_id, hourly_rate, phone, email, hired_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING *
		)
		SELECT `+employeeColumns+` FROM e`+departmentJoin,
		strings.TrimSpace(in.PersonnelNumber), strings.TrimSpace(in.FullName), in.Position,
		in.DepartmentID, in.HourlyRate, in.Phone, strings.TrimSpace(in.Email), in.HiredAt)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, db.Translate(err)
	}
	return e, nil
}

func (r *Repo) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	e, err := scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees e`+departmentJoin+` WHERE e.id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *Repo) ListEmployees(ctx context.Context, f EmployeeFilter) ([]Employee, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !f.IncludeDeleted {
		where = append(where, "e.deleted_at IS NULL")
	}
	if f.OnlyActive {
		where = append(where, "e.active = TRUE")
	}
	if f.DepartmentID != nil {
		where = append(where, "e.department_id = "+arg(*f.DepartmentID))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + strings.ToLower(q) + "%")
		where = append(where, "(LOWER(e.full_name) LIKE "+p+" OR LOWER(e.personnel_number) LIKE "+p+")")
	}

	q := `SELECT ` + employeeColumns + ` FROM employees e` + departmentJoin
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY e.full_name, e.id"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateEmployee(ctx context.Context, id int64, p EmployeePatch) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `
		WITH e AS (
			UPDATE employees SET
				personnel_number = COALESCE($2, personnel_number),
				full_name        = COALESCE($3, full_name),
				position         = COALESCE($4, position),
				department_id    = COALESCE($5, department_id),
				hourly_rate      = COALESCE($6, hourly_rate),
				phone            = COALESCE($7, phone),
				email            = COALESCE($8, email),
				hired_at         = COALESCE($9, hired_at),
				active           = COALESCE($10, active),
				updated_at       = NOW()
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING *
		)
		SELECT `+employeeColumns+` FROM e`+departmentJoin,
		id, p.PersonnelNumber, p.FullName, p.Position, p.DepartmentID, p.HourlyRate,
		p.Phone, p.Email, p.HiredAt, p.Active)
	e, err := scanEmployee(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, db.Translate(err)
	}
	return e, nil
}

func (r *Repo) SoftDeleteEmployee(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees SET deleted_at = NOW(), active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
