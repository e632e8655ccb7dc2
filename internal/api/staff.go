package api

import (
	"net/http"

	"github.com/Spok95/workshop-erp/internal/domain/staff"
)

func (a *API) listDepartments(w http.ResponseWriter, r *http.Request) error {
	items, err := a.Staff.ListDepartments(r.Context())
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createDepartment(w http.ResponseWriter, r *http.Request) error {
	var in staff.DepartmentInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	d, err := a.Staff.CreateDepartment(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, d)
}

func (a *API) getDepartment(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	d, err := a.Staff.GetDepartment(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, d)
}

func (a *API) updateDepartment(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in staff.DepartmentInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	d, err := a.Staff.UpdateDepartment(r.Context(), id, in)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, d)
}

func (a *API) deleteDepartment(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Staff.DeleteDepartment(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

func (a *API) listEmployees(w http.ResponseWriter, r *http.Request) error {
	var (
		f   staff.EmployeeFilter
		err error
	)
	f.Query = r.URL.Query().Get("q")
	if f.DepartmentID, err = queryID(r, "department_id"); err != nil {
		return err
	}
	if f.OnlyActive, err = queryBool(r, "only_active"); err != nil {
		return err
	}
	if f.IncludeDeleted, err = queryBool(r, "include_deleted"); err != nil {
		return err
	}
	items, err := a.Staff.ListEmployees(r.Context(), f)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createEmployee(w http.ResponseWriter, r *http.Request) error {
	var in staff.NewEmployee
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	e, err := a.Staff.CreateEmployee(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, e)
}

func (a *API) getEmployee(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	e, err := a.Staff.GetEmployee(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, e)
}

func (a *API) updateEmployee(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var p staff.EmployeePatch
	if err := a.decode(w, r, &p); err != nil {
		return err
	}
	e, err := a.Staff.UpdateEmployee(r.Context(), id, p)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, e)
}

func (a *API) deleteEmployee(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Staff.SoftDeleteEmployee(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}
