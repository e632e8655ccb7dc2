package api

import (
	"net/http"

	"github.com/Spok95/workshop-erp/internal/domain/worktypes"
)

func (a *API) listWorkTypes(w http.ResponseWriter, r *http.Request) error {
	var (
		f   worktypes.Filter
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
	items, err := a.WorkTypes.List(r.Context(), f)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createWorkType(w http.ResponseWriter, r *http.Request) error {
	var in worktypes.NewWorkType
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	wt, err := a.WorkTypes.Create(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, wt)
}

func (a *API) getWorkType(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	wt, err := a.WorkTypes.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, wt)
}

func (a *API) updateWorkType(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var p worktypes.Patch
	if err := a.decode(w, r, &p); err != nil {
		return err
	}
	wt, err := a.WorkTypes.Update(r.Context(), id, p)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, wt)
}

func (a *API) deleteWorkType(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.WorkTypes.SoftDelete(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}
