package api

import (
	"net/http"
	"strings"

	"github.com/Spok95/workshop-erp/internal/domain/catalog"
)

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) error {
	onlyActive, err := queryBool(r, "only_active")
	if err != nil {
		return err
	}
	items, err := a.Categories.ListCategories(r.Context(), onlyActive)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) error {
	var in categoryRequest
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	c, err := a.Categories.CreateCategory(r.Context(), strings.TrimSpace(in.Name), in.Description)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, c)
}

func (a *API) getCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	c, err := a.Categories.GetCategoryByID(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, c)
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var p catalog.CategoryPatch
	if err := a.decode(w, r, &p); err != nil {
		return err
	}
	c, err := a.Categories.UpdateCategory(r.Context(), id, p)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, c)
}

func (a *API) setCategoryActive(active bool) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		c, err := a.Categories.SetCategoryActive(r.Context(), id, active)
		if err != nil {
			return err
		}
		return one(w, http.StatusOK, c)
	}
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Categories.DeleteCategory(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}
