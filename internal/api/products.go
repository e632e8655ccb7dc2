package api

import (
	"net/http"

	"github.com/Spok95/workshop-erp/internal/domain/products"
)

func (a *API) listGroups(w http.ResponseWriter, r *http.Request) error {
	items, err := a.Products.ListGroups(r.Context())
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createGroup(w http.ResponseWriter, r *http.Request) error {
	var in products.GroupInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	g, err := a.Products.CreateGroup(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, g)
}

func (a *API) updateGroup(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in products.GroupInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	g, err := a.Products.UpdateGroup(r.Context(), id, in)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, g)
}

func (a *API) deleteGroup(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Products.DeleteGroup(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

func (a *API) listSubgroups(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	g, err := a.Products.GetGroup(r.Context(), id)
	if err != nil {
		return err
	}
	if g == nil {
		return errNotFound
	}
	items, err := a.Products.ListSubgroups(r.Context(), id)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createSubgroup(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in products.SubgroupInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	g, err := a.Products.GetGroup(r.Context(), id)
	if err != nil {
		return err
	}
	if g == nil {
		return errNotFound
	}
	sg, err := a.Products.CreateSubgroup(r.Context(), id, in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, sg)
}

func (a *API) deleteSubgroup(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Products.DeleteSubgroup(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) error {
	var (
		f   products.Filter
		err error
	)
	q := r.URL.Query()
	f.Query = q.Get("q")
	f.Type = products.Type(q.Get("type"))
	if f.GroupID, err = queryID(r, "group_id"); err != nil {
		return err
	}
	if f.SubgroupID, err = queryID(r, "subgroup_id"); err != nil {
		return err
	}
	if f.OnlyActive, err = queryBool(r, "only_active"); err != nil {
		return err
	}
	if f.IncludeDeleted, err = queryBool(r, "include_deleted"); err != nil {
		return err
	}
	items, err := a.Products.List(r.Context(), f)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) error {
	var in products.NewProduct
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	p, err := a.Products.Create(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, p)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	p, err := a.Products.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, p)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var pt products.Patch
	if err := a.decode(w, r, &pt); err != nil {
		return err
	}
	p, err := a.Products.Update(r.Context(), id, pt)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, p)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Products.SoftDelete(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

// productID проверяет, что изделие существует и не удалено.
func (a *API) productID(r *http.Request) (int64, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, err
	}
	p, err := a.Products.GetByID(r.Context(), id)
	if err != nil {
		return 0, err
	}
	if p == nil || p.DeletedAt != nil {
		return 0, errNotFound
	}
	return id, nil
}

func (a *API) listProductMaterials(w http.ResponseWriter, r *http.Request) error {
	id, err := a.productID(r)
	if err != nil {
		return err
	}
	items, err := a.Products.ListMaterials(r.Context(), id)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) setProductMaterials(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var items []products.MaterialUsage
	if err := a.decode(w, r, &items); err != nil {
		return err
	}
	if err := a.validateSlice(items); err != nil {
		return err
	}
	out, err := a.Products.SetMaterials(r.Context(), id, items)
	if err != nil {
		return err
	}
	return many(w, out)
}

func (a *API) listProductWorkTypes(w http.ResponseWriter, r *http.Request) error {
	id, err := a.productID(r)
	if err != nil {
		return err
	}
	items, err := a.Products.ListWorkTypes(r.Context(), id)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) setProductWorkTypes(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var items []products.WorkTypeUsage
	if err := a.decode(w, r, &items); err != nil {
		return err
	}
	if err := a.validateSlice(items); err != nil {
		return err
	}
	out, err := a.Products.SetWorkTypes(r.Context(), id, items)
	if err != nil {
		return err
	}
	return many(w, out)
}

func (a *API) listProductComponents(w http.ResponseWriter, r *http.Request) error {
	id, err := a.productID(r)
	if err != nil {
		return err
	}
	items, err := a.Products.ListComponents(r.Context(), id)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) setProductComponents(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var items []products.Component
	if err := a.decode(w, r, &items); err != nil {
		return err
	}
	if err := a.validateSlice(items); err != nil {
		return err
	}
	out, err := a.Products.SetComponents(r.Context(), id, items)
	if err != nil {
		return err
	}
	return many(w, out)
}

func (a *API) productCost(w http.ResponseWriter, r *http.Request) error {
	id, err := a.productID(r)
	if err != nil {
		return err
	}
	cost, err := products.CostOf(r.Context(), a.Products, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, cost)
	return nil
}
