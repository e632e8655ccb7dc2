package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Spok95/workshop-erp/internal/domain/inventory"
	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/Spok95/workshop-erp/internal/report"
)

const maxUpload = 10 << 20

func (a *API) listMaterials(w http.ResponseWriter, r *http.Request) error {
	var (
		f   materials.Filter
		err error
	)
	f.Query = r.URL.Query().Get("q")
	if f.CategoryID, err = queryID(r, "category_id"); err != nil {
		return err
	}
	if f.OnlyActive, err = queryBool(r, "only_active"); err != nil {
		return err
	}
	if f.LowStock, err = queryBool(r, "low_stock"); err != nil {
		return err
	}
	if f.IncludeDeleted, err = queryBool(r, "include_deleted"); err != nil {
		return err
	}
	if f.Limit, err = queryInt(r, "limit", 0); err != nil {
		return err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return err
	}
	items, err := a.Materials.List(r.Context(), f)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createMaterial(w http.ResponseWriter, r *http.Request) error {
	var in materials.NewItem
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	it, err := a.Materials.Create(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, it)
}

func (a *API) getMaterial(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	it, err := a.Materials.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, it)
}

func (a *API) updateMaterial(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var p materials.Patch
	if err := a.decode(w, r, &p); err != nil {
		return err
	}
	it, err := a.Materials.Update(r.Context(), id, p)
	if err != nil {
		return err
	}
	// порог мог подняться выше остатка
	if it != nil && p.MinQuantity != nil {
		a.notifyLow(r, []materials.Item{*it})
	}
	return one(w, http.StatusOK, it)
}

func (a *API) deleteMaterial(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Materials.SoftDelete(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

func (a *API) restoreMaterial(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	it, err := a.Materials.Restore(r.Context(), id)
	if err != nil {
		return err
	}
	if it != nil {
		a.notifyLow(r, []materials.Item{*it})
	}
	return one(w, http.StatusOK, it)
}

func (a *API) bulkMaterials(w http.ResponseWriter, r *http.Request) error {
	var req materials.BulkRequest
	if err := a.decode(w, r, &req); err != nil {
		return err
	}
	res, err := a.Materials.BulkAction(r.Context(), req)
	if err != nil {
		return err
	}
	// вернувшиеся в работу материалы проверяем на остаток
	if res.Affected > 0 && (req.Action == materials.BulkActivate || req.Action == materials.BulkRestore) {
		items, err := a.Materials.ListByIDs(r.Context(), req.IDs)
		if err != nil {
			a.log.Warn("bulk: reload items", "err", err)
		} else {
			a.notifyLow(r, items)
		}
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (a *API) lowStock(w http.ResponseWriter, r *http.Request) error {
	items, err := a.Materials.ListLowStock(r.Context())
	if err != nil {
		return err
	}
	return many(w, items)
}

type movementResponse struct {
	Movement *inventory.Movement `json:"movement"` // nil — остаток уже совпадал
	Item     *materials.Item     `json:"item"`
}

func (a *API) createMovement(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req inventory.Request
	if err := a.decode(w, r, &req); err != nil {
		return err
	}
	mv, err := a.Inventory.Apply(r.Context(), id, req)
	if err != nil {
		return err
	}
	it, err := a.Materials.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	if it == nil {
		return errNotFound
	}
	a.notifyLow(r, []materials.Item{*it})

	status := http.StatusCreated
	if mv == nil {
		status = http.StatusOK
	}
	writeJSON(w, status, movementResponse{Movement: mv, Item: it})
	return nil
}

func (a *API) listMovements(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		return err
	}
	it, err := a.Materials.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	if it == nil {
		return errNotFound
	}
	items, err := a.Inventory.ListMovements(r.Context(), id, limit)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) exportMaterials(w http.ResponseWriter, r *http.Request) error {
	onlyActive, err := queryBool(r, "only_active")
	if err != nil {
		return err
	}
	items, err := a.Materials.List(r.Context(), materials.Filter{OnlyActive: onlyActive})
	if err != nil {
		return err
	}
	data, err := report.MaterialsXLSX(items)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("materials_%s.xlsx", a.Now().Format("20060102"))
	w.Header().Set("Content-Type", report.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return nil
}

type importResult struct {
	Created int                  `json:"created"`
	Updated int                  `json:"updated"`
	Skipped int                  `json:"skipped"`
	Errors  []report.ImportError `json:"errors"`
}

// importMaterials загружает xlsx: строки сопоставляются по SKU, категория — по имени.
// Остаток существующего материала выравнивается корректировкой, чтобы попасть в журнал.
func (a *API) importMaterials(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return fmt.Errorf("%w: %v", errBadParam, err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: form field \"file\" is required", errBadParam)
	}
	defer func() { _ = file.Close() }()

	rows, rowErrs, err := report.ParseMaterials(file)
	if err != nil {
		return &fieldsError{Fields: map[string]string{"file": err.Error()}}
	}

	ctx := r.Context()
	res := importResult{Errors: rowErrs}
	rowFail := func(line int, err error) {
		res.Errors = append(res.Errors, report.ImportError{Line: line, Message: err.Error()})
	}
	categories := map[string]*int64{}
	var touched []materials.Item

	for _, row := range rows {
		in := row.Item
		if !row.HasMin {
			in.MinQuantity = a.DefaultMinQty
		}
		if name := strings.TrimSpace(row.Category); name != "" {
			key := strings.ToLower(name)
			id, seen := categories[key]
			if !seen {
				c, err := a.Categories.GetCategoryByName(ctx, name)
				if err != nil {
					return err
				}
				if c != nil {
					id = &c.ID
				}
				categories[key] = id
			}
			if id == nil {
				rowFail(row.Line, fmt.Errorf("unknown category %q", name))
				continue
			}
			in.CategoryID = id
		}
		if err := a.check(&in); err != nil {
			rowFail(row.Line, err)
			continue
		}

		it, inserted, err := a.Materials.UpsertBySKU(ctx, in)
		if err != nil {
			if statusOf(err) == http.StatusInternalServerError {
				return err
			}
			rowFail(row.Line, err)
			continue
		}
		if inserted {
			res.Created++
		} else {
			res.Updated++
			if row.HasQty && it.Quantity != in.Quantity {
				if _, err := a.Inventory.Adjust(ctx, it.ID, in.Quantity, "import"); err != nil {
					if errors.Is(err, inventory.ErrNegativeActual) {
						rowFail(row.Line, err)
					} else {
						return err
					}
				} else {
					it.Quantity = in.Quantity
				}
			}
		}
		touched = append(touched, *it)
	}
	res.Skipped = len(res.Errors)
	if res.Errors == nil {
		res.Errors = []report.ImportError{}
	}

	a.notifyLow(r, touched)
	writeJSON(w, http.StatusOK, res)
	return nil
}

// notifyLow передаёт материалы уведомителю; ошибки доставки он логирует сам.
func (a *API) notifyLow(r *http.Request, items []materials.Item) {
	if a.Notifier == nil || len(items) == 0 {
		return
	}
	a.Notifier.NotifyLowStock(r.Context(), items)
}
