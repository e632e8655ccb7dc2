package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Spok95/workshop-erp/internal/domain/inventory"
	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/Spok95/workshop-erp/internal/report"
	"github.com/stretchr/testify/require"
)

func plywood() map[string]any {
	return map[string]any{
		"sku":            "PLY-18",
		"name":           "Фанера 18мм",
		"unit":           "sheet",
		"price_per_unit": 2350.5,
		"quantity":       12,
		"min_quantity":   5,
	}
}

func TestMaterialCreateGetUpdate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/material-items", plywood())
	require.Equal(t, http.StatusCreated, rec.Code)
	it := decodeAs[materials.Item](t, rec)
	require.Equal(t, "PLY-18", it.SKU)
	require.Equal(t, materials.UnitSheet, it.Unit)
	require.Equal(t, 12.0, it.Quantity)

	rec = env.do(t, http.MethodPost, "/api/material-items", plywood())
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/material-items/1", map[string]any{"price_per_unit": 2400})
	require.Equal(t, http.StatusOK, rec.Code)
	it = decodeAs[materials.Item](t, rec)
	require.Equal(t, 2400.0, it.PricePerUnit)
	require.Equal(t, "Фанера 18мм", it.Name)
	require.Empty(t, env.notifier.calls)

	rec = env.do(t, http.MethodPut, "/api/material-items/1", map[string]any{"min_quantity": 20})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"PLY-18"}, env.notifier.low())
}

func TestMaterialSoftDeleteAndRestore(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/material-items", plywood()).Code)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/material-items/1", nil).Code)

	rec := env.do(t, http.MethodGet, "/api/material-items", nil)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/material-items?include_deleted=true", nil)
	list := decodeAs[[]materials.Item](t, rec)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].DeletedAt)

	// SKU освободился
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/material-items", plywood()).Code)
	rec = env.do(t, http.MethodPost, "/api/material-items/1/restore", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/material-items/2", nil).Code)
	rec = env.do(t, http.MethodPost, "/api/material-items/1/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, decodeAs[materials.Item](t, rec).DeletedAt)
}

func TestMovementsUpdateStockAndNotify(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/material-items", plywood()).Code)

	rec := env.do(t, http.MethodPost, "/api/material-items/1/movements", map[string]any{"type": "out", "qty": 8, "note": "заказ 17"})
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeAs[movementResponse](t, rec)
	require.Equal(t, 4.0, res.Item.Quantity)
	require.Equal(t, -8.0, res.Movement.Qty)
	require.Equal(t, []string{"PLY-18"}, env.notifier.low())

	rec = env.do(t, http.MethodPost, "/api/material-items/1/movements", map[string]any{"type": "in", "qty": 0})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/material-items/1/movements", map[string]any{"type": "adjust", "qty": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, decodeAs[movementResponse](t, rec).Movement)

	rec = env.do(t, http.MethodPost, "/api/material-items/1/movements", map[string]any{"type": "move", "qty": 1})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/material-items/7/movements", map[string]any{"type": "in", "qty": 1})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/material-items/1/movements", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	moves := decodeAs[[]inventory.Movement](t, rec)
	require.Len(t, moves, 1)
	require.Equal(t, "заказ 17", moves[0].Note)
}

func TestLowStockEndpoint(t *testing.T) {
	env := newTestEnv(t)
	low := plywood()
	low["sku"], low["quantity"] = "PLY-09", 1
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/material-items", plywood()).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/material-items", low).Code)

	rec := env.do(t, http.MethodGet, "/api/material-items/low-stock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeAs[[]materials.Item](t, rec)
	require.Len(t, items, 1)
	require.Equal(t, "PLY-09", items[0].SKU)
}

func TestBulkActions(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/material-items", plywood()).Code)

	rec := env.do(t, http.MethodPost, "/api/material-items/bulk-actions", map[string]any{"action": "deactivate", "ids": []int64{1, 2}})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeAs[materials.BulkResult](t, rec)
	require.Equal(t, 2, res.Requested)
	require.Equal(t, int64(1), res.Affected)

	rec = env.do(t, http.MethodPost, "/api/material-items/bulk-actions", map[string]any{"action": "set_category", "ids": []int64{1}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, decodeAs[errorBody](t, rec).Fields, "category_id")

	rec = env.do(t, http.MethodPost, "/api/material-items/bulk-actions", map[string]any{"action": "explode", "ids": []int64{1}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/material-items/bulk-actions", map[string]any{"action": "activate", "ids": []int64{}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportMaterials(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/material-items", plywood()).Code)

	rec := env.do(t, http.MethodGet, "/api/material-items/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, report.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "materials_20260314.xlsx")

	rows, errs, err := report.ParseMaterials(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, rows, 1)
	require.Equal(t, "PLY-18", rows[0].Item.SKU)
	require.Equal(t, 2350.5, rows[0].Item.PricePerUnit)
}

func uploadRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "materials.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/material-items/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportMaterials(t *testing.T) {
	env := newTestEnv(t)
	env.api.DefaultMinQty = 3
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Фанера"}).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/material-items", plywood()).Code)

	data, err := report.MaterialsXLSX([]materials.Item{
		{SKU: "PLY-18", Name: "Фанера 18мм ФК", CategoryName: "фанера", Unit: materials.UnitSheet, PricePerUnit: 2500, Quantity: 2, MinQuantity: 5},
		{SKU: "EDGE-2", Name: "Кромка ПВХ", CategoryName: "Кромка", Unit: materials.UnitM, Quantity: 100},
		{SKU: "GLUE-1", Name: "Клей", Unit: materials.UnitKg, PricePerUnit: 480, Quantity: 7},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, uploadRequest(t, data))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeAs[importResult](t, rec)
	require.Equal(t, 1, res.Created)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	require.Equal(t, 3, res.Errors[0].Line)
	require.Contains(t, res.Errors[0].Message, "Кромка")

	ply := env.materials.items[1]
	require.Equal(t, "Фанера 18мм ФК", ply.Name)
	require.Equal(t, 2.0, ply.Quantity)
	require.NotNil(t, ply.CategoryID)
	require.Len(t, env.inventory.moves, 1)
	require.Equal(t, inventory.MoveAdjust, env.inventory.moves[0].Type)

	glue := env.materials.liveSKU("GLUE-1")
	require.NotNil(t, glue)
	require.Equal(t, 7.0, glue.Quantity)
	// в файле min_quantity = 0, значение из файла побеждает порог по умолчанию
	require.Equal(t, 0.0, glue.MinQuantity)

	require.Equal(t, []string{"PLY-18"}, env.notifier.low())
}

func TestImportRejectsNonXLSX(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, uploadRequest(t, []byte("sku,name\nA,B\n")))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, decodeAs[errorBody](t, rec).Fields, "file")
}
