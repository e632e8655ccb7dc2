package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/Spok95/workshop-erp/internal/domain/calculator"
	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMaterialsRoundTrip(t *testing.T) {
	in := []materials.Item{
		{ID: 1, SKU: "LDSP-16", Name: "ЛДСП 16 мм", CategoryName: "Плиты", Unit: materials.UnitSheet,
			PricePerUnit: 2450.5, Quantity: 12, MinQuantity: 5, Supplier: "Эггер"},
		{ID: 2, SKU: "GLUE", Name: "Клей ПВА", Unit: materials.UnitKg, PricePerUnit: 310, Quantity: 1.25},
	}
	data, err := MaterialsXLSX(in)
	require.NoError(t, err)

	rows, errs, err := ParseMaterials(bytes.NewReader(data))
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, rows, 2)

	require.Equal(t, 2, rows[0].Line)
	require.Equal(t, "Плиты", rows[0].Category)
	require.True(t, rows[0].HasQty)
	require.Equal(t, materials.NewItem{
		SKU: "LDSP-16", Name: "ЛДСП 16 мм", Unit: materials.UnitSheet,
		PricePerUnit: 2450.5, Quantity: 12, MinQuantity: 5, Supplier: "Эггер",
	}, rows[0].Item)
	require.Equal(t, "", rows[1].Category)
	require.Equal(t, 1.25, rows[1].Item.Quantity)
}

func sheet(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	name := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(name, cell, &r))
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf.Bytes()
}

func TestParseMaterialsRowErrors(t *testing.T) {
	data := sheet(t, [][]any{
		{"Name", "SKU", "Unit", "Quantity", "Price_per_unit"},
		{"Фанера", "PLY-10", "sheet", "", "1200,50"},
		{"", "", "", "", ""},
		{"Без артикула", "", "pcs", "1", "1"},
		{"Краска", "PAINT", "bucket", "1", "1"},
		{"Лак", "LAC", "l", "-3", "1"},
		{"Шпон", "VEN", "", "abc", "1"},
		{"Доска", "S1", "", "Inf", "1"},
		{"Брус", "S2", "", "1", "NaN"},
		{"Рейка", "S3", "", "Infinity", "1"},
	})
	rows, errs, err := ParseMaterials(bytes.NewReader(data))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	require.Equal(t, "PLY-10", rows[0].Item.SKU)
	require.Equal(t, 1200.5, rows[0].Item.PricePerUnit)
	require.False(t, rows[0].HasQty)

	require.Len(t, errs, 7)
	lines := make([]int, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, e.Line)
	}
	require.Equal(t, []int{4, 5, 6, 7, 8, 9, 10}, lines)
	require.Contains(t, errs[1].Message, "bucket")
}

func TestParseMaterialsRejectsBadFiles(t *testing.T) {
	_, _, err := ParseMaterials(bytes.NewReader([]byte("not a spreadsheet")))
	require.Error(t, err)

	_, _, err = ParseMaterials(bytes.NewReader(sheet(t, [][]any{{"name", "qty"}})))
	require.ErrorContains(t, err, "sku")
}

func TestBomXLSX(t *testing.T) {
	res := &calculator.BomResult{
		Name:       "Шкаф",
		Parameters: map[string]any{"width": 800.0, "with_doors": true},
		Results:    []calculator.FormulaResult{{Name: "doors", Expression: "ceil(width / 600)", Value: 2}},
		Lines: []calculator.BomLineResult{
			{Kind: calculator.LineMaterial, RefID: 10, Name: "Петля", Quantity: 4, Unit: "pcs", UnitPrice: 45.5, Cost: 182},
		},
		MaterialsTotal: 182,
		Total:          182,
	}
	data, err := BomXLSX(res, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(bomSheet)
	require.NoError(t, err)
	require.Equal(t, []string{"BOM", "Шкаф"}, rows[0])
	require.Equal(t, []string{"Расчёт", "2024-05-01 10:30"}, rows[1])
	require.Equal(t, []string{"width", "800"}, rows[4])
	require.Equal(t, []string{"with_doors", "TRUE"}, rows[5])
	require.Equal(t, "Петля", rows[11][2])
	require.Equal(t, []string{"Итого", "182"}, rows[len(rows)-1])
}
