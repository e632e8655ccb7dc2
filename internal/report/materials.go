// Package report строит и разбирает Excel-файлы.
package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var materialHeader = []any{
	"id", "sku", "name", "category", "unit", "price_per_unit", "quantity", "min_quantity", "supplier",
}

// MaterialsXLSX выгружает материалы одной таблицей; файл годится для обратной загрузки.
func MaterialsXLSX(items []materials.Item) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &materialHeader); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	row := 2
	for _, m := range items {
		excelRow := []any{
			m.ID,
			m.SKU,
			m.Name,
			m.CategoryName,
			string(m.Unit),
			m.PricePerUnit,
			m.Quantity,
			m.MinQuantity,
			m.Supplier,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportRow — разобранная строка файла; Line — номер строки в Excel.
type ImportRow struct {
	Line     int
	Item     materials.NewItem
	Category string
	HasQty   bool
	HasMin   bool
}

type ImportError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ParseMaterials читает первый лист. Колонки ищутся по заголовку, обязательны sku и name.
// Строки с ошибками попадают в errs и не возвращаются в rows.
func ParseMaterials(r io.Reader) (rows []ImportRow, errs []ImportError, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("report: not an xlsx file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("report: empty sheet")
	}

	col := map[string]int{}
	for i, h := range all[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"sku", "name"} {
		if _, ok := col[req]; !ok {
			return nil, nil, fmt.Errorf("report: column %q is missing", req)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for i := 1; i < len(all); i++ {
		row := all[i]
		line := i + 1
		sku, name := cell(row, "sku"), cell(row, "name")
		if sku == "" && name == "" {
			continue
		}
		fail := func(format string, args ...any) {
			errs = append(errs, ImportError{Line: line, Message: fmt.Sprintf(format, args...)})
		}
		if sku == "" || name == "" {
			fail("sku and name are required")
			continue
		}

		it := materials.NewItem{
			SKU:      sku,
			Name:     name,
			Unit:     materials.UnitPcs,
			Supplier: cell(row, "supplier"),
		}
		if u := cell(row, "unit"); u != "" {
			it.Unit = materials.Unit(strings.ToLower(u))
			if !it.Unit.Valid() {
				fail("unknown unit %q", u)
				continue
			}
		}

		var bad bool
		num := func(name string, dst *float64) bool {
			s := cell(row, name)
			if s == "" {
				return false
			}
			v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
			if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				fail("%s: %q is not a non-negative number", name, s)
				bad = true
				return false
			}
			*dst = v
			return true
		}
		num("price_per_unit", &it.PricePerUnit)
		hasMin := num("min_quantity", &it.MinQuantity)
		hasQty := num("quantity", &it.Quantity)
		if bad {
			continue
		}

		rows = append(rows, ImportRow{Line: line, Item: it, Category: cell(row, "category"), HasQty: hasQty, HasMin: hasMin})
	}
	return rows, errs, nil
}
