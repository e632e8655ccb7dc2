package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/Spok95/workshop-erp/internal/domain/calculator"
	"github.com/xuri/excelize/v2"
)

const bomSheet = "BOM"

// BomXLSX — расчёт BOM-шаблона: параметры, результаты формул, строки и итоги.
func BomXLSX(res *calculator.BomResult, at time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), bomSheet); err != nil {
		return nil, err
	}

	var rows [][]any
	add := func(cells ...any) { rows = append(rows, cells) }

	add("BOM", res.Name)
	add("Расчёт", at.Format("2006-01-02 15:04"))
	add()
	add("Параметр", "Значение")
	names := make([]string, 0, len(res.Parameters))
	for k := range res.Parameters {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		add(k, res.Parameters[k])
	}
	add()
	add("Формула", "Выражение", "Значение", "Ед.")
	for _, r := range res.Results {
		add(r.Name, r.Expression, r.Value, r.Unit)
	}
	add()
	add("Тип", "ID", "Наименование", "Количество", "Ед.", "Цена", "Стоимость", "Примечание")
	for _, l := range res.Lines {
		add(string(l.Kind), l.RefID, l.Name, l.Quantity, l.Unit, l.UnitPrice, l.Cost, l.Note)
	}
	add()
	add("Материалы", res.MaterialsTotal)
	add("Работы", res.LabourTotal)
	add("Итого", res.Total)

	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(bomSheet, cell, &r); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
