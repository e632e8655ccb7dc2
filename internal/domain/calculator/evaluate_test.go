package calculator

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/workshop-erp/internal/formula"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func cabinetTemplate() Template {
	return Template{
		Name: "Шкаф",
		Parameters: []Parameter{
			{Name: "width", Kind: KindNumber, Default: 800, Min: f64(300), Max: f64(2400), Unit: "mm"},
			{Name: "height", Kind: KindNumber, Default: 2000, Unit: "mm"},
			{Name: "depth", Kind: KindNumber, Default: 600, Unit: "mm"},
			{Name: "with_doors", Kind: KindBoolean, Default: 1},
		},
		Formulas: []Formula{
			// объявлены не в порядке зависимостей
			{Name: "wood_volume_net", Expression: "wood_volume * 0.85", Position: 2},
			{Name: "wood_volume", Expression: "width * height * depth / 1e9", Position: 1},
			{Name: "doors", Expression: "with_doors ? ceil(width / 600) : 0", Position: 3},
		},
	}
}

func TestEvaluateDefaults(t *testing.T) {
	res, err := Evaluate(cabinetTemplate(), nil)
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	require.Equal(t, "wood_volume", res.Results[0].Name)
	require.InDelta(t, 0.96, res.Results[0].Value, 1e-9)
	require.InDelta(t, 0.816, res.Results[1].Value, 1e-9)
	require.Equal(t, 2.0, res.Results[2].Value)
	require.Equal(t, true, res.Parameters["with_doors"])
}

func TestEvaluateInput(t *testing.T) {
	res, err := Evaluate(cabinetTemplate(), Input{"width": 1200.0, "with_doors": false})
	require.NoError(t, err)
	require.Equal(t, 0.0, res.Results[2].Value)
	require.InDelta(t, 1.44, res.Env()["wood_volume"], 1e-9)

	res, err = Evaluate(cabinetTemplate(), Input{"with_doors": 1.0, "width": 1201.0})
	require.NoError(t, err)
	require.Equal(t, 3.0, res.Results[2].Value)
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	cases := map[string]Input{
		"unknown":      {"colour": 1.0},
		"below min":    {"width": 100.0},
		"above max":    {"width": 5000.0},
		"not a number": {"width": "wide"},
		"bool as num":  {"width": true},
		"bad boolean":  {"with_doors": 2.0},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Evaluate(cabinetTemplate(), in)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCompileRejectsBadTemplates(t *testing.T) {
	mutate := map[string]func(*Template){
		"bad name":        func(t *Template) { t.Parameters[0].Name = "Width" },
		"reserved name":   func(t *Template) { t.Parameters[0].Name = "true" },
		"duplicate":       func(t *Template) { t.Formulas[0].Name = "width" },
		"syntax":          func(t *Template) { t.Formulas[0].Expression = "wood_volume *" },
		"undefined":       func(t *Template) { t.Formulas[0].Expression = "wood * 2" },
		"cycle":           func(t *Template) { t.Formulas[1].Expression = "wood_volume_net + 1" },
		"min over max":    func(t *Template) { t.Parameters[0].Min = f64(3000) },
		"default range":   func(t *Template) { t.Parameters[0].Default = 10 },
		"boolean default": func(t *Template) { t.Parameters[3].Default = 0.5 },
		"kind":            func(t *Template) { t.Parameters[1].Kind = "text" },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			tpl := cabinetTemplate()
			fn(&tpl)
			_, err := Compile(tpl)
			require.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}

	tpl := cabinetTemplate()
	tpl.Formulas[1].Expression = "wood_volume_net + 1"
	_, err := Compile(tpl)
	require.ErrorIs(t, err, formula.ErrCycle)
}

func TestEvaluateSurfacesFormulaErrors(t *testing.T) {
	tpl := Template{
		Parameters: []Parameter{{Name: "n", Kind: KindNumber}},
		Formulas:   []Formula{{Name: "per_item", Expression: "100 / n"}},
	}
	_, err := Evaluate(tpl, nil)
	require.ErrorIs(t, err, formula.ErrNotFinite)

	_, err = Evaluate(tpl, Input{"n": 4.0})
	require.NoError(t, err)
}

type fakePrices struct {
	mats  map[int64]Priced
	works map[int64]Priced
	err   error
}

func (f fakePrices) MaterialPrices(_ context.Context, ids []int64) (map[int64]Priced, error) {
	return pick(f.mats, ids), f.err
}

func (f fakePrices) WorkRates(_ context.Context, ids []int64) (map[int64]Priced, error) {
	return pick(f.works, ids), f.err
}

func pick(all map[int64]Priced, ids []int64) map[int64]Priced {
	out := map[int64]Priced{}
	for _, id := range ids {
		if p, ok := all[id]; ok {
			out[id] = p
		}
	}
	return out
}

func i64(v int64) *int64 { return &v }

func cabinetBOM() BomTemplate {
	return BomTemplate{
		ID:         5,
		Name:       "Шкаф распашной",
		TemplateID: 1,
		Lines: []Line{
			{Kind: LineWork, WorkTypeID: i64(20), QuantityFormula: "doors * 0.5", Position: 2},
			{Kind: LineMaterial, MaterialID: i64(10), QuantityFormula: "wood_volume_net", Position: 1},
			{Kind: LineMaterial, MaterialID: i64(11), QuantityFormula: "with_doors ? doors * 2 : 0", Position: 3},
		},
	}
}

func TestCalculateBOM(t *testing.T) {
	prices := fakePrices{
		mats: map[int64]Priced{
			10: {Name: "Массив сосны", Unit: "m3", Price: 25000},
			11: {Name: "Петля", Unit: "pcs", Price: 45.5},
		},
		works: map[int64]Priced{20: {Name: "Навеска дверей", Unit: "hour", Price: 600}},
	}
	res, err := CalculateBOM(context.Background(), cabinetBOM(), cabinetTemplate(), nil, prices)
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)

	require.Equal(t, LineMaterial, res.Lines[0].Kind)
	require.InDelta(t, 0.816, res.Lines[0].Quantity, 1e-9)
	require.Equal(t, 20400.0, res.Lines[0].Cost)
	require.Equal(t, 600.0, res.Lines[1].Cost)
	require.Equal(t, 4.0, res.Lines[2].Quantity)
	require.Equal(t, 182.0, res.Lines[2].Cost)

	require.Equal(t, 20582.0, res.MaterialsTotal)
	require.Equal(t, 600.0, res.LabourTotal)
	require.Equal(t, 21182.0, res.Total)
}

func TestCalculateBOMErrors(t *testing.T) {
	ctx := context.Background()

	_, err := CalculateBOM(ctx, cabinetBOM(), cabinetTemplate(), nil, fakePrices{})
	require.ErrorIs(t, err, ErrMissingRef)

	boom := errors.New("db down")
	_, err = CalculateBOM(ctx, cabinetBOM(), cabinetTemplate(), nil, fakePrices{err: boom})
	require.ErrorIs(t, err, boom)

	bom := cabinetBOM()
	bom.Lines[0].QuantityFormula = "0 - width"
	_, err = CalculateBOM(ctx, bom, cabinetTemplate(), nil, fakePrices{
		mats:  map[int64]Priced{10: {}, 11: {}},
		works: map[int64]Priced{20: {}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateBOM(t *testing.T) {
	require.NoError(t, ValidateBOM(cabinetBOM().Lines, cabinetTemplate()))

	lines := cabinetBOM().Lines
	lines[1].QuantityFormula = "panels * 2"
	require.ErrorIs(t, ValidateBOM(lines, cabinetTemplate()), ErrInvalidBOM)

	lines = cabinetBOM().Lines
	lines[0].MaterialID = i64(3)
	require.ErrorIs(t, ValidateBOM(lines, cabinetTemplate()), ErrInvalidBOM)

	require.ErrorIs(t, BomInput{Lines: []Line{{Kind: LineMaterial, QuantityFormula: "1"}}}.Validate(), ErrInvalidBOM)
}
