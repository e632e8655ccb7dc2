package calculator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Spok95/workshop-erp/internal/formula"
)

// Priced — цена материала или ставка вида работ.
type Priced struct {
	Name  string
	Unit  string
	Price float64
}

// PriceBook отдаёт актуальные цены; отсутствующие id в ответе не возвращаются.
type PriceBook interface {
	MaterialPrices(ctx context.Context, ids []int64) (map[int64]Priced, error)
	WorkRates(ctx context.Context, ids []int64) (map[int64]Priced, error)
}

func checkLine(i int, l Line) error {
	switch l.Kind {
	case LineMaterial:
		if l.MaterialID == nil || l.WorkTypeID != nil {
			return fmt.Errorf("%w: line %d: material line needs material_id only", ErrInvalidBOM, i+1)
		}
	case LineWork:
		if l.WorkTypeID == nil || l.MaterialID != nil {
			return fmt.Errorf("%w: line %d: work line needs work_type_id only", ErrInvalidBOM, i+1)
		}
	default:
		return fmt.Errorf("%w: line %d: unknown kind %q", ErrInvalidBOM, i+1, l.Kind)
	}
	return nil
}

// ValidateBOM проверяет строки и то, что формулы количеств ссылаются
// только на параметры и формулы шаблона.
func ValidateBOM(lines []Line, t Template) error {
	if _, err := Compile(t); err != nil {
		return err
	}
	names := map[string]bool{}
	for _, p := range t.Parameters {
		names[p.Name] = true
	}
	for _, f := range t.Formulas {
		names[f.Name] = true
	}
	for i, l := range lines {
		if err := checkLine(i, l); err != nil {
			return err
		}
		e, err := formula.Compile(l.QuantityFormula)
		if err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrInvalidBOM, i+1, err)
		}
		for _, v := range e.Variables() {
			if !names[v] {
				return fmt.Errorf("%w: line %d references undefined name %q", ErrInvalidBOM, i+1, v)
			}
		}
	}
	return nil
}

type BomLineResult struct {
	Kind      LineKind `json:"kind"`
	RefID     int64    `json:"ref_id"`
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	Formula   string   `json:"formula"`
	Quantity  float64  `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
	Cost      float64  `json:"cost"`
	Note      string   `json:"note"`
}

type BomResult struct {
	BomTemplateID  int64           `json:"bom_template_id"`
	Name           string          `json:"name"`
	TemplateID     int64           `json:"template_id"`
	Parameters     map[string]any  `json:"parameters"`
	Results        []FormulaResult `json:"results"`
	Lines          []BomLineResult `json:"lines"`
	MaterialsTotal float64         `json:"materials_total"`
	LabourTotal    float64         `json:"labour_total"`
	Total          float64         `json:"total"`
}

// CalculateBOM вычисляет шаблон, затем количество по каждой строке и её стоимость.
func CalculateBOM(ctx context.Context, bom BomTemplate, t Template, in Input, prices PriceBook) (*BomResult, error) {
	c, err := Compile(t)
	if err != nil {
		return nil, err
	}
	res, err := c.Evaluate(in)
	if err != nil {
		return nil, err
	}

	lines := append([]Line(nil), bom.Lines...)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })

	var matIDs, workIDs []int64
	for i, l := range lines {
		if err := checkLine(i, l); err != nil {
			return nil, err
		}
		if l.Kind == LineMaterial {
			matIDs = append(matIDs, *l.MaterialID)
		} else {
			workIDs = append(workIDs, *l.WorkTypeID)
		}
	}
	mats, err := prices.MaterialPrices(ctx, matIDs)
	if err != nil {
		return nil, err
	}
	works, err := prices.WorkRates(ctx, workIDs)
	if err != nil {
		return nil, err
	}

	out := &BomResult{
		BomTemplateID: bom.ID,
		Name:          bom.Name,
		TemplateID:    bom.TemplateID,
		Parameters:    res.Parameters,
		Results:       res.Results,
		Lines:         make([]BomLineResult, 0, len(lines)),
	}
	env := res.Env()
	for i, l := range lines {
		qty, err := formula.Evaluate(l.QuantityFormula, env)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if qty < 0 {
			return nil, fmt.Errorf("%w: line %d: quantity %g is negative", ErrInvalidInput, i+1, qty)
		}

		var (
			ref    int64
			priced Priced
			ok     bool
		)
		if l.Kind == LineMaterial {
			ref = *l.MaterialID
			priced, ok = mats[ref]
		} else {
			ref = *l.WorkTypeID
			priced, ok = works[ref]
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s %d", ErrMissingRef, l.Kind, ref)
		}

		lr := BomLineResult{
			Kind:      l.Kind,
			RefID:     ref,
			Name:      priced.Name,
			Unit:      priced.Unit,
			Formula:   l.QuantityFormula,
			Quantity:  formula.Round(qty, 4),
			UnitPrice: priced.Price,
			Cost:      round2(qty * priced.Price),
			Note:      l.Note,
		}
		if l.Kind == LineMaterial {
			out.MaterialsTotal += lr.Cost
		} else {
			out.LabourTotal += lr.Cost
		}
		out.Lines = append(out.Lines, lr)
	}
	out.MaterialsTotal = round2(out.MaterialsTotal)
	out.LabourTotal = round2(out.LabourTotal)
	out.Total = round2(out.MaterialsTotal + out.LabourTotal)
	return out, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
