package products

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CostSource — то, что нужно для расчёта себестоимости. Repo его реализует.
type CostSource interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListMaterials(ctx context.Context, productID int64) ([]MaterialUsage, error)
	ListWorkTypes(ctx context.Context, productID int64) ([]WorkTypeUsage, error)
	ListComponents(ctx context.Context, assemblyID int64) ([]Component, error)
}

type LineKind string

const (
	LineMaterial  LineKind = "material"
	LineWork      LineKind = "work"
	LineComponent LineKind = "component"
)

type CostLine struct {
	Kind     LineKind `json:"kind"`
	RefID    int64    `json:"ref_id"`
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"` // с учётом отхода для материалов
	UnitCost float64  `json:"unit_cost"`
	Cost     float64  `json:"cost"`
}

type Cost struct {
	ProductID      int64      `json:"product_id"`
	SKU            string     `json:"sku"`
	Name           string     `json:"name"`
	Materials      float64    `json:"materials"`
	Labour         float64    `json:"labour"`
	Components     float64    `json:"components"`
	Total          float64    `json:"total"`
	MarkupPercent  float64    `json:"markup_percent"`
	SuggestedPrice float64    `json:"suggested_price"`
	Lines          []CostLine `json:"lines"`
}

// CostOf считает себестоимость изделия с раскрытием вложенных сборок.
// Цикл в сохранённых данных возвращается как ErrCycle.
func CostOf(ctx context.Context, src CostSource, id int64) (*Cost, error) {
	c := coster{src: src, totals: map[int64]float64{}, onPath: map[int64]bool{}}
	cost, err := c.cost(ctx, id)
	if err != nil {
		return nil, err
	}
	return cost.rounded(), nil
}

type coster struct {
	src    CostSource
	totals map[int64]float64
	onPath map[int64]bool
	path   []int64
}

func (c *coster) cost(ctx context.Context, id int64) (*Cost, error) {
	if c.onPath[id] {
		return nil, fmt.Errorf("%w: %s", ErrCycle, formatPath(append(c.path, id)))
	}
	c.onPath[id] = true
	c.path = append(c.path, id)
	defer func() {
		delete(c.onPath, id)
		c.path = c.path[:len(c.path)-1]
	}()

	p, err := c.src.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	out := &Cost{ProductID: p.ID, SKU: p.SKU, Name: p.Name, MarkupPercent: p.MarkupPercent, Lines: []CostLine{}}

	mats, err := c.src.ListMaterials(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, m := range mats {
		qty := m.Quantity * (1 + m.WastePercent/100)
		line := CostLine{Kind: LineMaterial, RefID: m.MaterialID, Name: m.MaterialName,
			Quantity: qty, UnitCost: m.PricePerUnit, Cost: qty * m.PricePerUnit}
		out.Materials += line.Cost
		out.Lines = append(out.Lines, line)
	}

	works, err := c.src.ListWorkTypes(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, w := range works {
		line := CostLine{Kind: LineWork, RefID: w.WorkTypeID, Name: w.WorkTypeName,
			Quantity: w.Quantity, UnitCost: w.Rate, Cost: w.Quantity * w.Rate}
		out.Labour += line.Cost
		out.Lines = append(out.Lines, line)
	}

	comps, err := c.src.ListComponents(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, cm := range comps {
		unit, err := c.total(ctx, cm.ComponentID)
		if err != nil {
			return nil, err
		}
		line := CostLine{Kind: LineComponent, RefID: cm.ComponentID, Name: cm.ComponentName,
			Quantity: cm.Quantity, UnitCost: unit, Cost: cm.Quantity * unit}
		out.Components += line.Cost
		out.Lines = append(out.Lines, line)
	}

	out.Total = out.Materials + out.Labour + out.Components
	out.SuggestedPrice = out.Total * (1 + out.MarkupPercent/100)
	return out, nil
}

// total — себестоимость единицы компонента; общие подсборки считаются один раз.
func (c *coster) total(ctx context.Context, id int64) (float64, error) {
	if v, ok := c.totals[id]; ok {
		return v, nil
	}
	sub, err := c.cost(ctx, id)
	if err != nil {
		return 0, err
	}
	c.totals[id] = sub.Total
	return sub.Total, nil
}

func (c *Cost) rounded() *Cost {
	c.Materials = round2(c.Materials)
	c.Labour = round2(c.Labour)
	c.Components = round2(c.Components)
	c.Total = round2(c.Total)
	c.SuggestedPrice = round2(c.SuggestedPrice)
	for i := range c.Lines {
		c.Lines[i].UnitCost = round2(c.Lines[i].UnitCost)
		c.Lines[i].Cost = round2(c.Lines[i].Cost)
	}
	return c
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func formatPath(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " -> ")
}

// Reaches сообщает, достижим ли target из start по рёбрам children.
func Reaches(ctx context.Context, children func(context.Context, int64) ([]int64, error), start []int64, target int64) (bool, error) {
	seen := map[int64]bool{}
	queue := append([]int64(nil), start...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == target {
			return true, nil
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		next, err := children(ctx, id)
		if err != nil {
			return false, err
		}
		queue = append(queue, next...)
	}
	return false, nil
}
