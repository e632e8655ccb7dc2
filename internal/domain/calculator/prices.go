package calculator

import (
	"context"

	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/Spok95/workshop-erp/internal/domain/worktypes"
)

type materialLister interface {
	ListByIDs(ctx context.Context, ids []int64) ([]materials.Item, error)
}

type workTypeLister interface {
	ListByIDs(ctx context.Context, ids []int64) ([]worktypes.WorkType, error)
}

// RepoPrices берёт цены из справочников материалов и видов работ.
type RepoPrices struct {
	materials materialLister
	works     workTypeLister
}

func NewRepoPrices(m materialLister, w workTypeLister) *RepoPrices {
	return &RepoPrices{materials: m, works: w}
}

func (p *RepoPrices) MaterialPrices(ctx context.Context, ids []int64) (map[int64]Priced, error) {
	items, err := p.materials.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Priced, len(items))
	for _, it := range items {
		out[it.ID] = Priced{Name: it.Name, Unit: string(it.Unit), Price: it.PricePerUnit}
	}
	return out, nil
}

func (p *RepoPrices) WorkRates(ctx context.Context, ids []int64) (map[int64]Priced, error) {
	items, err := p.works.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Priced, len(items))
	for _, w := range items {
		out[w.ID] = Priced{Name: w.Name, Unit: string(w.Unit), Price: w.Rate}
	}
	return out, nil
}
