package products

import (
	"errors"
	"time"
)

type Type string

const (
	TypeStandard  Type = "standard"
	TypeAssembly  Type = "assembly"
	TypeWarehouse Type = "warehouse"
)

var (
	ErrNotFound         = errors.New("products: product not found")
	ErrCycle            = errors.New("products: assembly contains itself")
	ErrNotAssembly      = errors.New("products: components are allowed only for assembly products")
	ErrSubgroupMismatch = errors.New("products: subgroup does not belong to the group")
	ErrDuplicateLine    = errors.New("products: duplicate line")
)

type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type Subgroup struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type SubgroupInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

type Product struct {
	ID            int64      `json:"id"`
	SKU           string     `json:"sku"`
	Name          string     `json:"name"`
	Type          Type       `json:"type"`
	GroupID       *int64     `json:"group_id"`
	SubgroupID    *int64     `json:"subgroup_id"`
	Unit          string     `json:"unit"`
	Price         float64    `json:"price"`
	MarkupPercent float64    `json:"markup_percent"`
	StockQty      float64    `json:"stock_qty"`
	Description   string     `json:"description"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

type NewProduct struct {
	SKU           string  `json:"sku" validate:"required,max=64"`
	Name          string  `json:"name" validate:"required,max=200"`
	Type          Type    `json:"type" validate:"required,oneof=standard assembly warehouse"`
	GroupID       *int64  `json:"group_id" validate:"omitnil,gt=0"`
	SubgroupID    *int64  `json:"subgroup_id" validate:"omitnil,gt=0"`
	Unit          string  `json:"unit" validate:"max=16"`
	Price         float64 `json:"price" validate:"gte=0"`
	MarkupPercent float64 `json:"markup_percent" validate:"gte=0,lte=1000"`
	StockQty      float64 `json:"stock_qty"`
	Description   string  `json:"description" validate:"max=2000"`
}

type Patch struct {
	SKU           *string  `json:"sku" validate:"omitnil,min=1,max=64"`
	Name          *string  `json:"name" validate:"omitnil,min=1,max=200"`
	Type          *Type    `json:"type" validate:"omitnil,oneof=standard assembly warehouse"`
	GroupID       *int64   `json:"group_id" validate:"omitnil,gt=0"`
	SubgroupID    *int64   `json:"subgroup_id" validate:"omitnil,gt=0"`
	Unit          *string  `json:"unit" validate:"omitnil,max=16"`
	Price         *float64 `json:"price" validate:"omitnil,gte=0"`
	MarkupPercent *float64 `json:"markup_percent" validate:"omitnil,gte=0,lte=1000"`
	StockQty      *float64 `json:"stock_qty"`
	Description   *string  `json:"description" validate:"omitnil,max=2000"`
	Active        *bool    `json:"active"`
}

// Apply переносит заданные поля патча в p. Смена группы без новой
// подгруппы сбрасывает подгруппу.
func (pt Patch) Apply(p *Product) {
	if pt.GroupID != nil && pt.SubgroupID == nil && (p.GroupID == nil || *p.GroupID != *pt.GroupID) {
		p.SubgroupID = nil
	}
	if pt.SKU != nil {
		p.SKU = *pt.SKU
	}
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Type != nil {
		p.Type = *pt.Type
	}
	if pt.GroupID != nil {
		p.GroupID = pt.GroupID
	}
	if pt.SubgroupID != nil {
		p.SubgroupID = pt.SubgroupID
	}
	if pt.Unit != nil {
		p.Unit = *pt.Unit
	}
	if pt.Price != nil {
		p.Price = *pt.Price
	}
	if pt.MarkupPercent != nil {
		p.MarkupPercent = *pt.MarkupPercent
	}
	if pt.StockQty != nil {
		p.StockQty = *pt.StockQty
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.Active != nil {
		p.Active = *pt.Active
	}
}

type Filter struct {
	Type           Type
	GroupID        *int64
	SubgroupID     *int64
	Query          string
	OnlyActive     bool
	IncludeDeleted bool
}

// MaterialUsage — расход материала на единицу изделия.
type MaterialUsage struct {
	ProductID    int64   `json:"product_id"`
	MaterialID   int64   `json:"material_id" validate:"required,gt=0"`
	MaterialName string  `json:"material_name"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	WastePercent float64 `json:"waste_percent" validate:"gte=0,lte=100"`
	Note         string  `json:"note" validate:"max=500"`
}

type WorkTypeUsage struct {
	ProductID    int64   `json:"product_id"`
	WorkTypeID   int64   `json:"work_type_id" validate:"required,gt=0"`
	WorkTypeName string  `json:"work_type_name"`
	Unit         string  `json:"unit"`
	Rate         float64 `json:"rate"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
}

type Component struct {
	AssemblyID    int64   `json:"assembly_id"`
	ComponentID   int64   `json:"component_id" validate:"required,gt=0"`
	ComponentSKU  string  `json:"component_sku"`
	ComponentName string  `json:"component_name"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
}
