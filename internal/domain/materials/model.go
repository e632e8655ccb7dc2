package materials

import "time"

type Unit string

const (
	UnitPcs   Unit = "pcs"
	UnitG     Unit = "g"
	UnitKg    Unit = "kg"
	UnitM     Unit = "m"
	UnitM2    Unit = "m2"
	UnitM3    Unit = "m3"
	UnitL     Unit = "l"
	UnitSheet Unit = "sheet"
)

// Units — допустимые единицы измерения в порядке показа.
var Units = []Unit{UnitPcs, UnitG, UnitKg, UnitM, UnitM2, UnitM3, UnitL, UnitSheet}

func (u Unit) Valid() bool {
	for _, x := range Units {
		if u == x {
			return true
		}
	}
	return false
}

type Item struct {
	ID           int64      `json:"id"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	CategoryID   *int64     `json:"category_id"`
	CategoryName string     `json:"category_name"`
	Unit         Unit       `json:"unit"`
	PricePerUnit float64    `json:"price_per_unit"` // ₽ за единицу
	Quantity     float64    `json:"quantity"`
	MinQuantity  float64    `json:"min_quantity"` // порог «заканчивается»
	Supplier     string     `json:"supplier"`
	Note         string     `json:"note"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// LowStock: остаток закончился или ниже порога.
func (it Item) LowStock() bool {
	return it.Quantity <= 0 || it.Quantity < it.MinQuantity
}

func (it Item) Deleted() bool { return it.DeletedAt != nil }

type NewItem struct {
	SKU          string  `json:"sku" validate:"required,max=64"`
	Name         string  `json:"name" validate:"required,max=200"`
	CategoryID   *int64  `json:"category_id" validate:"omitnil,gt=0"`
	Unit         Unit    `json:"unit" validate:"required,oneof=pcs g kg m m2 m3 l sheet"`
	PricePerUnit float64 `json:"price_per_unit" validate:"gte=0"`
	Quantity     float64 `json:"quantity"`
	MinQuantity  float64 `json:"min_quantity" validate:"gte=0"`
	Supplier     string  `json:"supplier" validate:"max=200"`
	Note         string  `json:"note" validate:"max=2000"`
}

// Patch — частичное обновление; количество меняется только движениями.
type Patch struct {
	SKU          *string  `json:"sku" validate:"omitnil,min=1,max=64"`
	Name         *string  `json:"name" validate:"omitnil,min=1,max=200"`
	CategoryID   *int64   `json:"category_id" validate:"omitnil,gt=0"`
	Unit         *Unit    `json:"unit" validate:"omitnil,oneof=pcs g kg m m2 m3 l sheet"`
	PricePerUnit *float64 `json:"price_per_unit" validate:"omitnil,gte=0"`
	MinQuantity  *float64 `json:"min_quantity" validate:"omitnil,gte=0"`
	Supplier     *string  `json:"supplier" validate:"omitnil,max=200"`
	Note         *string  `json:"note" validate:"omitnil,max=2000"`
	Active       *bool    `json:"active"`
}

type Filter struct {
	Query          string
	CategoryID     *int64
	OnlyActive     bool
	LowStock       bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}

type BulkAction string

const (
	BulkActivate    BulkAction = "activate"
	BulkDeactivate  BulkAction = "deactivate"
	BulkDelete      BulkAction = "delete"
	BulkRestore     BulkAction = "restore"
	BulkSetCategory BulkAction = "set_category"
	BulkAdjustPrice BulkAction = "adjust_price"
)

type BulkRequest struct {
	Action     BulkAction `json:"action" validate:"required,oneof=activate deactivate delete restore set_category adjust_price"`
	IDs        []int64    `json:"ids" validate:"required,min=1,max=1000,dive,gt=0"`
	CategoryID *int64     `json:"category_id" validate:"required_if=Action set_category,omitnil,gt=0"`
	Percent    *float64   `json:"percent" validate:"required_if=Action adjust_price,omitnil,gt=-100"`
}

type BulkResult struct {
	Action    BulkAction `json:"action"`
	Requested int        `json:"requested"`
	Affected  int64      `json:"affected"`
}
