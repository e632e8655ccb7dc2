package worktypes

import "time"

type Unit string

const (
	UnitHour  Unit = "hour"
	UnitPiece Unit = "piece"
	UnitM     Unit = "m"
	UnitM2    Unit = "m2"
	UnitM3    Unit = "m3"
)

type WorkType struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Unit           Unit       `json:"unit"`
	Rate           float64    `json:"rate"` // ₽ за единицу работы
	DepartmentID   *int64     `json:"department_id"`
	DepartmentName string     `json:"department_name"`
	Description    string     `json:"description"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

type NewWorkType struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Unit         Unit    `json:"unit" validate:"required,oneof=hour piece m m2 m3"`
	Rate         float64 `json:"rate" validate:"gte=0"`
	DepartmentID *int64  `json:"department_id" validate:"omitnil,gt=0"`
	Description  string  `json:"description" validate:"max=2000"`
}

type Patch struct {
	Name         *string  `json:"name" validate:"omitnil,min=1,max=200"`
	Unit         *Unit    `json:"unit" validate:"omitnil,oneof=hour piece m m2 m3"`
	Rate         *float64 `json:"rate" validate:"omitnil,gte=0"`
	DepartmentID *int64   `json:"department_id" validate:"omitnil,gt=0"`
	Description  *string  `json:"description" validate:"omitnil,max=2000"`
	Active       *bool    `json:"active"`
}

type Filter struct {
	DepartmentID   *int64
	Query          string
	OnlyActive     bool
	IncludeDeleted bool
}
