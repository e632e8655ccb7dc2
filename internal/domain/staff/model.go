package staff

import (
	"time"

	"github.com/Spok95/workshop-erp/internal/domain/dates"
)

type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type DepartmentInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type Employee struct {
	ID              int64       `json:"id"`
	PersonnelNumber string      `json:"personnel_number"`
	FullName        string      `json:"full_name"`
	Position        string      `json:"position"`
	DepartmentID    *int64      `json:"department_id"`
	DepartmentName  string      `json:"department_name"`
	HourlyRate      float64     `json:"hourly_rate"`
	Phone           string      `json:"phone"`
	Email           string      `json:"email"`
	HiredAt         *dates.Date `json:"hired_at"`
	Active          bool        `json:"active"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	DeletedAt       *time.Time  `json:"deleted_at,omitempty"`
}

type NewEmployee struct {
	PersonnelNumber string      `json:"personnel_number" validate:"required,max=32"`
	FullName        string      `json:"full_name" validate:"required,max=200"`
	Position        string      `json:"position" validate:"max=200"`
	DepartmentID    *int64      `json:"department_id" validate:"omitnil,gt=0"`
	HourlyRate      float64     `json:"hourly_rate" validate:"gte=0"`
	Phone           string      `json:"phone" validate:"max=32"`
	Email           string      `json:"email" validate:"omitempty,email"`
	HiredAt         *dates.Date `json:"hired_at"`
}

type EmployeePatch struct {
	PersonnelNumber *string     `json:"personnel_number" validate:"omitnil,min=1,max=32"`
	FullName        *string     `json:"full_name" validate:"omitnil,min=1,max=200"`
	Position        *string     `json:"position" validate:"omitnil,max=200"`
	DepartmentID    *int64      `json:"department_id" validate:"omitnil,gt=0"`
	HourlyRate      *float64    `json:"hourly_rate" validate:"omitnil,gte=0"`
	Phone           *string     `json:"phone" validate:"omitnil,max=32"`
	Email           *string     `json:"email" validate:"omitempty,email"`
	HiredAt         *dates.Date `json:"hired_at"`
	Active          *bool       `json:"active"`
}

type EmployeeFilter struct {
	DepartmentID   *int64
	Query          string
	OnlyActive     bool
	IncludeDeleted bool
}
