package calculator

import (
	"errors"
	"time"
)

type ParamKind string

const (
	KindNumber  ParamKind = "number"
	KindBoolean ParamKind = "boolean"
)

type LineKind string

const (
	LineMaterial LineKind = "material"
	LineWork     LineKind = "work"
)

var (
	ErrInvalidTemplate = errors.New("calculator: invalid template")
	ErrInvalidInput    = errors.New("calculator: invalid input")
	ErrInvalidBOM      = errors.New("calculator: invalid bom template")
	ErrMissingRef      = errors.New("calculator: referenced material or work type is missing")
)

type Parameter struct {
	Name     string    `json:"name" validate:"required,max=64"`
	Label    string    `json:"label" validate:"max=200"`
	Kind     ParamKind `json:"kind" validate:"required,oneof=number boolean"`
	Default  float64   `json:"default"` // для boolean: 0 или 1
	Unit     string    `json:"unit" validate:"max=16"`
	Min      *float64  `json:"min"`
	Max      *float64  `json:"max"`
	Position int       `json:"position"`
}

type Formula struct {
	Name       string `json:"name" validate:"required,max=64"`
	Label      string `json:"label" validate:"max=200"`
	Expression string `json:"expression" validate:"required,max=2000"`
	Unit       string `json:"unit" validate:"max=16"`
	Position   int    `json:"position"`
}

type Template struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	ProductType string      `json:"product_type"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Formulas    []Formula   `json:"formulas"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TemplateInput — тело POST/PUT; PUT заменяет параметры и формулы целиком.
type TemplateInput struct {
	Name        string      `json:"name" validate:"required,max=200"`
	ProductType string      `json:"product_type" validate:"max=64"`
	Description string      `json:"description" validate:"max=2000"`
	Parameters  []Parameter `json:"parameters" validate:"max=200,dive"`
	Formulas    []Formula   `json:"formulas" validate:"max=200,dive"`
}

func (in TemplateInput) Validate() error {
	_, err := Compile(in.Template())
	return err
}

func (in TemplateInput) Template() Template {
	return Template{
		Name:        in.Name,
		ProductType: in.ProductType,
		Description: in.Description,
		Parameters:  in.Parameters,
		Formulas:    in.Formulas,
	}
}

type Line struct {
	ID              int64    `json:"id"`
	Kind            LineKind `json:"kind" validate:"required,oneof=material work"`
	MaterialID      *int64   `json:"material_id" validate:"omitnil,gt=0"`
	WorkTypeID      *int64   `json:"work_type_id" validate:"omitnil,gt=0"`
	QuantityFormula string   `json:"quantity_formula" validate:"required,max=2000"`
	Note            string   `json:"note" validate:"max=500"`
	Position        int      `json:"position"`
}

type BomTemplate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	TemplateID  int64     `json:"template_id"`
	ProductID   *int64    `json:"product_id"`
	Description string    `json:"description"`
	Lines       []Line    `json:"lines"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type BomInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	TemplateID  int64  `json:"template_id" validate:"required,gt=0"`
	ProductID   *int64 `json:"product_id" validate:"omitnil,gt=0"`
	Description string `json:"description" validate:"max=2000"`
	Lines       []Line `json:"lines" validate:"max=500,dive"`
}

// Input — значения параметров из запроса: числа и булевы.
type Input map[string]any

type CalcRequest struct {
	Parameters Input `json:"parameters"`
}

func (in BomInput) Validate() error {
	for i, l := range in.Lines {
		if err := checkLine(i, l); err != nil {
			return err
		}
	}
	return nil
}
