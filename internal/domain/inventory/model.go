package inventory

import (
	"errors"
	"time"
)

type MoveType string

const (
	MoveIn     MoveType = "in"
	MoveOut    MoveType = "out"
	MoveAdjust MoveType = "adjust"
)

var (
	ErrInvalidQty       = errors.New("inventory: qty must be > 0")
	ErrNegativeActual   = errors.New("inventory: actual qty must be >= 0")
	ErrMaterialNotFound = errors.New("inventory: material not found")
)

// Movement — запись журнала движения; Balance — остаток после операции.
type Movement struct {
	ID         int64     `json:"id"`
	MaterialID int64     `json:"material_id"`
	Type       MoveType  `json:"type"`
	Qty        float64   `json:"qty"`
	Balance    float64   `json:"balance"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// Request — тело POST /movements.
type Request struct {
	Type MoveType `json:"type" validate:"required,oneof=in out adjust"`
	Qty  float64  `json:"qty" validate:"gte=0"`
	Note string   `json:"note" validate:"max=500"`
}
