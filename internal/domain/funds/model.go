package funds

import (
	"errors"
	"time"

	"github.com/Spok95/workshop-erp/internal/domain/dates"
)

type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

var (
	ErrInvalidAmount    = errors.New("funds: amount must be positive")
	ErrNegativeBudget   = errors.New("funds: budget must not be negative")
	ErrCategoryMismatch = errors.New("funds: category belongs to another fund")
	ErrFundNotFound     = errors.New("funds: fund not found")
)

type Fund struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Budget      Money     `json:"budget"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewFund struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Budget      Money  `json:"budget"`
}

func (in NewFund) Validate() error {
	if in.Budget.IsNegative() {
		return ErrNegativeBudget
	}
	return nil
}

type FundPatch struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	Budget      *Money  `json:"budget"`
	Active      *bool   `json:"active"`
}

func (p FundPatch) Validate() error {
	if p.Budget != nil && p.Budget.IsNegative() {
		return ErrNegativeBudget
	}
	return nil
}

type Category struct {
	ID        int64     `json:"id"`
	FundID    int64     `json:"fund_id"`
	Name      string    `json:"name"`
	Planned   Money     `json:"planned"`
	CreatedAt time.Time `json:"created_at"`
}

type CategoryInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Planned Money  `json:"planned"`
}

func (in CategoryInput) Validate() error {
	if in.Planned.IsNegative() {
		return ErrNegativeBudget
	}
	return nil
}

type Transaction struct {
	ID          int64      `json:"id"`
	FundID      int64      `json:"fund_id"`
	CategoryID  *int64     `json:"category_id"`
	Kind        Kind       `json:"kind"`
	Amount      Money      `json:"amount"`
	Description string     `json:"description"`
	OccurredOn  dates.Date `json:"occurred_on"`
	CreatedAt   time.Time  `json:"created_at"`
}

type NewTransaction struct {
	CategoryID  *int64      `json:"category_id" validate:"omitnil,gt=0"`
	Kind        Kind        `json:"kind" validate:"required,oneof=income expense"`
	Amount      Money       `json:"amount"`
	Description string      `json:"description" validate:"max=500"`
	OccurredOn  *dates.Date `json:"occurred_on"` // пусто — сегодня
}

func (in NewTransaction) Validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

type TxFilter struct {
	From       *dates.Date
	To         *dates.Date
	Kind       Kind
	CategoryID *int64
}
