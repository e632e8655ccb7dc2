package funds

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money — сумма в рублях; в JSON всегда строка с двумя знаками.
type Money struct{ decimal.Decimal }

func NewMoney(d decimal.Decimal) Money { return Money{d.Round(2)} }

// MustMoney для констант и тестов.
func MustMoney(s string) Money { return NewMoney(decimal.RequireFromString(s)) }

func (m Money) Add(o Money) Money { return Money{m.Decimal.Add(o.Decimal)} }
func (m Money) Sub(o Money) Money { return Money{m.Decimal.Sub(o.Decimal)} }

func (m Money) String() string { return m.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
