// Package dates содержит календарную дату без времени для колонок DATE.
package dates

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const Layout = "2006-01-02"

// Date хранится в UTC на полночь; в JSON — строка "YYYY-MM-DD".
type Date struct{ time.Time }

func New(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("dates: %q is not YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func Today(loc *time.Location) Date {
	y, m, d := time.Now().In(loc).Date()
	return New(y, m, d)
}

func (d Date) String() string { return d.Format(Layout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, err := Parse(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

func (d *Date) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		return fmt.Errorf("dates: cannot scan NULL into Date")
	}
	y, m, day := v.Time.Date()
	*d = New(y, m, day)
	return nil
}

func (d Date) DateValue() (pgtype.Date, error) {
	return pgtype.Date{Time: d.Time, Valid: true}, nil
}
