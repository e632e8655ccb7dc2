package catalog

import "time"

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryPatch — частичное обновление: nil-поля не меняются.
type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	Active      *bool   `json:"active"`
}
